// internal/corpus/export.go
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/internal/interfaces"
	"github.com/xkilldash9x/errsynth/internal/sampler"
)

// Binary classification layout.
const (
	CorrectDir   = "correct"
	IncorrectDir = "incorrect"
	// pathJoiner flattens nested record paths into one file name.
	pathJoiner = "---"
)

// ExportSummary reports where records went.
type ExportSummary struct {
	Correct   int
	Incorrect int
	Failed    int
}

// ExportBinary turns a corpus into a binary classification dataset. Each
// record goes, with equal probability, either to outDir/incorrect as its text
// with errors or to outDir/correct as the restored sentence. Records without
// annotations always go to correct.
func ExportBinary(ctx context.Context, r sampler.Rand, itemsDir, outDir string, logger *zap.Logger) (ExportSummary, error) {
	var summary ExportSummary
	files, err := ListFiles(itemsDir)
	if err != nil {
		return summary, err
	}
	for _, sub := range []string{CorrectDir, IncorrectDir} {
		if err := os.MkdirAll(filepath.Join(outDir, sub), 0o755); err != nil {
			return summary, fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, err := ReadItem(f)
		if err != nil {
			logger.Warn("Skipping unreadable record", zap.String("file", f), zap.Error(err))
			summary.Failed++
			continue
		}

		rel, err := filepath.Rel(itemsDir, f)
		if err != nil {
			return summary, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		name := strings.ReplaceAll(filepath.ToSlash(rel), "/", pathJoiner)

		sub, text := CorrectDir, Restore(item)
		if len(item.Annotations) > 0 && sampler.Bernoulli(r, 0.5) {
			sub, text = IncorrectDir, item.Text
		}
		if err := os.WriteFile(filepath.Join(outDir, sub, name), []byte(text), 0o644); err != nil {
			return summary, fmt.Errorf("failed to write %s: %w", name, err)
		}
		if sub == CorrectDir {
			summary.Correct++
		} else {
			summary.Incorrect++
		}
	}
	return summary, nil
}

// -- Sentence Splitting --

// SplitSummary reports a SplitDirectory run.
type SplitSummary struct {
	Files     int
	Failed    int
	Sentences int
}

// SplitDirectory splits every top-level file of srcDir into sentences and
// writes them to targetDir/<file base name>/sentence_<n>.txt, numbered from 1.
// A file that cannot be read or split is logged and skipped.
func SplitDirectory(ctx context.Context, splitter interfaces.SentenceSplitter, srcDir, targetDir string, logger *zap.Logger) (SplitSummary, error) {
	var summary SplitSummary
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return summary, fmt.Errorf("failed to read %s: %w", srcDir, err)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return summary, fmt.Errorf("failed to create %s: %w", targetDir, err)
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		path := filepath.Join(srcDir, entry.Name())
		n, err := splitFile(ctx, splitter, path, targetDir)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			logger.Error("Failed to split file", zap.String("file", path), zap.Error(err))
			summary.Failed++
			continue
		}
		logger.Info("Split file", zap.String("file", entry.Name()), zap.Int("sentences", n))
		summary.Files++
		summary.Sentences += n
	}
	return summary, nil
}

func splitFile(ctx context.Context, splitter interfaces.SentenceSplitter, path, targetDir string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	sentences, err := splitter.SplitSentences(ctx, string(data))
	if err != nil {
		return 0, err
	}
	base := filepath.Base(path)
	dir := filepath.Join(targetDir, strings.TrimSuffix(base, filepath.Ext(base)))
	if err := WriteSentences(dir, sentences); err != nil {
		return 0, err
	}
	return len(sentences), nil
}

// WriteSentences stores one sentence per file as sentence_<n>.txt, n from 1.
func WriteSentences(dir string, sentences []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for i, s := range sentences {
		path := filepath.Join(dir, fmt.Sprintf("sentence_%d.txt", i+1))
		if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
