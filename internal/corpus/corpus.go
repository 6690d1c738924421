// internal/corpus/corpus.go
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/textnorm"
)

// ItemFileName is the name of the corpus record generated from the idx-th
// input file.
func ItemFileName(idx int) string {
	return fmt.Sprintf("%d.txt", idx)
}

// ListFiles returns every regular file under root, recursively, in lexical
// order so that indices are stable between runs.
func ListFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input directory does not exist: %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ReadSentence reads a sentence file, trimming surrounding whitespace.
func ReadSentence(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read sentence %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteItem stores item as indented JSON in dir/name, creating dir as needed.
func WriteItem(dir, name string, item schemas.CorpusItem) error {
	if item.Annotations == nil {
		item.Annotations = []schemas.ErrorAnnotation{}
	}
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus item: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus item %s: %w", path, err)
	}
	return nil
}

// ReadItem decodes a corpus record.
func ReadItem(path string) (schemas.CorpusItem, error) {
	var item schemas.CorpusItem
	data, err := os.ReadFile(path)
	if err != nil {
		return item, fmt.Errorf("failed to read corpus item %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("failed to decode corpus item %s: %w", path, err)
	}
	return item, nil
}

// Restore rebuilds the error-free sentence from a record by putting every
// annotated word back. Annotations pointing outside the text are ignored.
func Restore(item schemas.CorpusItem) string {
	words := textnorm.Tokenize(item.Text)
	for _, a := range item.Annotations {
		if a.WordNumber >= 0 && a.WordNumber < len(words) {
			words[a.WordNumber] = a.CorrectReplacement
		}
	}
	return textnorm.Join(words)
}

// -- Statistics --

// Stats counts records and annotations per error kind.
type Stats struct {
	Items       int                       `json:"items" yaml:"items"`
	Failed      int                       `json:"failed" yaml:"failed"`
	Annotations map[schemas.ErrorKind]int `json:"annotations" yaml:"annotations"`
}

// Total is the number of annotations over all kinds.
func (s Stats) Total() int {
	n := 0
	for _, c := range s.Annotations {
		n += c
	}
	return n
}

// CollectStats reads every record under dir. Unreadable records are counted
// as failed rather than aborting the scan.
func CollectStats(dir string) (Stats, error) {
	stats := Stats{Annotations: make(map[schemas.ErrorKind]int)}
	files, err := ListFiles(dir)
	if err != nil {
		return stats, err
	}
	for _, f := range files {
		item, err := ReadItem(f)
		if err != nil {
			stats.Failed++
			continue
		}
		stats.Items++
		for _, a := range item.Annotations {
			stats.Annotations[a.Type]++
		}
	}
	return stats, nil
}
