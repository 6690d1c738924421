// File: cmd/paronyms.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/internal/interfaces"
	"github.com/xkilldash9x/errsynth/internal/observability"
	"github.com/xkilldash9x/errsynth/internal/paronym"
	"github.com/xkilldash9x/errsynth/internal/service"
)

// groupScraper is the part of paronym.Scraper the scrape command needs.
type groupScraper interface {
	Scrape(ctx context.Context) ([][]string, error)
}

func newParonymsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paronyms",
		Short: "Builds and extends the paronym table",
	}
	cmd.AddCommand(newParonymsScrapeCmd(), newParonymsExtendCmd())
	return cmd
}

func newParonymsScrapeCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Collects paronym groups from the online dictionary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			pc := cfg.Paronym()
			if outputPath == "" {
				outputPath = pc.TablePath
			}
			scraper := paronym.NewScraper(pc.ScrapeBaseURL, pc.ScrapeRateLimit, logger)
			return runParonymScrape(ctx, scraper, outputPath, logger, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Where to write the groups (default paronym.table_path)")
	return cmd
}

func runParonymScrape(ctx context.Context, scraper groupScraper, outputPath string, logger *zap.Logger, out io.Writer) error {
	groups, err := scraper.Scrape(ctx)
	if err != nil {
		// Keep whatever was collected before the interruption.
		if len(groups) > 0 {
			if saveErr := paronym.SaveGroups(outputPath, groups); saveErr != nil {
				logger.Error("Failed to save partial paronym table", zap.Error(saveErr))
			}
		}
		return fmt.Errorf("scrape interrupted after %d groups: %w", len(groups), err)
	}
	if err := paronym.SaveGroups(outputPath, groups); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved %d paronym groups to %s\n", len(groups), outputPath)
	return nil
}

func newParonymsExtendCmd() *cobra.Command {
	var wordsPath, outputPath string
	var minSimilarity float64

	cmd := &cobra.Command{
		Use:   "extend",
		Short: "Finds similarly spelled word pairs and scores their semantic similarity",
		Long: `Compares every pair of words (from --words, one per line, or from the current paronym
table) by edit distance, scores the surviving pairs with the morphology service's
semantic similarity and writes them as JSON, most similar first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			var words []string
			if wordsPath != "" {
				words, err = readWordList(wordsPath)
			} else {
				words, err = tableWords(cfg.Paronym().TablePath)
			}
			if err != nil {
				return err
			}

			client, err := service.InitializeMorphologyClient(cfg.Morphology(), logger)
			if err != nil {
				return err
			}
			return runParonymExtend(ctx, client, words, cfg.Paronym().SimilarityConcurrency, minSimilarity, outputPath, logger, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&wordsPath, "words", "w", "", "Word list, one word per line (default: words of the paronym table)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "paronym_candidates.json", "Where to write the scored candidates")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", -1, "Drop scored pairs below this similarity")
	return cmd
}

func runParonymExtend(
	ctx context.Context,
	svc interfaces.MorphologyService,
	words []string,
	concurrency int,
	minSimilarity float64,
	outputPath string,
	logger *zap.Logger,
	out io.Writer,
) error {
	candidates := paronym.FindCandidates(words)
	logger.Info("Candidate pairs found", zap.Int("words", len(words)), zap.Int("candidates", len(candidates)))

	scored, err := paronym.ScoreCandidates(ctx, svc, candidates, concurrency, logger)
	if err != nil {
		return err
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if c.Similarity != nil && *c.Similarity < minSimilarity {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		si, sj := kept[i].Similarity, kept[j].Similarity
		if si == nil || sj == nil {
			return si != nil
		}
		return *si > *sj
	})

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize candidates: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write candidates: %w", err)
	}
	fmt.Fprintf(out, "Wrote %d candidates (%d scored) to %s\n", len(kept), scored, outputPath)
	return nil
}

func readWordList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if w := strings.TrimSpace(scanner.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return words, nil
}

func tableWords(path string) ([]string, error) {
	groups, err := paronym.LoadGroups(path)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, g := range groups {
		words = append(words, g...)
	}
	return words, nil
}
