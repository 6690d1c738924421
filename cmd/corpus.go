// File: cmd/corpus.go
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/internal/corpus"
	"github.com/xkilldash9x/errsynth/internal/interfaces"
	"github.com/xkilldash9x/errsynth/internal/observability"
	"github.com/xkilldash9x/errsynth/internal/reporting"
	"github.com/xkilldash9x/errsynth/internal/sampler"
	"github.com/xkilldash9x/errsynth/internal/service"
)

// -- split --

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <source-dir> <target-dir>",
		Short: "Splits every text file of a directory into one file per sentence",
		Long: `Sends each top-level file of the source directory to the morphology service's
sentence splitter and writes sentence_1.txt, sentence_2.txt, ... into a
sub-directory of the target named after the source file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			client, err := service.InitializeMorphologyClient(cfg.Morphology(), logger)
			if err != nil {
				return err
			}
			return runSplit(ctx, client, args[0], args[1], logger, cmd.OutOrStdout())
		},
	}
}

func runSplit(ctx context.Context, splitter interfaces.SentenceSplitter, srcDir, targetDir string, logger *zap.Logger, out io.Writer) error {
	summary, err := corpus.SplitDirectory(ctx, splitter, srcDir, targetDir, logger)
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}
	fmt.Fprintf(out, "Split %d files into %d sentences (%d files failed)\n", summary.Files, summary.Sentences, summary.Failed)
	return nil
}

// -- stats --

func newStatsCmd() *cobra.Command {
	var outputPath, format string

	cmd := &cobra.Command{
		Use:   "stats [corpus-dir]",
		Short: "Counts records and annotations per error kind",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			dir := cfg.Batch().OutputDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runStats(dir, format, outputPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path. If unset, the report is printed to stdout.")
	cmd.Flags().StringVarP(&format, "format", "f", reporting.FormatText, "Report format: text, json or yaml")
	return cmd
}

func runStats(dir, format, outputPath string, stdout io.Writer) error {
	stats, err := corpus.CollectStats(dir)
	if err != nil {
		return fmt.Errorf("failed to collect statistics: %w", err)
	}

	reporter, err := reporting.NewWithStdout(format, outputPath, stdout)
	if err != nil {
		return fmt.Errorf("failed to initialize reporter: %w", err)
	}
	if err := reporter.Write(stats); err != nil {
		reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return reporter.Close()
}

// -- export-binary --

func newExportBinaryCmd() *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "export-binary <corpus-dir> <target-dir>",
		Short: "Exports a correct/incorrect sentence corpus for binary classification",
		Long: `Writes each annotated record to either <target>/incorrect (its erroneous text) or
<target>/correct (its restored correct text), choosing fairly at random. Records
without annotations always go to <target>/correct.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Engine().Seed
			}
			return runExportBinary(ctx, sampler.New(seed), args[0], args[1], observability.GetLogger(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible split (default engine.seed)")
	return cmd
}

func runExportBinary(ctx context.Context, r sampler.Rand, itemsDir, outDir string, logger *zap.Logger, out io.Writer) error {
	summary, err := corpus.ExportBinary(ctx, r, itemsDir, outDir, logger)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(out, "Exported %d correct and %d incorrect sentences (%d records failed)\n", summary.Correct, summary.Incorrect, summary.Failed)
	return nil
}
