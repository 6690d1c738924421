// File: cmd/generate.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/observability"
	"github.com/xkilldash9x/errsynth/internal/service"
	"github.com/xkilldash9x/errsynth/internal/worker"
)

// newGenerateCmd creates the `generate` command, the batch corpus synthesizer.
func newGenerateCmd(factory service.ComponentFactory) *cobra.Command {
	var (
		inputDir    string
		outputDir   string
		mode        string
		concurrency int
		seed        uint64
		errorRate   float64
		itemTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Injects errors into every sentence file of a directory",
		Long: `Reads every sentence file under the input directory (lexical order) and writes one
annotated JSON record per file to the output directory, named by the file's index.
Failures are logged and counted; they never abort the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			// Flags override the file and environment only when set explicitly.
			flags := cmd.Flags()
			if flags.Changed("input") {
				cfg.SetBatchInputDir(inputDir)
			}
			if flags.Changed("output") {
				cfg.SetBatchOutputDir(outputDir)
			}
			if flags.Changed("concurrency") {
				cfg.SetBatchConcurrency(concurrency)
			}
			applyEngineFlags(cmd, cfg, mode, seed, errorRate)

			return runGenerate(ctx, cfg, observability.GetLogger(), factory, itemTimeout, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory of sentence files (default batch.input_dir)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for the annotated records (default batch.output_dir)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Files processed in parallel (default batch.concurrency)")
	cmd.Flags().DurationVar(&itemTimeout, "item-timeout", 2*time.Minute, "Time limit for a single sentence; 0 disables it")
	addEngineFlags(cmd, &mode, &seed, &errorRate)
	return cmd
}

// addEngineFlags registers the engine overrides shared by generate and inject.
func addEngineFlags(cmd *cobra.Command, mode *string, seed *uint64, errorRate *float64) {
	cmd.Flags().StringVarP(mode, "mode", "m", "", fmt.Sprintf("Error mode: %v (default engine.mode)", config.Modes))
	cmd.Flags().Uint64Var(seed, "seed", 0, "Seed for reproducible runs (default engine.seed)")
	cmd.Flags().Float64Var(errorRate, "error-rate", 0, "Expected share of erroneous words in a single-kind pass (default engine.error_rate)")
}

func applyEngineFlags(cmd *cobra.Command, cfg config.Interface, mode string, seed uint64, errorRate float64) {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.SetEngineMode(mode)
	}
	if flags.Changed("seed") {
		cfg.SetEngineSeed(seed)
	}
	if flags.Changed("error-rate") {
		cfg.SetEngineErrorRate(errorRate)
	}
}

// runGenerate contains the core, testable logic of the generate command.
func runGenerate(
	ctx context.Context,
	cfg config.Interface,
	logger *zap.Logger,
	factory service.ComponentFactory,
	itemTimeout time.Duration,
	out io.Writer,
) error {
	engineCfg := cfg.Engine()
	if err := engineCfg.Validate(); err != nil {
		return fmt.Errorf("invalid engine settings: %w", err)
	}
	batch := cfg.Batch()
	if batch.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer, got %d", batch.Concurrency)
	}

	runID := uuid.New().String()
	logger.Info("Starting corpus generation",
		zap.String("run_id", runID),
		zap.String("mode", engineCfg.Mode),
		zap.String("input", batch.InputDir),
		zap.String("output", batch.OutputDir),
		zap.Int("concurrency", batch.Concurrency),
	)

	components, err := factory.Create(ctx, cfg, logger, service.CreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to initialize generation components: %w", err)
	}
	defer components.Shutdown()

	w := worker.New(components.Engine, logger,
		worker.WithMode(engineCfg.Mode),
		worker.WithConcurrency(batch.Concurrency),
		worker.WithItemTimeout(itemTimeout),
		worker.WithRunID(runID),
	)
	summary, err := w.Run(ctx, batch.InputDir, batch.OutputDir)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("Generation aborted", zap.String("run_id", runID), zap.Int("written", summary.Succeeded))
		}
		return fmt.Errorf("generation run %s failed: %w", runID, err)
	}

	fmt.Fprintf(out, "Run %s: %d files, %d written, %d failed, %d skipped in %s\n",
		summary.RunID, summary.Total, summary.Succeeded, summary.Failed, summary.Skipped,
		summary.Duration.Round(time.Millisecond))
	return nil
}
