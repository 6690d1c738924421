package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/corpus"
)

const defaultConcurrency = 2

// Generator produces one corpus item from a sentence.
type Generator interface {
	Generate(ctx context.Context, text, mode string) (schemas.CorpusItem, error)
}

// Summary reports the outcome of a batch run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// BatchWorker runs the generator over a directory of sentence files with
// bounded concurrency. Per-file failures are logged and counted; only context
// cancellation stops a run.
type BatchWorker struct {
	gen         Generator
	logger      *zap.Logger
	mode        string
	concurrency int
	itemTimeout time.Duration
	runID       string
}

// Option is a function that configures a BatchWorker.
type Option func(*BatchWorker)

// WithMode selects the engine mode for every item.
func WithMode(mode string) Option {
	return func(w *BatchWorker) {
		w.mode = mode
	}
}

// WithConcurrency bounds the number of files in flight. Non-positive values
// are ignored.
func WithConcurrency(n int) Option {
	return func(w *BatchWorker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithItemTimeout bounds the time spent on a single file.
func WithItemTimeout(d time.Duration) Option {
	return func(w *BatchWorker) {
		w.itemTimeout = d
	}
}

// WithRunID tags every log line of the run.
func WithRunID(id string) Option {
	return func(w *BatchWorker) {
		w.runID = id
	}
}

// New creates a BatchWorker.
func New(gen Generator, logger *zap.Logger, opts ...Option) *BatchWorker {
	w := &BatchWorker{
		gen:         gen,
		logger:      logger,
		mode:        config.ModeComposite,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("component", "worker"), zap.String("run_id", w.runID))
	return w
}

// Run processes every file under inputDir, writing the record generated from
// the i-th file (in lexical order) to outputDir/<i>.txt.
func (w *BatchWorker) Run(ctx context.Context, inputDir, outputDir string) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: w.runID}

	files, err := corpus.ListFiles(inputDir)
	if err != nil {
		return summary, err
	}
	summary.Total = len(files)
	w.logger.Info("Starting batch generation",
		zap.Int("files", len(files)),
		zap.Int("concurrency", w.concurrency),
		zap.String("mode", w.mode),
		zap.String("output", outputDir),
	)

	var succeeded, failed, skipped atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)

	for idx, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			switch err := w.process(ctx, idx, path, outputDir); {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, errEmptySentence):
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary.Succeeded = int(succeeded.Load())
	summary.Failed = int(failed.Load())
	summary.Skipped = int(skipped.Load())
	summary.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		w.logger.Warn("Batch generation interrupted", zap.Int("succeeded", summary.Succeeded), zap.Error(err))
		return summary, err
	}
	w.logger.Info("Batch generation finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

var errEmptySentence = errors.New("empty sentence")

// process handles a single file.
func (w *BatchWorker) process(ctx context.Context, idx int, path, outputDir string) error {
	logger := w.logger.With(zap.String("file", path))
	if ctx.Err() != nil {
		return ctx.Err()
	}

	sentence, err := corpus.ReadSentence(path)
	if err != nil {
		logger.Error("Failed to read input file", zap.Error(err))
		return err
	}
	if sentence == "" {
		logger.Debug("Skipping empty input file")
		return errEmptySentence
	}

	itemCtx := ctx
	if w.itemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, w.itemTimeout)
		defer cancel()
	}

	item, err := w.gen.Generate(itemCtx, sentence, w.mode)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			logger.Warn("Item generation timed out", zap.Duration("timeout", w.itemTimeout), zap.Error(err))
		case errors.Is(err, context.Canceled):
			logger.Warn("Item generation was cancelled", zap.Error(err))
		default:
			logger.Error("Item generation failed", zap.Error(err))
		}
		return err
	}

	name := corpus.ItemFileName(idx)
	if err := corpus.WriteItem(outputDir, name, item); err != nil {
		logger.Error("Failed to write corpus item", zap.Error(err))
		return fmt.Errorf("write %s: %w", name, err)
	}
	logger.Debug("Processed file", zap.String("item", name), zap.Int("annotations", len(item.Annotations)))
	return nil
}
