// File: internal/service/initializers.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/nlpclient"
	"github.com/xkilldash9x/errsynth/internal/store"
)

// StoreHandle bundles the opened preposition usage store. Statistics is only
// set for PostgreSQL, which serves the per-lemma share queries.
type StoreHandle struct {
	Usages     schemas.UsageStore
	Statistics *store.Store
	Pool       *pgxpool.Pool
	Close      func()
}

// InitializeStore connects to the configured preposition usage store and
// makes sure its schema exists.
func InitializeStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*StoreHandle, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverPostgres:
		if cfg.URL == "" {
			return nil, fmt.Errorf("database URL is not configured (hint: check ERRSYNTH_DATABASE_URL)")
		}
		poolConfig, err := pgxpool.ParseConfig(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("unable to parse PGX pool config: %w", err)
		}
		poolConfig.MaxConns = 10
		poolConfig.MinConns = 1
		poolConfig.MaxConnLifetime = 1 * time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("unable to create PGX connection pool: %w", err)
		}
		pgStore, err := store.New(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to initialize database store: %w", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("PostgreSQL preposition store initialized.")
		return &StoreHandle{
			Usages:     pgStore,
			Statistics: pgStore,
			Pool:       pool,
			Close: func() {
				logger.Debug("Closing PostgreSQL connection pool.")
				pool.Close()
			},
		}, nil

	case config.DriverSQLite:
		sqliteStore, err := store.OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite preposition store initialized.", zap.String("path", cfg.SQLitePath))
		return &StoreHandle{
			Usages: sqliteStore,
			Close: func() {
				if err := sqliteStore.Close(); err != nil {
					logger.Warn("Failed to close SQLite store.", zap.Error(err))
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
}

// InitializeMorphologyClient creates the client of the morphological analysis
// service.
func InitializeMorphologyClient(cfg config.MorphologyConfig, logger *zap.Logger) (*nlpclient.Client, error) {
	client, err := nlpclient.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize morphology client: %w", err)
	}
	return client, nil
}

// -- Usage Import --

const (
	usageBatchSize    = 500
	usageBatchTimeout = 2 * time.Second
)

// StartUsageConsumer launches a goroutine that reads preposition usages from
// the channel and saves them in batches. It manages its lifecycle using the
// provided WaitGroup and adds the number of saved rows to saved.
func StartUsageConsumer(ctx context.Context, wg *sync.WaitGroup, usages <-chan schemas.PrepositionUsage, usageStore schemas.UsageStore, logger *zap.Logger, saved *atomic.Int64) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Debug("Starting usage consumer goroutine.")
		defer logger.Debug("Usage consumer goroutine shut down.")

		batch := make([]schemas.PrepositionUsage, 0, usageBatchSize)
		ticker := time.NewTicker(usageBatchTimeout)
		defer ticker.Stop()

		processBatch := func() {
			if len(batch) == 0 {
				return
			}
			// Persistence outlives a cancelled import so buffered rows are not lost.
			persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			n, err := usageStore.SaveUsages(persistCtx, batch)
			if err != nil {
				logger.Error("Failed to save usage batch. Data may be lost.", zap.Error(err), zap.Int("batch_size", len(batch)))
			} else {
				saved.Add(n)
				logger.Debug("Saved usage batch.", zap.Int64("rows", n))
			}
			batch = batch[:0]
		}

		for {
			select {
			case usage, ok := <-usages:
				if !ok {
					processBatch()
					return
				}
				batch = append(batch, usage)
				if len(batch) >= usageBatchSize {
					processBatch()
					ticker.Reset(usageBatchTimeout)
				}

			case <-ticker.C:
				processBatch()

			case <-ctx.Done():
				logger.Warn("Usage consumer context canceled, draining channel and saving remaining batch.")
				drainChannel(usages, &batch)
				processBatch()
				return
			}
		}
	}()
}

// drainChannel reads whatever is buffered in the channel without blocking.
func drainChannel(usages <-chan schemas.PrepositionUsage, batch *[]schemas.PrepositionUsage) {
	for {
		select {
		case usage, ok := <-usages:
			if !ok {
				return
			}
			*batch = append(*batch, usage)
		default:
			return
		}
	}
}
