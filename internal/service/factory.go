// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/engine"
	"github.com/xkilldash9x/errsynth/internal/morph"
	"github.com/xkilldash9x/errsynth/internal/paronym"
	"github.com/xkilldash9x/errsynth/internal/preposition"
	"github.com/xkilldash9x/errsynth/internal/sampler"
)

// CreateOptions selects optional components.
type CreateOptions struct {
	// WithStore opens the preposition usage store. It is implied by the
	// preposition engine mode.
	WithStore bool
}

// ComponentFactory creates the set of components a command needs. The
// abstraction lets command tests substitute their own wiring.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts CreateOptions) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct{}

// NewComponentFactory creates a new production component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create handles the dependency injection and initialization of the
// generation components.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts CreateOptions) (*Components, error) {
	components := &Components{}

	// Ensure cleanup happens if initialization fails midway.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	engineCfg := cfg.Engine()

	// 1. Randomness
	components.Rand = sampler.New(engineCfg.Seed)
	if engineCfg.Seed != 0 {
		logger.Debug("Using deterministic randomness.", zap.Uint64("seed", engineCfg.Seed))
	}

	// 2. Morphology client
	client, err := InitializeMorphologyClient(cfg.Morphology(), logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Morphology = client
	logger.Debug("Morphology client initialized.", zap.String("base_url", cfg.Morphology().BaseURL))

	// 3. Preposition store
	if opts.WithStore || engineCfg.Mode == config.ModePreposition {
		handle, err := InitializeStore(ctx, cfg.Database(), logger)
		if err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		components.Store = handle
		components.Prepositions = preposition.New(handle.Usages, components.Rand, cfg.Prepositions().MinShare, logger)
		logger.Debug("Preposition sampler initialized.")
	}

	// 4. Generators
	components.Mutator = morph.NewMutator(client, components.Rand, logger, morph.WithMaxAttempts(engineCfg.MaxMutationAttempts))

	tablePath := cfg.Paronym().TablePath
	if _, err := os.Stat(tablePath); err != nil {
		logger.Warn("Paronym table is not readable; the paronym stage will be skipped.", zap.String("path", tablePath), zap.Error(err))
	}
	components.ParonymTable = paronym.NewTable(tablePath)
	components.Paronyms = paronym.NewGenerator(client, components.ParonymTable, components.Rand, logger)
	logger.Debug("Generators initialized.")

	// 5. Engine
	deps := engine.Dependencies{
		Morphology: client,
		Mutator:    components.Mutator,
		Paronyms:   components.Paronyms,
		Rand:       components.Rand,
	}
	if components.Prepositions != nil {
		deps.Prepositions = components.Prepositions
	}
	eng, err := engine.New(engineCfg, deps, logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize engine: %w", err)
		return nil, initializationErr
	}
	components.Engine = eng

	logger.Info("All generation components initialized successfully.", zap.String("mode", engineCfg.Mode))
	return components, nil
}
