// File: internal/service/components.go
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/engine"
	"github.com/xkilldash9x/errsynth/internal/morph"
	"github.com/xkilldash9x/errsynth/internal/nlpclient"
	"github.com/xkilldash9x/errsynth/internal/observability"
	"github.com/xkilldash9x/errsynth/internal/paronym"
	"github.com/xkilldash9x/errsynth/internal/preposition"
	"github.com/xkilldash9x/errsynth/internal/sampler"
)

// Components holds every initialized service a generation command needs and
// owns their lifecycle.
type Components struct {
	Morphology   *nlpclient.Client
	Store        *StoreHandle
	Mutator      *morph.Mutator
	ParonymTable *paronym.Table
	Paronyms     *paronym.Generator
	Prepositions *preposition.Sampler
	Engine       *engine.Engine
	Rand         sampler.Rand

	// consumerWG tracks a running usage consumer, if any.
	consumerWG *sync.WaitGroup
}

// Shutdown releases resources in reverse order of creation. It is safe on a
// partially initialized struct.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	logger.Debug("Beginning components shutdown sequence.")

	if c.consumerWG != nil {
		if !timedWait(c.consumerWG, 30*time.Second) {
			logger.Warn("Timed out waiting for the usage consumer to finish.")
		}
	}

	if c.Store != nil && c.Store.Close != nil {
		c.Store.Close()
		logger.Debug("Preposition store closed.")
	}

	logger.Debug("All components shut down.")
}

// ErrNoStore is returned when a command needs the usage store but the
// components were created without one.
var ErrNoStore = errors.New("service: preposition store not initialized")

// ImportUsages starts a batched consumer that saves every usage received on
// the channel. Close the channel, then call WaitImport to flush. The returned
// counter holds the number of saved rows.
func (c *Components) ImportUsages(ctx context.Context, usages <-chan schemas.PrepositionUsage) (*atomic.Int64, error) {
	if c.Store == nil {
		return nil, ErrNoStore
	}
	if c.consumerWG == nil {
		c.consumerWG = &sync.WaitGroup{}
	}
	saved := new(atomic.Int64)
	StartUsageConsumer(ctx, c.consumerWG, usages, c.Store.Usages, observability.GetLogger().Named("import"), saved)
	return saved, nil
}

// WaitImport blocks until a running import has flushed its last batch.
func (c *Components) WaitImport() {
	if c.consumerWG != nil {
		c.consumerWG.Wait()
	}
}

// timedWait waits for wg and reports whether it finished before timeout.
func timedWait(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
