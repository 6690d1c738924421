// internal/preposition/preposition.go
package preposition

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/interfaces"
	"github.com/xkilldash9x/errsynth/internal/sampler"
	"github.com/xkilldash9x/errsynth/internal/textnorm"
)

// DefaultMinShare is the smallest percentage (0..100 scale) at which a word
// from the frequency table still counts as a preposition.
const DefaultMinShare = 0.00155

// table is the loaded, immutable frequency table.
type table struct {
	frequencies []schemas.PrepositionFrequency
	percentage  map[string]float64
	ranges      []sampler.Range[string]
}

// Sampler replaces prepositions with others drawn by corpus frequency.
type Sampler struct {
	stats    interfaces.PrepositionStats
	r        sampler.Rand
	minShare float64
	logger   *zap.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	loaded *table
}

// New creates a Sampler. A non-positive minShare falls back to DefaultMinShare.
func New(stats interfaces.PrepositionStats, r sampler.Rand, minShare float64, logger *zap.Logger) *Sampler {
	if minShare <= 0 {
		minShare = DefaultMinShare
	}
	return &Sampler{
		stats:    stats,
		r:        r,
		minShare: minShare,
		logger:   logger.Named("preposition"),
	}
}

// load returns the cached table, fetching it on first use. Concurrent callers
// share one fetch; a failed fetch is not cached.
func (s *Sampler) load(ctx context.Context) (*table, error) {
	s.mu.RLock()
	t := s.loaded
	s.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	v, err, _ := s.group.Do("table", func() (interface{}, error) {
		s.mu.RLock()
		cached := s.loaded
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		freqs, err := s.stats.PrepositionFrequencies(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load preposition frequencies: %w", err)
		}
		built, err := build(freqs)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.loaded = built
		s.mu.Unlock()
		s.logger.Info("Preposition table loaded", zap.Int("prepositions", len(freqs)))
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*table), nil
}

func build(freqs []schemas.PrepositionFrequency) (*table, error) {
	t := &table{
		frequencies: freqs,
		percentage:  make(map[string]float64, len(freqs)),
	}
	weights := make([]sampler.Weighted[string], 0, len(freqs))
	for _, f := range freqs {
		prep := strings.ToLower(f.Preposition)
		t.percentage[prep] = f.Percentage
		weights = append(weights, sampler.Weighted[string]{Value: prep, Weight: float64(f.Count)})
	}
	ranges, err := sampler.CumulativeTable(weights)
	if err != nil {
		return nil, fmt.Errorf("failed to build preposition table: %w", err)
	}
	t.ranges = ranges
	return t, nil
}

func (t *table) isPreposition(word string, minShare float64) bool {
	pct, ok := t.percentage[strings.ToLower(sampler.StripPunctuation(word))]
	return ok && pct > minShare
}

// Frequencies returns the loaded frequency table, most frequent first.
func (s *Sampler) Frequencies(ctx context.Context) ([]schemas.PrepositionFrequency, error) {
	t, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return t.frequencies, nil
}

// IsPreposition reports whether word is a known preposition above the share threshold.
func (s *Sampler) IsPreposition(ctx context.Context, word string) (bool, error) {
	t, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	return t.isPreposition(word, s.minShare), nil
}

// Ineligible loads the table and returns a synchronous predicate that is true
// for words that are not prepositions, for use with position sampling.
func (s *Sampler) Ineligible(ctx context.Context) (func(word string) bool, error) {
	t, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return func(word string) bool { return !t.isPreposition(word, s.minShare) }, nil
}

// Replace returns a different preposition drawn by frequency, with the
// capitalization of word. Non-prepositions are returned unchanged.
func (s *Sampler) Replace(ctx context.Context, word string) (string, error) {
	t, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if !t.isPreposition(word, s.minShare) {
		return word, nil
	}

	replacement, err := sampler.WeightedPick(s.r, t.ranges, strings.ToLower(word))
	if err != nil {
		return word, fmt.Errorf("failed to replace preposition %q: %w", word, err)
	}
	return textnorm.MatchCase(word, replacement), nil
}
