// internal/sampler/sampler.go
package sampler

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// -- Errors --

var (
	// ErrEmptyDomain is returned when no item is eligible for selection.
	ErrEmptyDomain = errors.New("sampler: no eligible items to choose from")
	// ErrInvalidCount is returned when the requested sample size is not positive.
	ErrInvalidCount = errors.New("sampler: invalid sample count")
	// ErrDegenerateDistribution is returned when a weighted redraw loop cannot
	// produce a value different from the excluded one.
	ErrDegenerateDistribution = errors.New("sampler: distribution cannot produce a different value")
)

// -- Randomness Source --

// Rand is the single source of randomness for every generator. Tests inject
// deterministic implementations; *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// lockedRand serializes access to a seeded generator so one instance can be
// shared by concurrent batch workers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLocked returns a goroutine-safe Rand seeded deterministically from seed.
func NewLocked(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// Global returns a Rand backed by the auto-seeded top-level functions of
// math/rand/v2. It is safe for concurrent use.
func Global() Rand { return globalRand{} }

// New returns a locked, deterministic Rand for a non-zero seed and the global
// source otherwise.
func New(seed uint64) Rand {
	if seed == 0 {
		return Global()
	}
	return NewLocked(seed)
}

// -- Uniform Helpers --

// Pick returns a uniformly chosen element of items.
func Pick[T any](r Rand, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, ErrEmptyDomain
	}
	return items[r.IntN(len(items))], nil
}

// PickDistinct returns a uniformly chosen element of items that differs from
// current. The boolean is false when no such element exists.
func PickDistinct[T comparable](r Rand, items []T, current T) (T, bool) {
	others := make([]T, 0, len(items))
	for _, item := range items {
		if item != current {
			others = append(others, item)
		}
	}
	if len(others) == 0 {
		var zero T
		return zero, false
	}
	return others[r.IntN(len(others))], true
}

// Bernoulli returns true with probability p.
func Bernoulli(r Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}
