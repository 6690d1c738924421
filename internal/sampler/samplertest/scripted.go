// internal/sampler/samplertest/scripted.go
// Package samplertest provides deterministic sampler.Rand implementations for tests.
package samplertest

import (
	"sync"
)

// Scripted replays fixed sequences. Floats feeds Float64 and Ints feeds IntN;
// each sequence cycles when exhausted. IntN results are reduced modulo n so a
// script written for one domain size stays valid. An empty Floats sequence
// yields 0 and an empty Ints sequence yields 0.
type Scripted struct {
	mu     sync.Mutex
	Floats []float64
	Ints   []int
	fi, ii int
}

// New returns a Scripted source.
func New(floats []float64, ints []int) *Scripted {
	return &Scripted{Floats: floats, Ints: ints}
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

func (s *Scripted) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		panic("samplertest: IntN called with non-positive n")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Calls returns how many Float64 and IntN draws have been made.
func (s *Scripted) Calls() (floats, ints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fi, s.ii
}
