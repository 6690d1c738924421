// internal/sampler/positions.go
package sampler

import (
	"fmt"
	"math"
	"strings"
)

// edgePunctuation is stripped from both ends of a word before the eligibility
// predicate sees it.
const edgePunctuation = ".,!?;:…"

// IndexSet is a set of word indices already claimed by an earlier stage.
type IndexSet map[int]struct{}

// Add marks i as reserved.
func (s IndexSet) Add(i int) { s[i] = struct{}{} }

// Has reports whether i is reserved. A nil set reserves nothing.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// StripPunctuation removes leading and trailing sentence punctuation.
func StripPunctuation(word string) string {
	return strings.Trim(word, edgePunctuation)
}

// PositionCount returns how many positions to draw for wordCount words at the
// given error rate: 1 + floor(rate*n) plus a geometric-like tail
// -floor(n*rate*log2(1-u)) for u in [0,1).
func PositionCount(wordCount int, errorRate, u float64) int {
	n := float64(wordCount)
	base := 1 + int(math.Floor(errorRate*n))
	extra := -int(math.Floor(n * errorRate * math.Log2(1-u)))
	return base + extra
}

// PickErrorPositions samples word indices to receive errors. Indices whose word
// (with edge punctuation stripped) satisfies isIneligible are never returned.
// Indices are drawn uniformly with replacement, so duplicates are possible and
// callers apply the mutation once per occurrence.
//
// Randomness is consumed in a fixed order: one Float64 for the tail of the
// count, then one IntN per drawn position.
func PickErrorPositions(r Rand, words []string, isIneligible func(string) bool, errorRate float64) ([]int, error) {
	return PickErrorPositionsExcluding(r, words, isIneligible, errorRate, nil)
}

// PickErrorPositionsExcluding is PickErrorPositions with an additional set of
// reserved indices that are treated as ineligible.
func PickErrorPositionsExcluding(r Rand, words []string, isIneligible func(string) bool, errorRate float64, reserved IndexSet) ([]int, error) {
	if errorRate < 0 || math.IsNaN(errorRate) || math.IsInf(errorRate, 0) {
		return nil, fmt.Errorf("%w: error rate %v", ErrInvalidCount, errorRate)
	}

	eligible := make([]int, 0, len(words))
	for i, w := range words {
		if reserved.Has(i) {
			continue
		}
		if isIneligible != nil && isIneligible(StripPunctuation(w)) {
			continue
		}
		eligible = append(eligible, i)
	}
	if len(eligible) == 0 {
		return nil, ErrEmptyDomain
	}

	count := PositionCount(len(words), errorRate, r.Float64())
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d positions", ErrInvalidCount, count)
	}

	positions := make([]int, count)
	for i := range positions {
		positions[i] = eligible[r.IntN(len(eligible))]
	}
	return positions, nil
}
