// internal/sampler/weighted.go
package sampler

import (
	"fmt"
)

// MaxRedraws bounds the exclusion redraw loop of WeightedPick.
const MaxRedraws = 1000

// Range maps the half-open interval [From, To) of [0,1) to Value.
type Range[T comparable] struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Value T       `json:"value"`
}

// Weighted pairs a value with a non-negative weight.
type Weighted[T comparable] struct {
	Value  T
	Weight float64
}

// CumulativeTable turns weights into ranges that partition [0,1) in input
// order. Zero weights produce empty ranges that can never be drawn. The last
// range is closed at exactly 1 so rounding never leaves a gap.
func CumulativeTable[T comparable](weights []Weighted[T]) ([]Range[T], error) {
	var total float64
	for _, w := range weights {
		if w.Weight < 0 {
			return nil, fmt.Errorf("sampler: negative weight %v for %v", w.Weight, w.Value)
		}
		total += w.Weight
	}
	if total == 0 {
		return nil, ErrEmptyDomain
	}

	table := make([]Range[T], 0, len(weights))
	var acc float64
	for _, w := range weights {
		from := acc
		acc += w.Weight / total
		table = append(table, Range[T]{From: from, To: acc, Value: w.Value})
	}
	for i := len(table) - 1; i >= 0; i-- {
		if table[i].To > table[i].From {
			table[i].To = 1
			break
		}
	}
	return table, nil
}

// lookup returns the value whose range contains u.
func lookup[T comparable](table []Range[T], u float64) (T, bool) {
	for _, rg := range table {
		if u >= rg.From && u < rg.To {
			return rg.Value, true
		}
	}
	var zero T
	return zero, false
}

// WeightedPick draws u in [0,1) and returns the value whose range contains it.
// A draw equal to exclude is discarded and redrawn. After MaxRedraws
// unsuccessful draws it returns ErrDegenerateDistribution.
func WeightedPick[T comparable](r Rand, table []Range[T], exclude T) (T, error) {
	var zero T
	if len(table) == 0 {
		return zero, ErrEmptyDomain
	}
	for attempt := 0; attempt < MaxRedraws; attempt++ {
		v, ok := lookup(table, r.Float64())
		if !ok || v == exclude {
			continue
		}
		return v, nil
	}
	return zero, fmt.Errorf("%w: excluded %v after %d draws", ErrDegenerateDistribution, exclude, MaxRedraws)
}
