// internal/typo/typo.go
package typo

import (
	"unicode"

	"github.com/xkilldash9x/errsynth/internal/sampler"
)

// Probability thresholds for picking the replacement's distance from the
// original key.
const (
	Level1Threshold = 0.85
	Level2Threshold = 0.97
)

// Typable reports whether word has at least one character with a keyboard
// neighbourhood.
func Typable(word string) bool {
	for _, ch := range word {
		if _, ok := adjacency[unicode.ToLower(ch)]; ok {
			return true
		}
	}
	return false
}

// Typo replaces one randomly chosen typable character of word with a nearby
// key. The position is uniform over typable characters; the replacement comes
// from level1 with probability 0.85, level2 with 0.12 and other with 0.03. Case
// is preserved. A word with no typable character is returned unchanged.
func Typo(r sampler.Rand, word string) string {
	runes := []rune(word)
	candidates := make([]int, 0, len(runes))
	for i, ch := range runes {
		if _, ok := adjacency[unicode.ToLower(ch)]; ok {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return word
	}

	idx := candidates[r.IntN(len(candidates))]
	original := runes[idx]
	n := adjacency[unicode.ToLower(original)]

	var pool []rune
	switch u := r.Float64(); {
	case u < Level1Threshold:
		pool = firstNonEmpty(n.Level1, n.Level2, n.Other)
	case u < Level2Threshold:
		pool = firstNonEmpty(n.Level2, n.Level1, n.Other)
	default:
		pool = firstNonEmpty(n.Other, n.Level2, n.Level1)
	}
	if len(pool) == 0 {
		return word
	}

	replacement := pool[r.IntN(len(pool))]
	if unicode.IsUpper(original) {
		replacement = unicode.ToUpper(replacement)
	}
	runes[idx] = replacement
	return string(runes)
}

func firstNonEmpty(sets ...[]rune) []rune {
	for _, s := range sets {
		if len(s) > 0 {
			return s
		}
	}
	return nil
}
