// internal/consonant/consonant.go
package consonant

import (
	"unicode"

	"github.com/xkilldash9x/errsynth/internal/sampler"
)

// MinLetters is the shortest word, in letters, considered for a voicing error.
const MinLetters = 3

var (
	voicedToVoiceless = map[rune]rune{
		'б': 'п', 'в': 'ф', 'г': 'к', 'д': 'т', 'ж': 'ш', 'з': 'с',
	}
	voicelessToVoiced = map[rune]rune{
		'п': 'б', 'ф': 'в', 'к': 'г', 'т': 'д', 'ш': 'ж', 'с': 'з',
	}
	// unpairedVoiceless also trigger devoicing of a preceding voiced consonant.
	unpairedVoiceless = map[rune]bool{'ц': true, 'х': true, 'ч': true, 'щ': true}
	// signs are transparent to assimilation.
	signs = map[rune]bool{'ъ': true, 'ь': true}
)

// nextRelevant returns the index of the first character after i that is not a
// hard or soft sign, or -1 at the end of the word.
func nextRelevant(runes []rune, i int) int {
	for j := i + 1; j < len(runes); j++ {
		if !signs[unicode.ToLower(runes[j])] {
			return j
		}
	}
	return -1
}

func isVoiceless(ch rune) bool {
	_, paired := voicelessToVoiced[ch]
	return paired || unpairedVoiceless[ch]
}

// isSite reports whether the consonant at i is a position where assimilation
// makes the spelling diverge from the pronunciation. Runs of same-class
// paired consonants defer to the last member of the run.
func isSite(runes []rune, i int) bool {
	ch := unicode.ToLower(runes[i])
	if _, ok := voicedToVoiceless[ch]; ok {
		for {
			next := nextRelevant(runes, i)
			if next < 0 {
				return true
			}
			n := unicode.ToLower(runes[next])
			if isVoiceless(n) {
				return true
			}
			if _, ok := voicedToVoiceless[n]; !ok {
				return false
			}
			i = next
		}
	}
	if _, ok := voicelessToVoiced[ch]; ok {
		for {
			next := nextRelevant(runes, i)
			if next < 0 {
				return false
			}
			n := unicode.ToLower(runes[next])
			if _, ok := voicedToVoiceless[n]; ok {
				return true
			}
			if _, ok := voicelessToVoiced[n]; !ok {
				return false
			}
			i = next
		}
	}
	return false
}

func letterCount(runes []rune) int {
	n := 0
	for _, ch := range runes {
		if unicode.IsLetter(ch) {
			n++
		}
	}
	return n
}

// Clusters returns the assimilation sites of word grouped into maximal runs of
// consecutive rune indices. Words shorter than MinLetters letters have none.
func Clusters(word string) [][]int {
	runes := []rune(word)
	if letterCount(runes) < MinLetters {
		return nil
	}

	var clusters [][]int
	var current []int
	for i := range runes {
		if !isSite(runes, i) {
			continue
		}
		if len(current) > 0 && current[len(current)-1] != i-1 {
			clusters = append(clusters, current)
			current = nil
		}
		current = append(current, i)
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

// IsEligible reports whether word contains at least one assimilation site.
func IsEligible(word string) bool {
	return len(Clusters(word)) > 0
}

// CantMakeError is the negation of IsEligible, shaped as an exclusion predicate.
func CantMakeError(word string) bool {
	return !IsEligible(word)
}

// Counterpart returns the voicing partner of a paired consonant, keeping case.
func Counterpart(ch rune) (rune, bool) {
	lower := unicode.ToLower(ch)
	partner, ok := voicedToVoiceless[lower]
	if !ok {
		partner, ok = voicelessToVoiced[lower]
	}
	if !ok {
		return ch, false
	}
	if unicode.IsUpper(ch) {
		partner = unicode.ToUpper(partner)
	}
	return partner, true
}

// Generate swaps every consonant of one uniformly chosen cluster for its
// voicing partner. Ineligible words are returned unchanged.
func Generate(r sampler.Rand, word string) string {
	clusters := Clusters(word)
	if len(clusters) == 0 {
		return word
	}
	runes := []rune(word)
	for _, i := range clusters[r.IntN(len(clusters))] {
		if partner, ok := Counterpart(runes[i]); ok {
			runes[i] = partner
		}
	}
	return string(runes)
}
