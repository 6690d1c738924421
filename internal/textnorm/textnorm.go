// internal/textnorm/textnorm.go
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// punctuation lists the marks that always stand as their own token.
const punctuation = ",.!?:;…"

var punctuationRe = regexp.MustCompile(`\s*([` + regexp.QuoteMeta(punctuation) + `])\s*`)

// Normalize canonicalizes a sentence so that word indices are stable: Unicode
// NFC, exactly one space on each side of every punctuation mark, whitespace
// runs collapsed to a single space, and no leading or trailing space.
// Normalize is idempotent.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = punctuationRe.ReplaceAllString(text, " $1 ")
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// Join is the inverse of Tokenize for normalized text.
func Join(words []string) string {
	return strings.Join(words, " ")
}

// IsPunctuation reports whether token consists solely of punctuation marks.
func IsPunctuation(token string) bool {
	if token == "" {
		return false
	}
	for _, ch := range token {
		if !strings.ContainsRune(punctuation, ch) {
			return false
		}
	}
	return true
}

// RussianLetterCount counts Cyrillic letters of the Russian alphabet, ё included.
func RussianLetterCount(word string) int {
	n := 0
	for _, ch := range word {
		lower := unicode.ToLower(ch)
		if (lower >= 'а' && lower <= 'я') || lower == 'ё' {
			n++
		}
	}
	return n
}

// LessThan3RussianLetters is the exclusion predicate for word-level
// substitutions that need a real word to work on.
func LessThan3RussianLetters(word string) bool {
	return RussianLetterCount(word) < 3
}

// IsSingleToken reports whether s is non-empty and contains no whitespace.
func IsSingleToken(s string) bool {
	return len(strings.Fields(s)) == 1 && strings.TrimSpace(s) == s
}

// MatchCase returns dst with its first letter upper-cased when the first
// letter of src is upper case. Other letters are left as they are.
func MatchCase(src, dst string) string {
	first, _ := utf8.DecodeRuneInString(src)
	if first == utf8.RuneError || !unicode.IsUpper(first) {
		return dst
	}
	r, size := utf8.DecodeRuneInString(dst)
	if r == utf8.RuneError {
		return dst
	}
	return string(unicode.ToUpper(r)) + dst[size:]
}
