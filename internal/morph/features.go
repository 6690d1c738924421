// internal/morph/features.go
package morph

import (
	"strings"
)

// Feature is a Universal Dependencies morphological feature name.
type Feature string

const (
	Animacy  Feature = "Animacy"
	Aspect   Feature = "Aspect"
	Case     Feature = "Case"
	Degree   Feature = "Degree"
	Gender   Feature = "Gender"
	Mood     Feature = "Mood"
	Number   Feature = "Number"
	Person   Feature = "Person"
	Tense    Feature = "Tense"
	VerbForm Feature = "VerbForm"
	Voice    Feature = "Voice"
	Proper   Feature = "Proper"
	NumType  Feature = "NumType"
	NumForm  Feature = "NumForm"
	Poss     Feature = "Poss"
	PronType Feature = "PronType"
	Reflex   Feature = "Reflex"
	Abbr     Feature = "Abbr"
	Typo     Feature = "Typo"
)

// domains holds the closed value set of every feature.
var domains = map[Feature][]string{
	Animacy:  {"Anim", "Inan"},
	Aspect:   {"Imp", "Perf"},
	Case:     {"Nom", "Gen", "Dat", "Acc", "Loc", "Ins", "Voc"},
	Degree:   {"Pos", "Cmp", "Sup"},
	Gender:   {"Masc", "Fem", "Neut"},
	Mood:     {"Ind", "Imp", "Cnd"},
	Number:   {"Sing", "Plur"},
	Person:   {"1", "2", "3"},
	Tense:    {"Past", "Pres", "Fut"},
	VerbForm: {"Fin", "Inf", "Part", "Trans"},
	Voice:    {"Act", "Pass", "Mid"},
	Proper:   {"Yes"},
	NumType:  {"Card", "Ord", "Frac", "Sets"},
	NumForm:  {"Digit", "Roman", "Word"},
	Poss:     {"Yes"},
	PronType: {"Prs", "Rel", "Int", "Dem", "Neg", "Tot"},
	Reflex:   {"Yes"},
	Abbr:     {"Yes"},
	Typo:     {"Yes"},
}

// Domain returns the closed value set of f, or nil for an unknown feature.
func Domain(f Feature) []string {
	return domains[f]
}

// POS is a Universal POS tag.
type POS string

const (
	Noun  POS = "NOUN"
	Verb  POS = "VERB"
	Adj   POS = "ADJ"
	Adv   POS = "ADV"
	Pron  POS = "PRON"
	Det   POS = "DET"
	Adp   POS = "ADP"
	CConj POS = "CCONJ"
	SConj POS = "SCONJ"
	Part  POS = "PART"
	Intj  POS = "INTJ"
	Num   POS = "NUM"
	Punct POS = "PUNCT"
	Sym   POS = "SYM"
	X     POS = "X"
	PropN POS = "PROPN"
)

// ParsePOS normalizes a tag returned by the analyzer.
func ParsePOS(s string) POS {
	return POS(strings.ToUpper(strings.TrimSpace(s)))
}

// mutableFeatures is the per-POS whitelist of features whose change yields a
// grammatical error rather than a different lexeme. Order is significant for
// deterministic sampling. Function words carry no entry.
var mutableFeatures = map[POS][]Feature{
	Noun:  {Case, Number},
	Verb:  {Tense, Number, Gender, Person, Mood, Aspect, Voice, VerbForm},
	Adj:   {Case, Number, Gender, Degree},
	Adv:   {Degree},
	Pron:  {Case, Number, Gender, Person},
	Det:   {Case, Number, Gender},
	Num:   {Case, Gender, Number},
	PropN: {Case, Number},
}

// MutableFeatures returns the whitelist for pos. Function-word tags return nil.
func MutableFeatures(pos POS) []Feature {
	return mutableFeatures[pos]
}

// HasMutable reports whether f is whitelisted for pos.
func HasMutable(pos POS, f Feature) bool {
	for _, candidate := range mutableFeatures[pos] {
		if candidate == f {
			return true
		}
	}
	return false
}

// ManyErrorFeatures are the kinds sampled when several morphological errors
// are injected into one sentence.
var ManyErrorFeatures = []Feature{Case, Gender, Number, Voice, Person, Tense}

// Candidates intersects the whitelist of pos with the features present on the
// word, keeping whitelist order.
func Candidates(pos POS, present map[string]string) []Feature {
	var out []Feature
	for _, f := range mutableFeatures[pos] {
		if _, ok := present[string(f)]; ok {
			out = append(out, f)
		}
	}
	return out
}
