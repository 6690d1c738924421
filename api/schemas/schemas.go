// api/schemas/schemas.go
package schemas

// -- Error Kinds --

// ErrorKind identifies which generator produced an annotated error.
type ErrorKind string

const (
	KindOrthographicTypo ErrorKind = "orthographic-typo"
	KindPairedConsonant  ErrorKind = "paired-consonant"
	KindMorphological    ErrorKind = "morphological"
	KindParonym          ErrorKind = "paronym"
	KindPreposition      ErrorKind = "preposition"
)

// AllErrorKinds lists every kind in a stable order, used for statistics output.
var AllErrorKinds = []ErrorKind{
	KindOrthographicTypo,
	KindPairedConsonant,
	KindMorphological,
	KindParonym,
	KindPreposition,
}

// Valid reports whether k is one of the known kinds.
func (k ErrorKind) Valid() bool {
	for _, known := range AllErrorKinds {
		if k == known {
			return true
		}
	}
	return false
}

// -- Corpus Records --

// ErrorAnnotation describes one injected error. WordNumber indexes the
// whitespace-split tokens of the normalized sentence; CorrectReplacement holds
// the surface form before mutation.
type ErrorAnnotation struct {
	Type               ErrorKind `json:"type"`
	WordNumber         int       `json:"wordNumber"`
	CorrectReplacement string    `json:"correctReplacement"`
}

// CorpusItem is the persisted unit of the synthesized corpus.
type CorpusItem struct {
	Text        string            `json:"text"`
	Annotations []ErrorAnnotation `json:"annotations"`
}

// TextWithErrors is the result of a single-kind error pass.
type TextWithErrors struct {
	CorrectText   string            `json:"correctText"`
	TextWithError string            `json:"textWithError"`
	Errors        []ErrorAnnotation `json:"errors"`
}

// Item converts a single-kind pass result into a corpus record.
func (t TextWithErrors) Item() CorpusItem {
	annotations := t.Errors
	if annotations == nil {
		annotations = []ErrorAnnotation{}
	}
	return CorpusItem{Text: t.TextWithError, Annotations: annotations}
}

// -- Morphology Service Payloads --

// LemmaResult is the lemmatizer's answer for a single word.
type LemmaResult struct {
	Lemma string `json:"lemma"`
}

// WordFeatures is the morphological analysis of a single word.
// Features maps feature names such as "Case" to values such as "Nom".
type WordFeatures struct {
	Word     string            `json:"word"`
	POS      string            `json:"pos"`
	Lemma    string            `json:"lemma,omitempty"`
	Features map[string]string `json:"features"`
}

// SentenceFeatures is the per-token analysis of a whole sentence, in token order.
type SentenceFeatures struct {
	Tokens []WordFeatures `json:"tokens"`
}

// InflectRequest asks the service to inflect a lemma into the given features.
type InflectRequest struct {
	Lemma    string            `json:"lemma"`
	Features map[string]string `json:"features,omitempty"`
}

// InflectResult is the service's answer to an InflectRequest. Success=false is
// a recoverable outcome, not a transport failure.
type InflectResult struct {
	Lemma             string            `json:"lemma"`
	Inflected         string            `json:"inflected"`
	RequestedFeatures map[string]string `json:"requested_features"`
	NormalForm        string            `json:"normal_form"`
	Tag               string            `json:"tag"`
	Success           bool              `json:"success"`
}

// SimilarityResult is the semantic similarity of two words in [-1, 1].
type SimilarityResult struct {
	Similarity float64 `json:"similarity"`
}

// -- Preposition Statistics --

// PrepositionFrequency is one row of the aggregated preposition usage table.
type PrepositionFrequency struct {
	Preposition string  `json:"preposition"`
	Count       int64   `json:"count"`
	Percentage  float64 `json:"percentage"`
}

// PrepositionUsage is one observed governor/preposition/dependent triple.
type PrepositionUsage struct {
	ID               int64   `json:"id"`
	MainWord         string  `json:"mainWord"`
	MainLemma        string  `json:"mainLemma"`
	Preposition      *string `json:"preposition,omitempty"`
	DepWord          *string `json:"depWord,omitempty"`
	DepLemma         *string `json:"depLemma,omitempty"`
	DepCase          *string `json:"depCase,omitempty"`
	Context          *string `json:"context,omitempty"`
	Source           *int64  `json:"source,omitempty"`
	MainPartOfSpeech string  `json:"mainPartOfSpeech"`
}
