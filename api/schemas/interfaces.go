// api/schemas/interfaces.go
package schemas

import "context"

// MorphologyService is the contract of the external morphological analyzer.
// Every call may block on the network and honours ctx cancellation.
type MorphologyService interface {
	Lemma(ctx context.Context, word string) (LemmaResult, error)
	Features(ctx context.Context, word string) (WordFeatures, error)
	FeaturesInSentence(ctx context.Context, sentence string) (SentenceFeatures, error)
	Inflect(ctx context.Context, req InflectRequest) (InflectResult, error)
	Similarity(ctx context.Context, word1, word2 string) (SimilarityResult, error)
}

// SentenceSplitter breaks raw text into sentences.
type SentenceSplitter interface {
	SplitSentences(ctx context.Context, text string) ([]string, error)
}

// PrepositionStats provides the aggregated preposition frequency table.
type PrepositionStats interface {
	PrepositionFrequencies(ctx context.Context) ([]PrepositionFrequency, error)
}

// UsageStore persists observed preposition usages and serves their statistics.
type UsageStore interface {
	PrepositionStats
	SaveUsages(ctx context.Context, usages []PrepositionUsage) (int64, error)
}
