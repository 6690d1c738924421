// internal/morph/mutator.go
package morph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/interfaces"
	"github.com/xkilldash9x/errsynth/internal/sampler"
	"github.com/xkilldash9x/errsynth/internal/textnorm"
)

// DefaultMaxAttempts bounds the inflection retry loop.
const DefaultMaxAttempts = 20

// ErrCouldNotMutate is wrapped by MutationError when the retry loop runs out.
var ErrCouldNotMutate = errors.New("morph: could not produce a mutated form")

// MutationError reports an exhausted retry loop for a word and feature.
type MutationError struct {
	Word     string
	Feature  Feature
	Attempts int
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("morph: no acceptable %s inflection of %q after %d attempts", e.Feature, e.Word, e.Attempts)
}

func (e *MutationError) Unwrap() error { return ErrCouldNotMutate }

// Options controls a single Mutate call.
type Options struct {
	// Feature restricts the mutation to one feature. Empty means sample one.
	Feature Feature
	// RequireDistinct keeps retrying until the surface form differs from the
	// original, ignoring case.
	RequireDistinct bool
	// Sentence gives the analyzer context for disambiguation.
	Sentence string
	// Analysis skips the analyzer call when the caller already holds the
	// word's analysis.
	Analysis *schemas.WordFeatures
}

// Mutator changes one morphological feature of a word through the external
// inflection service.
type Mutator struct {
	svc         interfaces.MorphologyService
	rand        sampler.Rand
	logger      *zap.Logger
	maxAttempts int
}

// Option configures a Mutator.
type Option func(*Mutator)

// WithMaxAttempts overrides DefaultMaxAttempts. Non-positive values are ignored.
func WithMaxAttempts(n int) Option {
	return func(m *Mutator) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// NewMutator builds a Mutator around the analyzer service.
func NewMutator(svc interfaces.MorphologyService, r sampler.Rand, logger *zap.Logger, opts ...Option) *Mutator {
	m := &Mutator{
		svc:         svc,
		rand:        r,
		logger:      logger.Named("morph"),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Analyze resolves the POS and features of word, preferring the analysis of
// the word inside sentence when one is given.
func (m *Mutator) Analyze(ctx context.Context, word, sentence string) (schemas.WordFeatures, error) {
	if sentence != "" {
		analysis, err := m.svc.FeaturesInSentence(ctx, sentence)
		if err != nil {
			return schemas.WordFeatures{}, fmt.Errorf("morph: analyze sentence: %w", err)
		}
		for _, tok := range analysis.Tokens {
			if strings.EqualFold(tok.Word, word) {
				return tok, nil
			}
		}
		m.logger.Debug("Word not found in sentence analysis, falling back to word lookup", zap.String("word", word))
	}

	features, err := m.svc.Features(ctx, word)
	if err != nil {
		return schemas.WordFeatures{}, fmt.Errorf("morph: analyze %q: %w", word, err)
	}
	return features, nil
}

// Mutate returns word with one whitelisted feature changed. It returns the
// word unchanged with a nil error when no whitelisted feature is present on the
// word or the requested feature is not applicable. A retry loop exhausted
// without an acceptable form yields a *MutationError; service failures are
// returned wrapped.
func (m *Mutator) Mutate(ctx context.Context, word string, opts Options) (string, error) {
	var analysis schemas.WordFeatures
	if opts.Analysis != nil {
		analysis = *opts.Analysis
	} else {
		var err error
		if analysis, err = m.Analyze(ctx, word, opts.Sentence); err != nil {
			return "", err
		}
	}

	candidates := Candidates(ParsePOS(analysis.POS), analysis.Features)
	var feature Feature
	switch {
	case opts.Feature != "":
		if !containsFeature(candidates, opts.Feature) {
			return word, nil
		}
		feature = opts.Feature
	case len(candidates) == 0:
		return word, nil
	default:
		feature = candidates[m.rand.IntN(len(candidates))]
	}

	lemma := analysis.Lemma
	if lemma == "" {
		res, err := m.svc.Lemma(ctx, word)
		if err != nil {
			return "", fmt.Errorf("morph: lemma of %q: %w", word, err)
		}
		lemma = res.Lemma
	}

	domain := Domain(feature)
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		value := domain[m.rand.IntN(len(domain))]
		res, err := m.svc.Inflect(ctx, schemas.InflectRequest{
			Lemma:    lemma,
			Features: map[string]string{string(feature): value},
		})
		if err != nil {
			return "", fmt.Errorf("morph: inflect %q: %w", lemma, err)
		}
		if !res.Success || !textnorm.IsSingleToken(res.Inflected) {
			continue
		}

		form := textnorm.MatchCase(word, res.Inflected)
		if !opts.RequireDistinct || !strings.EqualFold(form, word) {
			m.logger.Debug("Mutated word",
				zap.String("word", word),
				zap.String("form", form),
				zap.String("feature", string(feature)),
				zap.String("value", value),
				zap.Int("attempt", attempt),
			)
			return form, nil
		}
	}

	return "", &MutationError{Word: word, Feature: feature, Attempts: m.maxAttempts}
}

// WordMutator returns a closure suited to single-kind passes: it mutates any
// whitelisted feature of the word with the sentence as context.
func (m *Mutator) WordMutator(sentence string) func(ctx context.Context, word string) (string, error) {
	return func(ctx context.Context, word string) (string, error) {
		return m.Mutate(ctx, word, Options{Sentence: sentence, RequireDistinct: true})
	}
}

func containsFeature(features []Feature, f Feature) bool {
	for _, candidate := range features {
		if candidate == f {
			return true
		}
	}
	return false
}
