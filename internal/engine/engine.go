package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/consonant"
	"github.com/xkilldash9x/errsynth/internal/interfaces"
	"github.com/xkilldash9x/errsynth/internal/morph"
	"github.com/xkilldash9x/errsynth/internal/sampler"
	"github.com/xkilldash9x/errsynth/internal/textnorm"
	"github.com/xkilldash9x/errsynth/internal/typo"
)

const defaultMorphDensity = 5

var (
	// ErrUnknownMode is returned by Generate for a mode it does not implement.
	ErrUnknownMode = errors.New("engine: unknown generation mode")
	// ErrUnavailable is returned when a mode needs a generator the engine was
	// built without.
	ErrUnavailable = errors.New("engine: generator not configured")
)

// -- Interfaces for Dependency Inversion --

// MutateFunc turns one word into its erroneous form.
type MutateFunc func(ctx context.Context, word string) (string, error)

// Mutator changes morphological features through the analyzer service.
type Mutator interface {
	Mutate(ctx context.Context, word string, opts morph.Options) (string, error)
	WordMutator(sentence string) func(ctx context.Context, word string) (string, error)
}

// ParonymGenerator swaps a word for a paronym of it.
type ParonymGenerator interface {
	Generate(ctx context.Context, word string) (string, error)
}

// PrepositionSampler swaps a preposition for another one by corpus frequency.
type PrepositionSampler interface {
	Ineligible(ctx context.Context) (func(string) bool, error)
	Replace(ctx context.Context, word string) (string, error)
}

// Dependencies are the collaborators of an Engine. Paronyms and Prepositions
// are optional; modes that need them fail with ErrUnavailable when missing.
type Dependencies struct {
	Morphology   interfaces.MorphologyService
	Mutator      Mutator
	Paronyms     ParonymGenerator
	Prepositions PrepositionSampler
	Rand         sampler.Rand
}

// Engine decides where errors go and composes the generators into annotated
// corpus items.
type Engine struct {
	cfg          config.EngineConfig
	svc          interfaces.MorphologyService
	mutator      Mutator
	paronyms     ParonymGenerator
	prepositions PrepositionSampler
	rand         sampler.Rand
	logger       *zap.Logger
}

// New creates an Engine.
func New(cfg config.EngineConfig, deps Dependencies, logger *zap.Logger) (*Engine, error) {
	if deps.Morphology == nil {
		return nil, fmt.Errorf("engine: morphology service is required")
	}
	if deps.Mutator == nil {
		return nil, fmt.Errorf("engine: mutator is required")
	}
	if deps.Rand == nil {
		deps.Rand = sampler.New(cfg.Seed)
	}
	if cfg.MorphDensity <= 0 {
		cfg.MorphDensity = defaultMorphDensity
	}
	return &Engine{
		cfg:          cfg,
		svc:          deps.Morphology,
		mutator:      deps.Mutator,
		paronyms:     deps.Paronyms,
		prepositions: deps.Prepositions,
		rand:         deps.Rand,
		logger:       logger.With(zap.String("component", "engine")),
	}, nil
}

// -- Single-Kind Pass --

// RunErrorPass normalizes text, samples positions whose word is not
// ineligible, and applies mutate once per sampled occurrence, each time on its
// own previous output. An annotation is recorded for every index whose surface
// form actually changed, in word order. A mutator error aborts the pass.
func (e *Engine) RunErrorPass(ctx context.Context, text string, isIneligible func(string) bool, mutate MutateFunc, kind schemas.ErrorKind) (schemas.TextWithErrors, error) {
	return e.runPass(ctx, text, isIneligible, mutate, kind, nil)
}

func (e *Engine) runPass(ctx context.Context, text string, isIneligible func(string) bool, mutate MutateFunc, kind schemas.ErrorKind, reserved sampler.IndexSet) (schemas.TextWithErrors, error) {
	normalized := textnorm.Normalize(text)
	words := textnorm.Tokenize(normalized)
	result := schemas.TextWithErrors{
		CorrectText:   normalized,
		TextWithError: normalized,
		Errors:        []schemas.ErrorAnnotation{},
	}

	positions, err := sampler.PickErrorPositionsExcluding(e.rand, words, isIneligible, e.cfg.ErrorRate, reserved)
	if err != nil {
		return result, fmt.Errorf("%s pass: %w", kind, err)
	}

	occurrences := make(map[int]int, len(positions))
	for _, p := range positions {
		occurrences[p]++
	}

	out := make([]string, len(words))
	copy(out, words)
	for _, idx := range sortedKeys(occurrences) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		form := words[idx]
		for i := 0; i < occurrences[idx]; i++ {
			next, err := mutate(ctx, form)
			if err != nil {
				return result, fmt.Errorf("%s pass: word %d (%q): %w", kind, idx, words[idx], err)
			}
			if !textnorm.IsSingleToken(next) {
				e.logger.Debug("Rejected mutation that changes the token count",
					zap.String("kind", string(kind)), zap.String("word", form), zap.String("result", next))
				continue
			}
			form = next
		}
		if form == words[idx] {
			continue
		}
		out[idx] = form
		result.Errors = append(result.Errors, schemas.ErrorAnnotation{
			Type:               kind,
			WordNumber:         idx,
			CorrectReplacement: words[idx],
		})
	}

	result.TextWithError = textnorm.Join(out)
	return result, nil
}

// -- Many Morphological Errors --

// InjectManyMorphErrors places roughly one morphological error per MorphDensity
// words. The sentence is analysed once; each sampled feature kind lands on a
// random word whose part of speech allows it. Words that cannot be mutated are
// logged and skipped. A failed sentence analysis fails the call.
func (e *Engine) InjectManyMorphErrors(ctx context.Context, text string) (schemas.CorpusItem, error) {
	normalized := textnorm.Normalize(text)
	words := textnorm.Tokenize(normalized)
	item := schemas.CorpusItem{Text: normalized, Annotations: []schemas.ErrorAnnotation{}}
	if len(words) == 0 {
		return item, nil
	}

	analysis, err := e.svc.FeaturesInSentence(ctx, normalized)
	if err != nil {
		return item, fmt.Errorf("engine: analyze sentence: %w", err)
	}
	aligned := alignTokens(words, analysis.Tokens)

	target := len(words) / e.cfg.MorphDensity
	chosen := make(map[int]morph.Feature, target)
	for i := 0; i < target; i++ {
		kind := morph.ManyErrorFeatures[e.rand.IntN(len(morph.ManyErrorFeatures))]
		var eligible []int
		for idx, a := range aligned {
			if a != nil && morph.HasMutable(morph.ParsePOS(a.POS), kind) {
				eligible = append(eligible, idx)
			}
		}
		if len(eligible) == 0 {
			continue
		}
		idx := eligible[e.rand.IntN(len(eligible))]
		if _, taken := chosen[idx]; !taken {
			chosen[idx] = kind
		}
	}

	out := make([]string, len(words))
	copy(out, words)
	for _, idx := range sortedKeys(chosen) {
		form, err := e.mutator.Mutate(ctx, words[idx], morph.Options{
			Feature:         chosen[idx],
			RequireDistinct: true,
			Sentence:        normalized,
			Analysis:        aligned[idx],
		})
		if err != nil {
			if ctx.Err() != nil {
				return item, ctx.Err()
			}
			e.logger.Debug("Morphological mutation failed",
				zap.String("word", words[idx]), zap.String("feature", string(chosen[idx])), zap.Error(err))
			continue
		}
		if form == words[idx] || !textnorm.IsSingleToken(form) {
			continue
		}
		out[idx] = form
		item.Annotations = append(item.Annotations, schemas.ErrorAnnotation{
			Type:               schemas.KindMorphological,
			WordNumber:         idx,
			CorrectReplacement: words[idx],
		})
	}

	item.Text = textnorm.Join(out)
	return item, nil
}

// alignTokens matches analyzer tokens to whitespace words in order, ignoring
// case. Words the analyzer split or merged differently get no analysis.
func alignTokens(words []string, tokens []schemas.WordFeatures) []*schemas.WordFeatures {
	aligned := make([]*schemas.WordFeatures, len(words))
	cursor := 0
	for i, w := range words {
		for j := cursor; j < len(tokens); j++ {
			if equalFoldToken(tokens[j].Word, w) {
				aligned[i] = &tokens[j]
				cursor = j + 1
				break
			}
		}
	}
	return aligned
}

// -- Cross-Kind Composition --

// GenerateDifferentErrors composes the morphological, paronym and typo stages
// behind independent Bernoulli gates. Each stage works on the previous stage's
// output and never touches an index an earlier stage annotated, so indices
// refer to the final text and are unique.
func (e *Engine) GenerateDifferentErrors(ctx context.Context, text string) (schemas.CorpusItem, error) {
	withMorph := sampler.Bernoulli(e.rand, e.cfg.MorphProbability)
	withTypo := sampler.Bernoulli(e.rand, e.cfg.TypoProbability)
	withParonym := sampler.Bernoulli(e.rand, e.cfg.ParonymProbability)

	item := schemas.CorpusItem{Text: textnorm.Normalize(text), Annotations: []schemas.ErrorAnnotation{}}
	reserved := sampler.IndexSet{}
	merge := func(annotations []schemas.ErrorAnnotation) {
		for _, a := range annotations {
			reserved.Add(a.WordNumber)
			item.Annotations = append(item.Annotations, a)
		}
	}

	if withMorph {
		res, err := e.InjectManyMorphErrors(ctx, item.Text)
		if err != nil {
			return item, err
		}
		item.Text = res.Text
		merge(res.Annotations)
	}

	if withParonym && e.paronyms != nil {
		res, err := e.runPass(ctx, item.Text, textnorm.LessThan3RussianLetters, e.paronyms.Generate, schemas.KindParonym, reserved)
		switch {
		case err == nil:
			item.Text = res.TextWithError
			merge(res.Errors)
		case ctx.Err() != nil:
			return item, ctx.Err()
		default:
			e.logger.Debug("Skipping paronym stage", zap.Error(err))
		}
	}

	if withTypo {
		mutate, ineligible, kind := e.typoStage(sampler.Bernoulli(e.rand, e.cfg.TypoModeProbability))
		res, err := e.runPass(ctx, item.Text, ineligible, mutate, kind, reserved)
		switch {
		case err == nil:
			item.Text = res.TextWithError
			merge(res.Errors)
		case ctx.Err() != nil:
			return item, ctx.Err()
		default:
			e.logger.Debug("Skipping typo stage", zap.String("kind", string(kind)), zap.Error(err))
		}
	}

	return item, nil
}

// typoStage returns the keyboard typo generator when keyboard is true and the
// paired-consonant generator otherwise.
func (e *Engine) typoStage(keyboard bool) (MutateFunc, func(string) bool, schemas.ErrorKind) {
	if keyboard {
		return e.typoMutator(), notTypable, schemas.KindOrthographicTypo
	}
	return e.consonantMutator(), consonant.CantMakeError, schemas.KindPairedConsonant
}

func (e *Engine) typoMutator() MutateFunc {
	return func(_ context.Context, word string) (string, error) {
		return typo.Typo(e.rand, word), nil
	}
}

func (e *Engine) consonantMutator() MutateFunc {
	return func(_ context.Context, word string) (string, error) {
		return consonant.Generate(e.rand, word), nil
	}
}

func notTypable(word string) bool { return !typo.Typable(word) }

func noRussianLetters(word string) bool { return textnorm.RussianLetterCount(word) == 0 }

// -- Modes --

// Generate produces one corpus item for text in the given mode.
func (e *Engine) Generate(ctx context.Context, text, mode string) (schemas.CorpusItem, error) {
	switch mode {
	case config.ModeComposite, "":
		return e.GenerateDifferentErrors(ctx, text)
	case config.ModeManyMorph:
		return e.InjectManyMorphErrors(ctx, text)
	case config.ModeMorph:
		sentence := textnorm.Normalize(text)
		return e.single(ctx, sentence, noRussianLetters, e.mutator.WordMutator(sentence), schemas.KindMorphological)
	case config.ModeTypo:
		return e.single(ctx, text, notTypable, e.typoMutator(), schemas.KindOrthographicTypo)
	case config.ModeConsonant:
		return e.single(ctx, text, consonant.CantMakeError, e.consonantMutator(), schemas.KindPairedConsonant)
	case config.ModeParonym:
		if e.paronyms == nil {
			return schemas.CorpusItem{}, fmt.Errorf("%w: paronym", ErrUnavailable)
		}
		return e.single(ctx, text, textnorm.LessThan3RussianLetters, e.paronyms.Generate, schemas.KindParonym)
	case config.ModePreposition:
		if e.prepositions == nil {
			return schemas.CorpusItem{}, fmt.Errorf("%w: preposition", ErrUnavailable)
		}
		ineligible, err := e.prepositions.Ineligible(ctx)
		if err != nil {
			return schemas.CorpusItem{}, fmt.Errorf("engine: load prepositions: %w", err)
		}
		return e.single(ctx, text, ineligible, e.prepositions.Replace, schemas.KindPreposition)
	default:
		return schemas.CorpusItem{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func (e *Engine) single(ctx context.Context, text string, isIneligible func(string) bool, mutate MutateFunc, kind schemas.ErrorKind) (schemas.CorpusItem, error) {
	res, err := e.RunErrorPass(ctx, text, isIneligible, mutate, kind)
	if err != nil {
		return schemas.CorpusItem{}, err
	}
	return res.Item(), nil
}

// -- Helpers --

func equalFoldToken(token, word string) bool {
	return strings.EqualFold(token, word) ||
		strings.EqualFold(sampler.StripPunctuation(token), sampler.StripPunctuation(word))
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
