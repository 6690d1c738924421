// internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/config"
	"github.com/xkilldash9x/errsynth/internal/mocks"
	"github.com/xkilldash9x/errsynth/internal/morph"
	"github.com/xkilldash9x/errsynth/internal/sampler"
	"github.com/xkilldash9x/errsynth/internal/sampler/samplertest"
	"github.com/xkilldash9x/errsynth/internal/textnorm"
)

// -- Test Doubles --

type fakeParonyms struct {
	fn func(word string) (string, error)
}

func (f *fakeParonyms) Generate(_ context.Context, word string) (string, error) {
	return f.fn(word)
}

type fakePrepositions struct {
	known map[string]string
	err   error
}

func (f *fakePrepositions) Ineligible(context.Context) (func(string) bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	return func(w string) bool {
		_, ok := f.known[strings.ToLower(w)]
		return !ok
	}, nil
}

func (f *fakePrepositions) Replace(_ context.Context, word string) (string, error) {
	if r, ok := f.known[strings.ToLower(word)]; ok {
		return textnorm.MatchCase(word, r), nil
	}
	return word, nil
}

// -- Test Setup Helper --

type fixture struct {
	engine *Engine
	svc    *mocks.MockMorphologyService
	logs   *observer.ObservedLogs
}

func baseConfig() config.EngineConfig {
	return config.EngineConfig{
		Mode:                config.ModeComposite,
		MaxMutationAttempts: 3,
		MorphDensity:        5,
	}
}

func setupEngine(t *testing.T, cfg config.EngineConfig, r sampler.Rand, paronyms ParonymGenerator, prepositions PrepositionSampler) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	svc := new(mocks.MockMorphologyService)

	e, err := New(cfg, Dependencies{
		Morphology:   svc,
		Mutator:      morph.NewMutator(svc, r, logger, morph.WithMaxAttempts(cfg.MaxMutationAttempts)),
		Paronyms:     paronyms,
		Prepositions: prepositions,
		Rand:         r,
	}, logger)
	require.NoError(t, err)
	return &fixture{engine: e, svc: svc, logs: logs}
}

func upper(_ context.Context, word string) (string, error) {
	return strings.ToUpper(word), nil
}

// -- Test Cases: Construction --

func TestNew_RequiresCollaborators(t *testing.T) {
	svc := new(mocks.MockMorphologyService)
	_, err := New(baseConfig(), Dependencies{Mutator: morph.NewMutator(svc, sampler.Global(), zap.NewNop())}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(baseConfig(), Dependencies{Morphology: svc}, zap.NewNop())
	assert.Error(t, err)

	cfg := baseConfig()
	cfg.MorphDensity = 0
	e, err := New(cfg, Dependencies{Morphology: svc, Mutator: morph.NewMutator(svc, sampler.Global(), zap.NewNop())}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, defaultMorphDensity, e.cfg.MorphDensity)
	assert.NotNil(t, e.rand)
}

// -- Test Cases: RunErrorPass --

func TestRunErrorPass_SingleMutation(t *testing.T) {
	// Error rate 0 draws exactly one position: one Float64, one IntN.
	r := samplertest.New([]float64{0}, []int{1})
	f := setupEngine(t, baseConfig(), r, nil, nil)

	res, err := f.engine.RunErrorPass(context.Background(), "Мама  мыла раму.", textnorm.LessThan3RussianLetters, upper, schemas.KindOrthographicTypo)
	require.NoError(t, err)

	assert.Equal(t, "Мама мыла раму .", res.CorrectText)
	assert.Equal(t, "Мама МЫЛА раму .", res.TextWithError)
	assert.Equal(t, []schemas.ErrorAnnotation{
		{Type: schemas.KindOrthographicTypo, WordNumber: 1, CorrectReplacement: "мыла"},
	}, res.Errors)
}

func TestRunErrorPass_RepeatedPositionAppliesMutatorOnItsOwnOutput(t *testing.T) {
	cfg := baseConfig()
	cfg.ErrorRate = 0.25 // 4 tokens: 1 + floor(1) = 2 positions, no tail at u=0.
	r := samplertest.New([]float64{0}, []int{0, 0})
	f := setupEngine(t, cfg, r, nil, nil)

	var calls []string
	appendX := func(_ context.Context, word string) (string, error) {
		calls = append(calls, word)
		return word + "х", nil
	}

	res, err := f.engine.RunErrorPass(context.Background(), "Мама мыла раму.", textnorm.LessThan3RussianLetters, appendX, schemas.KindParonym)
	require.NoError(t, err)

	assert.Equal(t, []string{"Мама", "Мамах"}, calls)
	assert.Equal(t, "Мамахх мыла раму .", res.TextWithError)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 0, res.Errors[0].WordNumber)
	assert.Equal(t, "Мама", res.Errors[0].CorrectReplacement)
}

func TestRunErrorPass_AnnotationsInWordOrder(t *testing.T) {
	cfg := baseConfig()
	cfg.ErrorRate = 0.5 // 4 tokens: 3 positions.
	r := samplertest.New([]float64{0}, []int{2, 0, 1})
	f := setupEngine(t, cfg, r, nil, nil)

	res, err := f.engine.RunErrorPass(context.Background(), "Мама мыла раму.", textnorm.LessThan3RussianLetters, upper, schemas.KindOrthographicTypo)
	require.NoError(t, err)

	require.Len(t, res.Errors, 3)
	for i, a := range res.Errors {
		assert.Equal(t, i, a.WordNumber)
	}
	assert.Equal(t, "МАМА МЫЛА РАМУ .", res.TextWithError)
}

func TestRunErrorPass_UnchangedOrInvalidResultsAreNotAnnotated(t *testing.T) {
	tests := []struct {
		name   string
		mutate MutateFunc
	}{
		{"identity", func(_ context.Context, w string) (string, error) { return w, nil }},
		{"empty", func(context.Context, string) (string, error) { return "", nil }},
		{"two tokens", func(_ context.Context, w string) (string, error) { return w + " " + w, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := samplertest.New([]float64{0}, []int{0})
			f := setupEngine(t, baseConfig(), r, nil, nil)

			res, err := f.engine.RunErrorPass(context.Background(), "Мама мыла раму", nil, tt.mutate, schemas.KindParonym)
			require.NoError(t, err)
			assert.Empty(t, res.Errors)
			assert.Equal(t, res.CorrectText, res.TextWithError)
			assert.Len(t, textnorm.Tokenize(res.TextWithError), 3)
		})
	}
}

func TestRunErrorPass_MutatorErrorAborts(t *testing.T) {
	r := samplertest.New([]float64{0}, []int{1})
	f := setupEngine(t, baseConfig(), r, nil, nil)
	boom := errors.New("service down")

	_, err := f.engine.RunErrorPass(context.Background(), "Мама мыла раму", nil, func(context.Context, string) (string, error) {
		return "", boom
	}, schemas.KindParonym)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "word 1")
}

func TestRunErrorPass_NothingEligible(t *testing.T) {
	f := setupEngine(t, baseConfig(), samplertest.New(nil, nil), nil, nil)

	res, err := f.engine.RunErrorPass(context.Background(), "a b , c", textnorm.LessThan3RussianLetters, upper, schemas.KindParonym)
	assert.ErrorIs(t, err, sampler.ErrEmptyDomain)
	assert.Equal(t, "a b , c", res.TextWithError)
}

func TestRunErrorPass_CancelledContext(t *testing.T) {
	f := setupEngine(t, baseConfig(), samplertest.New([]float64{0}, []int{0}), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.RunErrorPass(ctx, "Мама мыла раму", nil, upper, schemas.KindParonym)
	assert.ErrorIs(t, err, context.Canceled)
}

// -- Test Cases: InjectManyMorphErrors --

func sentenceAnalysis() schemas.SentenceFeatures {
	return schemas.SentenceFeatures{Tokens: []schemas.WordFeatures{
		{Word: "Кошка", POS: "NOUN", Lemma: "кошка", Features: map[string]string{"Case": "Nom", "Number": "Sing"}},
		{Word: "видит", POS: "VERB", Lemma: "видеть", Features: map[string]string{"Tense": "Pres", "Number": "Sing", "Person": "3"}},
		{Word: "собаку", POS: "NOUN", Lemma: "собака", Features: map[string]string{"Case": "Acc", "Number": "Sing"}},
		{Word: "и", POS: "CCONJ", Lemma: "и", Features: map[string]string{}},
		{Word: "птицу", POS: "NOUN", Lemma: "птица", Features: map[string]string{"Case": "Acc", "Number": "Sing"}},
	}}
}

func TestInjectManyMorphErrors_MutatesEligibleWord(t *testing.T) {
	// Kind 0 is Case; Case fits indices 0, 2 and 4; pick the second of them.
	r := samplertest.New(nil, []int{0, 1, 0})
	f := setupEngine(t, baseConfig(), r, nil, nil)
	text := "Кошка видит собаку и птицу"

	f.svc.On("FeaturesInSentence", mock.Anything, text).Return(sentenceAnalysis(), nil).Once()
	f.svc.On("Inflect", mock.Anything, mocks.InflectFor("собака", "Case")).
		Return(schemas.InflectResult{Inflected: "собаке", Success: true}, nil).Once()

	item, err := f.engine.InjectManyMorphErrors(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, "Кошка видит собаке и птицу", item.Text)
	assert.Equal(t, []schemas.ErrorAnnotation{
		{Type: schemas.KindMorphological, WordNumber: 2, CorrectReplacement: "собаку"},
	}, item.Annotations)
	f.svc.AssertExpectations(t)
	f.svc.AssertNotCalled(t, "Lemma", mock.Anything, mock.Anything)
}

func TestInjectManyMorphErrors_ShortSentenceGetsNoTarget(t *testing.T) {
	f := setupEngine(t, baseConfig(), samplertest.New(nil, nil), nil, nil)
	f.svc.On("FeaturesInSentence", mock.Anything, "Кошка видит собаку").
		Return(schemas.SentenceFeatures{}, nil).Once()

	item, err := f.engine.InjectManyMorphErrors(context.Background(), "Кошка видит собаку")
	require.NoError(t, err)
	assert.Equal(t, "Кошка видит собаку", item.Text)
	assert.Empty(t, item.Annotations)
	f.svc.AssertNotCalled(t, "Inflect", mock.Anything, mock.Anything)
}

func TestInjectManyMorphErrors_AnalysisFailureFails(t *testing.T) {
	f := setupEngine(t, baseConfig(), samplertest.New(nil, nil), nil, nil)
	boom := errors.New("analyzer unavailable")
	f.svc.On("FeaturesInSentence", mock.Anything, mock.Anything).Return(schemas.SentenceFeatures{}, boom)

	_, err := f.engine.InjectManyMorphErrors(context.Background(), "Кошка видит собаку и птицу")
	assert.ErrorIs(t, err, boom)
}

func TestInjectManyMorphErrors_FailedMutationIsSkipped(t *testing.T) {
	r := samplertest.New(nil, []int{0, 1, 0})
	f := setupEngine(t, baseConfig(), r, nil, nil)
	text := "Кошка видит собаку и птицу"

	f.svc.On("FeaturesInSentence", mock.Anything, text).Return(sentenceAnalysis(), nil)
	f.svc.On("Inflect", mock.Anything, mock.Anything).Return(schemas.InflectResult{Success: false}, nil)

	item, err := f.engine.InjectManyMorphErrors(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, text, item.Text)
	assert.Empty(t, item.Annotations)
	f.svc.AssertNumberOfCalls(t, "Inflect", 3)
	assert.Equal(t, 1, f.logs.FilterMessage("Morphological mutation failed").Len())
}

func TestInjectManyMorphErrors_DuplicateIndexFirstKindWins(t *testing.T) {
	cfg := baseConfig()
	cfg.MorphDensity = 2 // 5 words: two samples.
	// Case lands on index 2 (second of 0, 2, 4), then Number lands on index 2
	// again (third of 0, 1, 2, 4).
	r := samplertest.New(nil, []int{0, 1, 2, 2, 0})
	f := setupEngine(t, cfg, r, nil, nil)
	text := "Кошка видит собаку и птицу"

	f.svc.On("FeaturesInSentence", mock.Anything, text).Return(sentenceAnalysis(), nil)
	f.svc.On("Inflect", mock.Anything, mocks.InflectFor("собака", "Case")).
		Return(schemas.InflectResult{Inflected: "собакой", Success: true}, nil).Once()

	item, err := f.engine.InjectManyMorphErrors(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, item.Annotations, 1)
	assert.Equal(t, 2, item.Annotations[0].WordNumber)
	assert.Equal(t, "Кошка видит собакой и птицу", item.Text)
	f.svc.AssertExpectations(t)
}

func TestAlignTokens(t *testing.T) {
	words := []string{"Привет", ",", "мир", "!"}
	tokens := []schemas.WordFeatures{
		{Word: "привет", POS: "INTJ"},
		{Word: ",", POS: "PUNCT"},
		{Word: "лишний", POS: "X"},
		{Word: "Мир", POS: "NOUN"},
	}

	aligned := alignTokens(words, tokens)
	require.Len(t, aligned, 4)
	assert.Equal(t, "INTJ", aligned[0].POS)
	assert.Equal(t, "PUNCT", aligned[1].POS)
	assert.Equal(t, "NOUN", aligned[2].POS)
	assert.Nil(t, aligned[3])
}

// -- Test Cases: GenerateDifferentErrors --

func TestGenerateDifferentErrors_StagesNeverShareAnIndex(t *testing.T) {
	cfg := baseConfig()
	cfg.MorphProbability = 0
	cfg.ParonymProbability = 1
	cfg.TypoProbability = 1
	cfg.TypoModeProbability = 1
	text := "Старый дом стоял возле тихой реки."

	for seed := uint64(1); seed <= 50; seed++ {
		paronyms := &fakeParonyms{fn: func(w string) (string, error) { return w + "ье", nil }}
		f := setupEngine(t, cfg, sampler.NewLocked(seed), paronyms, nil)

		item, err := f.engine.GenerateDifferentErrors(context.Background(), text)
		require.NoError(t, err)

		original := textnorm.Tokenize(textnorm.Normalize(text))
		final := textnorm.Tokenize(item.Text)
		require.Len(t, final, len(original))
		require.Len(t, item.Annotations, 2, "seed %d", seed)
		assert.Equal(t, schemas.KindParonym, item.Annotations[0].Type)
		assert.Equal(t, schemas.KindOrthographicTypo, item.Annotations[1].Type)
		assert.NotEqual(t, item.Annotations[0].WordNumber, item.Annotations[1].WordNumber, "seed %d", seed)
		for _, a := range item.Annotations {
			assert.Equal(t, original[a.WordNumber], a.CorrectReplacement)
			assert.NotEqual(t, original[a.WordNumber], final[a.WordNumber])
		}
	}
}

func TestGenerateDifferentErrors_ComposesAllStages(t *testing.T) {
	cfg := baseConfig()
	cfg.MorphProbability = 1
	cfg.ParonymProbability = 1
	cfg.TypoProbability = 1
	cfg.TypoModeProbability = 0
	// Many-morph: Case on index 0. Inflect value draw. Paronym: count, then
	// index 1 among the remaining words. Consonant: count, then the only
	// eligible word left, then its only cluster.
	r := samplertest.New([]float64{0}, []int{0, 0, 0, 0, 0, 0})
	paronyms := &fakeParonyms{fn: func(w string) (string, error) {
		if w == "видит" {
			return "видет", nil
		}
		return w, nil
	}}
	f := setupEngine(t, cfg, r, paronyms, nil)
	text := "Кошка видит собаку и дуб"

	f.svc.On("FeaturesInSentence", mock.Anything, text).Return(schemas.SentenceFeatures{Tokens: []schemas.WordFeatures{
		{Word: "Кошка", POS: "NOUN", Lemma: "кошка", Features: map[string]string{"Case": "Nom"}},
		{Word: "видит", POS: "VERB", Lemma: "видеть", Features: map[string]string{"Tense": "Pres"}},
		{Word: "собаку", POS: "NOUN", Lemma: "собака", Features: map[string]string{"Case": "Acc"}},
		{Word: "и", POS: "CCONJ", Lemma: "и"},
		{Word: "дуб", POS: "NOUN", Lemma: "дуб", Features: map[string]string{"Case": "Nom"}},
	}}, nil)
	f.svc.On("Inflect", mock.Anything, mocks.InflectFor("кошка", "Case")).
		Return(schemas.InflectResult{Inflected: "кошки", Success: true}, nil)

	item, err := f.engine.GenerateDifferentErrors(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, "Кошки видет собаку и дуп", item.Text)
	assert.Equal(t, []schemas.ErrorAnnotation{
		{Type: schemas.KindMorphological, WordNumber: 0, CorrectReplacement: "Кошка"},
		{Type: schemas.KindParonym, WordNumber: 1, CorrectReplacement: "видит"},
		{Type: schemas.KindPairedConsonant, WordNumber: 4, CorrectReplacement: "дуб"},
	}, item.Annotations)
}

func TestGenerateDifferentErrors_ParonymFailureSkipsStage(t *testing.T) {
	cfg := baseConfig()
	cfg.ParonymProbability = 1
	cfg.TypoProbability = 1
	cfg.TypoModeProbability = 1
	paronyms := &fakeParonyms{fn: func(string) (string, error) { return "", errors.New("inflection service down") }}
	f := setupEngine(t, cfg, sampler.NewLocked(7), paronyms, nil)

	item, err := f.engine.GenerateDifferentErrors(context.Background(), "Старый дом стоял")
	require.NoError(t, err)

	require.Len(t, item.Annotations, 1)
	assert.Equal(t, schemas.KindOrthographicTypo, item.Annotations[0].Type)
	assert.Equal(t, 1, f.logs.FilterMessage("Skipping paronym stage").Len())
}

func TestGenerateDifferentErrors_EmptyDomainSkipsStage(t *testing.T) {
	cfg := baseConfig()
	cfg.ParonymProbability = 1
	cfg.TypoProbability = 1
	cfg.TypoModeProbability = 1
	paronyms := &fakeParonyms{fn: func(w string) (string, error) { return w + "ы", nil }}
	f := setupEngine(t, cfg, sampler.NewLocked(3), paronyms, nil)

	// No word has three Russian letters, so only the typo stage can act.
	item, err := f.engine.GenerateDifferentErrors(context.Background(), "Он и я")
	require.NoError(t, err)

	require.Len(t, item.Annotations, 1)
	assert.Equal(t, schemas.KindOrthographicTypo, item.Annotations[0].Type)
	logs := f.logs.FilterMessage("Skipping paronym stage").All()
	require.Len(t, logs, 1)
}

func TestGenerateDifferentErrors_MorphAnalysisFailureFailsItem(t *testing.T) {
	cfg := baseConfig()
	cfg.MorphProbability = 1
	f := setupEngine(t, cfg, sampler.NewLocked(1), nil, nil)
	boom := errors.New("analyzer down")
	f.svc.On("FeaturesInSentence", mock.Anything, mock.Anything).Return(schemas.SentenceFeatures{}, boom)

	_, err := f.engine.GenerateDifferentErrors(context.Background(), "Кошка видит собаку и птицу")
	assert.ErrorIs(t, err, boom)
}

func TestGenerateDifferentErrors_AllGatesClosed(t *testing.T) {
	f := setupEngine(t, baseConfig(), samplertest.New(nil, nil), &fakeParonyms{fn: func(w string) (string, error) { return w, nil }}, nil)

	item, err := f.engine.GenerateDifferentErrors(context.Background(), "Кошка  видит собаку!")
	require.NoError(t, err)
	assert.Equal(t, "Кошка видит собаку !", item.Text)
	assert.NotNil(t, item.Annotations)
	assert.Empty(t, item.Annotations)
}

// -- Test Cases: Generate Modes --

func TestGenerate_Modes(t *testing.T) {
	prepositions := &fakePrepositions{known: map[string]string{"в": "на"}}
	paronyms := &fakeParonyms{fn: func(w string) (string, error) { return w + "ый", nil }}

	t.Run("preposition", func(t *testing.T) {
		f := setupEngine(t, baseConfig(), samplertest.New([]float64{0}, []int{0}), paronyms, prepositions)
		item, err := f.engine.Generate(context.Background(), "В доме тепло", config.ModePreposition)
		require.NoError(t, err)
		assert.Equal(t, "На доме тепло", item.Text)
		assert.Equal(t, []schemas.ErrorAnnotation{{Type: schemas.KindPreposition, WordNumber: 0, CorrectReplacement: "В"}}, item.Annotations)
	})

	t.Run("consonant", func(t *testing.T) {
		f := setupEngine(t, baseConfig(), samplertest.New([]float64{0}, []int{0}), nil, nil)
		item, err := f.engine.Generate(context.Background(), "Дуб стоит", config.ModeConsonant)
		require.NoError(t, err)
		assert.Equal(t, "Дуп стоит", item.Text)
		assert.Equal(t, schemas.KindPairedConsonant, item.Annotations[0].Type)
	})

	t.Run("typo", func(t *testing.T) {
		f := setupEngine(t, baseConfig(), sampler.NewLocked(11), nil, nil)
		item, err := f.engine.Generate(context.Background(), "Дуб стоит", config.ModeTypo)
		require.NoError(t, err)
		require.Len(t, item.Annotations, 1)
		assert.Equal(t, schemas.KindOrthographicTypo, item.Annotations[0].Type)
		assert.NotEqual(t, "Дуб стоит", item.Text)
	})

	t.Run("paronym", func(t *testing.T) {
		f := setupEngine(t, baseConfig(), samplertest.New([]float64{0}, []int{1}), paronyms, nil)
		item, err := f.engine.Generate(context.Background(), "Дуб стоит", config.ModeParonym)
		require.NoError(t, err)
		assert.Equal(t, "Дуб стоитый", item.Text)
	})

	t.Run("morph", func(t *testing.T) {
		f := setupEngine(t, baseConfig(), samplertest.New([]float64{0}, []int{0}), nil, nil)
		f.svc.On("FeaturesInSentence", mock.Anything, "Дуб стоит").Return(schemas.SentenceFeatures{Tokens: []schemas.WordFeatures{
			{Word: "Дуб", POS: "NOUN", Lemma: "дуб", Features: map[string]string{"Case": "Nom"}},
			{Word: "стоит", POS: "VERB", Lemma: "стоять", Features: map[string]string{"Tense": "Pres"}},
		}}, nil)
		f.svc.On("Inflect", mock.Anything, mocks.InflectFor("дуб", "Case")).
			Return(schemas.InflectResult{Inflected: "дубом", Success: true}, nil)

		item, err := f.engine.Generate(context.Background(), "Дуб стоит", config.ModeMorph)
		require.NoError(t, err)
		assert.Equal(t, "Дубом стоит", item.Text)
		assert.Equal(t, schemas.KindMorphological, item.Annotations[0].Type)
	})

	t.Run("unknown", func(t *testing.T) {
		f := setupEngine(t, baseConfig(), sampler.Global(), nil, nil)
		_, err := f.engine.Generate(context.Background(), "Дуб стоит", "reverse")
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("missing generators", func(t *testing.T) {
		f := setupEngine(t, baseConfig(), sampler.Global(), nil, nil)
		_, err := f.engine.Generate(context.Background(), "Дуб стоит", config.ModeParonym)
		assert.ErrorIs(t, err, ErrUnavailable)
		_, err = f.engine.Generate(context.Background(), "Дуб стоит", config.ModePreposition)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("preposition table failure", func(t *testing.T) {
		boom := errors.New("db down")
		f := setupEngine(t, baseConfig(), sampler.Global(), nil, &fakePrepositions{err: boom})
		_, err := f.engine.Generate(context.Background(), "В доме", config.ModePreposition)
		assert.ErrorIs(t, err, boom)
	})
}
