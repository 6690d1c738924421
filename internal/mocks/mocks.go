// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/errsynth/api/schemas"
)

// -- Morphology Service Mock --

// MockMorphologyService mocks the schemas.MorphologyService interface.
type MockMorphologyService struct {
	mock.Mock
}

func (m *MockMorphologyService) Lemma(ctx context.Context, word string) (schemas.LemmaResult, error) {
	args := m.Called(ctx, word)
	return args.Get(0).(schemas.LemmaResult), args.Error(1)
}

func (m *MockMorphologyService) Features(ctx context.Context, word string) (schemas.WordFeatures, error) {
	args := m.Called(ctx, word)
	return args.Get(0).(schemas.WordFeatures), args.Error(1)
}

func (m *MockMorphologyService) FeaturesInSentence(ctx context.Context, sentence string) (schemas.SentenceFeatures, error) {
	args := m.Called(ctx, sentence)
	return args.Get(0).(schemas.SentenceFeatures), args.Error(1)
}

func (m *MockMorphologyService) Inflect(ctx context.Context, req schemas.InflectRequest) (schemas.InflectResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(schemas.InflectResult), args.Error(1)
}

func (m *MockMorphologyService) Similarity(ctx context.Context, word1, word2 string) (schemas.SimilarityResult, error) {
	args := m.Called(ctx, word1, word2)
	return args.Get(0).(schemas.SimilarityResult), args.Error(1)
}

// -- Sentence Splitter Mock --

// MockSentenceSplitter mocks the schemas.SentenceSplitter interface.
type MockSentenceSplitter struct {
	mock.Mock
}

func (m *MockSentenceSplitter) SplitSentences(ctx context.Context, text string) ([]string, error) {
	args := m.Called(ctx, text)
	var sentences []string
	if v := args.Get(0); v != nil {
		sentences = v.([]string)
	}
	return sentences, args.Error(1)
}

// -- Preposition Statistics Mock --

// MockPrepositionStats mocks the schemas.PrepositionStats interface.
type MockPrepositionStats struct {
	mock.Mock
}

func (m *MockPrepositionStats) PrepositionFrequencies(ctx context.Context) ([]schemas.PrepositionFrequency, error) {
	args := m.Called(ctx)
	var rows []schemas.PrepositionFrequency
	if v := args.Get(0); v != nil {
		rows = v.([]schemas.PrepositionFrequency)
	}
	return rows, args.Error(1)
}

// -- Helpers --

// InflectFor matches an InflectRequest that sets exactly one feature of lemma,
// whatever its value.
func InflectFor(lemma, feature string) interface{} {
	return mock.MatchedBy(func(req schemas.InflectRequest) bool {
		_, ok := req.Features[feature]
		return req.Lemma == lemma && ok && len(req.Features) == 1
	})
}

// InflectTo matches an InflectRequest that sets feature of lemma to value.
func InflectTo(lemma, feature, value string) interface{} {
	return mock.MatchedBy(func(req schemas.InflectRequest) bool {
		return req.Lemma == lemma && req.Features[feature] == value
	})
}
