// internal/paronym/paronym_test.go
package paronym

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/mocks"
	"github.com/xkilldash9x/errsynth/internal/sampler/samplertest"
)

var testGroups = [][]string{
	{"абонент", "абонемент"},
	{"адресат", "адресант"},
	{"дипломат", "дипломант", "дипломник"},
}

// -- Table --

func TestTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "paronyms.json")
	require.NoError(t, SaveGroups(path, testGroups))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  [\n    \"абонент\"", "groups are written with two-space indent")

	table := NewTable(path)
	group, ok, err := table.GroupOf("Адресант")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"адресат", "адресант"}, group)

	_, ok, err = table.GroupOf("стол")
	require.NoError(t, err)
	assert.False(t, ok)

	groups, err := table.Groups()
	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestTable_LoadFailureIsNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paronyms.json")
	table := NewTable(path)

	_, _, err := table.GroupOf("абонент")
	require.Error(t, err)

	require.NoError(t, SaveGroups(path, testGroups))
	_, ok, err := table.GroupOf("абонент")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoadGroups_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644))
	_, err := LoadGroups(path)
	assert.ErrorContains(t, err, "failed to parse")
}

// -- Generator --

func newGenerator(svc *mocks.MockMorphologyService, ints []int) *Generator {
	return NewGenerator(svc, NewTableFromGroups(testGroups), samplertest.New(nil, ints), zap.NewNop())
}

func TestIsParonym(t *testing.T) {
	svc := new(mocks.MockMorphologyService)
	svc.On("Lemma", mock.Anything, "абонентов").Return(schemas.LemmaResult{Lemma: "Абонент"}, nil)
	svc.On("Lemma", mock.Anything, "столом").Return(schemas.LemmaResult{Lemma: "стол"}, nil)
	g := newGenerator(svc, nil)

	ok, err := g.IsParonym(context.Background(), "абонентов")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsParonym(context.Background(), "столом")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	features := map[string]string{"Case": "Gen", "Number": "Plur"}

	t.Run("inflects another group member with the original features", func(t *testing.T) {
		svc := new(mocks.MockMorphologyService)
		svc.On("Lemma", mock.Anything, "Дипломантов").Return(schemas.LemmaResult{Lemma: "дипломант"}, nil)
		svc.On("Features", mock.Anything, "Дипломантов").
			Return(schemas.WordFeatures{Word: "Дипломантов", POS: "NOUN", Features: features}, nil)
		// Others are [дипломат, дипломник]; IntN(2) scripted to 1.
		svc.On("Inflect", mock.Anything, schemas.InflectRequest{Lemma: "дипломник", Features: features}).
			Return(schemas.InflectResult{Inflected: "дипломников", Success: true}, nil)

		got, err := newGenerator(svc, []int{1}).Generate(ctx, "Дипломантов")
		require.NoError(t, err)
		assert.Equal(t, "Дипломников", got)
		svc.AssertExpectations(t)
	})

	t.Run("words without a group are unchanged", func(t *testing.T) {
		svc := new(mocks.MockMorphologyService)
		svc.On("Lemma", mock.Anything, "столом").Return(schemas.LemmaResult{Lemma: "стол"}, nil)

		got, err := newGenerator(svc, nil).Generate(ctx, "столом")
		require.NoError(t, err)
		assert.Equal(t, "столом", got)
		svc.AssertNotCalled(t, "Inflect", mock.Anything, mock.Anything)
	})

	t.Run("failed inflection leaves the word unchanged", func(t *testing.T) {
		svc := new(mocks.MockMorphologyService)
		svc.On("Lemma", mock.Anything, "адресату").Return(schemas.LemmaResult{Lemma: "адресат"}, nil)
		svc.On("Features", mock.Anything, "адресату").Return(schemas.WordFeatures{Features: features}, nil)
		svc.On("Inflect", mock.Anything, mock.Anything).Return(schemas.InflectResult{Success: false}, nil)

		got, err := newGenerator(svc, []int{0}).Generate(ctx, "адресату")
		require.NoError(t, err)
		assert.Equal(t, "адресату", got)
	})

	t.Run("service errors propagate", func(t *testing.T) {
		svc := new(mocks.MockMorphologyService)
		svcErr := errors.New("service down")
		svc.On("Lemma", mock.Anything, "адресату").Return(schemas.LemmaResult{}, svcErr)

		got, err := newGenerator(svc, nil).Generate(ctx, "адресату")
		assert.ErrorIs(t, err, svcErr)
		assert.Equal(t, "адресату", got)
	})
}

// -- Scraper --

const letterPage = `<html><body>
<div class="paronyms-list list-columns">
  <a href="/paronym/abonent">абонент</a>
  <a href="/paronym/broken">broken</a>
  <a href="/paronym/proper">Proper</a>
  <a href="/paronym/missing">missing</a>
</div>
<div class="other"><a href="/ignored">x</a></div>
</body></html>`

func groupPage(h1 string) string {
	return fmt.Sprintf("<html><body><h1>  %s </h1><h1>Паронимы: x — y</h1></body></html>", h1)
}

func TestExtract(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(letterPage))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.test/paronym/abonent",
		"https://example.test/paronym/broken",
		"https://example.test/paronym/proper",
		"https://example.test/paronym/missing",
	}, ExtractLinks(doc, "https://example.test/"))

	testCases := []struct {
		h1     string
		want   []string
		wantOK bool
	}{
		{"Паронимы: абонент — абонемент", []string{"абонент", "абонемент"}, true},
		{"Паронимы: дипломат — дипломант — дипломник", []string{"дипломат", "дипломант", "дипломник"}, true},
		{"Паронимы: одиночка", nil, false},
		{"Словарь", nil, false},
	}
	for _, tc := range testCases {
		page, err := goquery.NewDocumentFromReader(strings.NewReader(groupPage(tc.h1)))
		require.NoError(t, err)
		got, ok := ExtractGroup(page)
		assert.Equal(t, tc.wantOK, ok, tc.h1)
		assert.Equal(t, tc.want, got, tc.h1)
	}
}

func TestScrape(t *testing.T) {
	var requests atomic.Int32
	pages := map[string]string{
		"/paronym/abonent": groupPage("Паронимы: абонент — абонемент"),
		"/paronym/broken":  groupPage("Not a group"),
		"/paronym/proper":  groupPage("Паронимы: Альпы — альпинист"),
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/А" {
			requests.Add(1)
			_, _ = w.Write([]byte(letterPage))
			return
		}
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	core, logs := observer.New(zap.DebugLevel)
	s := NewScraper(server.URL, 0, zap.New(core))
	s.letters = []rune("АБ")

	groups, err := s.Scrape(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"абонент", "абонемент"}}, groups)
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 1, logs.FilterMessage("Failed to fetch letter page").Len(), "letter Б returns 404")
	assert.Equal(t, 1, logs.FilterMessage("Failed to fetch paronym page").Len(), "missing page returns 404")
}

func TestScrape_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(letterPage))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScraper(server.URL, 1, zap.NewNop()).Scrape(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// -- Candidate extension --

func TestFindCandidates(t *testing.T) {
	got := FindCandidates([]string{"Абонент", "абонемент", "апрель", "ад", "абонент", " адресат ", "адресант"})

	require.Len(t, got, 2)
	assert.Equal(t, "абонент", got[0].Word1)
	assert.Equal(t, "абонемент", got[0].Word2)
	assert.Equal(t, 2, got[0].Distance)
	assert.InDelta(t, 2.0/7.0, got[0].RelativeDistance, 1e-9)
	assert.Equal(t, "адресат", got[1].Word1)
	assert.Equal(t, "адресант", got[1].Word2)
	assert.Equal(t, 1, got[1].Distance)
	assert.Nil(t, got[0].Similarity)
}

func TestFindCandidates_LengthRatio(t *testing.T) {
	// "кот"/"коты": ratio 3/4 passes, relative distance 1/3 passes.
	// "кот"/"котята": ratio 1/2 fails before distance is computed.
	got := FindCandidates([]string{"кот", "коты", "котята"})
	require.Len(t, got, 1)
	assert.Equal(t, "коты", got[0].Word2)
}

func TestScoreCandidates(t *testing.T) {
	candidates := []Candidate{
		{Word1: "абонент", Word2: "абонемент"},
		{Word1: "адресат", Word2: "адресант"},
		{Word1: "ъъъ", Word2: "ъъъь"},
	}
	svc := new(mocks.MockMorphologyService)
	svc.On("Similarity", mock.Anything, "абонент", "абонемент").Return(schemas.SimilarityResult{Similarity: 0.6}, nil)
	svc.On("Similarity", mock.Anything, "адресат", "адресант").Return(schemas.SimilarityResult{Similarity: 0.8}, nil)
	svc.On("Similarity", mock.Anything, "ъъъ", "ъъъь").Return(schemas.SimilarityResult{}, errors.New("unknown word"))

	scored, err := ScoreCandidates(context.Background(), svc, candidates, 2, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, scored)
	require.NotNil(t, candidates[0].Similarity)
	assert.Equal(t, 0.6, *candidates[0].Similarity)
	require.NotNil(t, candidates[1].Similarity)
	assert.Equal(t, 0.8, *candidates[1].Similarity)
	assert.Nil(t, candidates[2].Similarity)
}

func TestScoreCandidates_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := new(mocks.MockMorphologyService)
	svc.On("Similarity", mock.Anything, mock.Anything, mock.Anything).Return(schemas.SimilarityResult{}, context.Canceled).Maybe()

	_, err := ScoreCandidates(ctx, svc, []Candidate{{Word1: "а", Word2: "б"}}, 1, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}
