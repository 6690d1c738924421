// internal/corpus/corpus_test.go
package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/errsynth/api/schemas"
	"github.com/xkilldash9x/errsynth/internal/mocks"
	"github.com/xkilldash9x/errsynth/internal/sampler/samplertest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sampleItem() schemas.CorpusItem {
	return schemas.CorpusItem{
		Text: "Кошки видет собаку и дуп",
		Annotations: []schemas.ErrorAnnotation{
			{Type: schemas.KindMorphological, WordNumber: 0, CorrectReplacement: "Кошка"},
			{Type: schemas.KindParonym, WordNumber: 1, CorrectReplacement: "видит"},
			{Type: schemas.KindPairedConsonant, WordNumber: 4, CorrectReplacement: "дуб"},
		},
	}
}

func TestListFiles_RecursiveAndSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "sentence_2.txt"), "x")
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	writeFile(t, filepath.Join(root, "b", "sentence_1.txt"), "x")

	files, err := ListFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b", "sentence_1.txt"),
		filepath.Join(root, "b", "sentence_2.txt"),
	}, files)
}

func TestListFiles_MissingDirectory(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadSentence_Trims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.txt")
	writeFile(t, path, "\n  Мама мыла раму.  \n")

	s, err := ReadSentence(path)
	require.NoError(t, err)
	assert.Equal(t, "Мама мыла раму.", s)
}

func TestWriteItem_IndentedJSONRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	item := sampleItem()

	require.NoError(t, WriteItem(dir, ItemFileName(7), item))

	raw, err := os.ReadFile(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"annotations\": [")
	assert.Contains(t, string(raw), `"correctReplacement": "Кошка"`)

	got, err := ReadItem(filepath.Join(dir, "7.txt"))
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestWriteItem_NilAnnotationsBecomeEmptyArray(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteItem(dir, "0.txt", schemas.CorpusItem{Text: "Всё верно ."}))

	raw, err := os.ReadFile(filepath.Join(dir, "0.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"annotations": []`)
}

func TestRestore(t *testing.T) {
	assert.Equal(t, "Кошка видит собаку и дуб", Restore(sampleItem()))

	out := Restore(schemas.CorpusItem{
		Text:        "один два",
		Annotations: []schemas.ErrorAnnotation{{WordNumber: 5, CorrectReplacement: "x"}},
	})
	assert.Equal(t, "один два", out)
}

func TestCollectStats(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteItem(dir, "0.txt", sampleItem()))
	require.NoError(t, WriteItem(dir, "1.txt", schemas.CorpusItem{
		Text:        "Дуп стоит",
		Annotations: []schemas.ErrorAnnotation{{Type: schemas.KindPairedConsonant, WordNumber: 0, CorrectReplacement: "Дуб"}},
	}))
	writeFile(t, filepath.Join(dir, "2.txt"), "{not json")

	stats, err := CollectStats(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, map[schemas.ErrorKind]int{
		schemas.KindMorphological:   1,
		schemas.KindParonym:         1,
		schemas.KindPairedConsonant: 2,
	}, stats.Annotations)
	assert.Equal(t, 4, stats.Total())
}

func TestExportBinary(t *testing.T) {
	itemsDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, WriteItem(filepath.Join(itemsDir, "batch"), "0.txt", sampleItem()))
	require.NoError(t, WriteItem(itemsDir, "1.txt", sampleItem()))
	require.NoError(t, WriteItem(itemsDir, "2.txt", schemas.CorpusItem{Text: "Всё верно"}))
	writeFile(t, filepath.Join(itemsDir, "3.txt"), "garbage")

	// Files are visited as 1.txt, 2.txt, 3.txt, batch/0.txt. The clean record
	// and the unreadable one draw nothing.
	r := samplertest.New([]float64{0.9, 0.1}, nil)
	summary, err := ExportBinary(context.Background(), r, itemsDir, outDir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ExportSummary{Correct: 2, Incorrect: 1, Failed: 1}, summary)

	correct, err := os.ReadFile(filepath.Join(outDir, CorrectDir, "1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Кошка видит собаку и дуб", string(correct))

	clean, err := os.ReadFile(filepath.Join(outDir, CorrectDir, "2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Всё верно", string(clean))

	incorrect, err := os.ReadFile(filepath.Join(outDir, IncorrectDir, "batch---0.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Кошки видет собаку и дуп", string(incorrect))
}

func TestSplitDirectory(t *testing.T) {
	src := t.TempDir()
	target := filepath.Join(t.TempDir(), "split")
	writeFile(t, filepath.Join(src, "doc1.txt"), "Первое. Второе.")
	writeFile(t, filepath.Join(src, "bad.txt"), "Сломано.")
	require.NoError(t, os.Mkdir(filepath.Join(src, "nested"), 0o755))

	splitter := new(mocks.MockSentenceSplitter)
	splitter.On("SplitSentences", mock.Anything, "Первое. Второе.").Return([]string{"Первое.", "Второе."}, nil)
	splitter.On("SplitSentences", mock.Anything, "Сломано.").Return(nil, errors.New("service unavailable"))

	summary, err := SplitDirectory(context.Background(), splitter, src, target, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SplitSummary{Files: 1, Failed: 1, Sentences: 2}, summary)

	first, err := os.ReadFile(filepath.Join(target, "doc1", "sentence_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Первое.", string(first))
	second, err := os.ReadFile(filepath.Join(target, "doc1", "sentence_2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Второе.", string(second))
	splitter.AssertExpectations(t)
}

func TestSplitDirectory_Cancelled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "doc.txt"), "Текст.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SplitDirectory(ctx, new(mocks.MockSentenceSplitter), src, t.TempDir(), zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}
