package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/gomlx/go-minbpe/tokenizers/bpe"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = "aaabdaaabac and some more text: ünïcödé\n"

func TestReadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0644))
	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, corpus, text)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	text, err = ReadText(empty)
	require.NoError(t, err)
	assert.Empty(t, text)

	_, err = ReadText(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "out.txt")
	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	// No temporary or lock files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.txt", entries[0].Name())
}

func TestWriteFileConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	contents := []string{"aaaa", "bbbbbbbb", "cccccccccccc", "dddddddddddddddd"}
	var wg sync.WaitGroup
	for _, c := range contents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, WriteFile(path, []byte(c)))
		}()
	}
	wg.Wait()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, contents, string(content))
}

func TestSaveLoadModel(t *testing.T) {
	m, err := bpe.Train(corpus, 280, nil)
	require.NoError(t, err)
	dir := t.TempDir()
	for _, name := range []string{"model.bpe", "model.bpe.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveModel(path, m))
			loaded, err := LoadModel(path)
			require.NoError(t, err)
			assert.True(t, m.Equal(loaded))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			if IsCompressed(path) {
				assert.NotEqual(t, bpe.Serialize(m), string(raw))
			} else {
				assert.Equal(t, bpe.Serialize(m), string(raw))
			}
		})
	}
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadModel(filepath.Join(dir, "missing.bpe"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.bpe")
	require.NoError(t, os.WriteFile(bad, []byte("not a model"), 0644))
	_, err = LoadModel(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bpe.ErrParse), "got %v", err)

	badZst := filepath.Join(dir, "bad.bpe.zst")
	require.NoError(t, os.WriteFile(badZst, []byte("not zstd"), 0644))
	_, err = LoadModel(badZst)
	require.Error(t, err)
}

func TestIDsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ids")
	ids := []api.SymbolID{97, 256, 1000000}
	require.NoError(t, WriteIDs(path, ids))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "97,256,1000000", string(content))

	// Ids files edited by hand usually end with a newline.
	require.NoError(t, os.WriteFile(path, []byte("97,256,1000000\n"), 0644))
	got, err := ReadIDs(path)
	require.NoError(t, err)
	assert.Equal(t, ids, got)

	require.NoError(t, os.WriteFile(path, []byte("97,x"), 0644))
	_, err = ReadIDs(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bpe.ErrParse))
}

type datasetRow struct {
	ID   int64   `parquet:"id"`
	Text string  `parquet:"text"`
	Note *string `parquet:"note,optional"`
}

func TestReadCorpusParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train-00000-of-00001.parquet")
	note := "some note"
	rows := []datasetRow{
		{ID: 1, Text: "first document"},
		{ID: 2, Text: "second document", Note: &note},
		{ID: 3, Text: "ünïcödé third"},
	}
	require.NoError(t, parquet.WriteFile(path, rows))

	text, err := ReadCorpus(path, "")
	require.NoError(t, err)
	assert.Equal(t, "first document\nsecond document\nünïcödé third", text)

	text, err = ReadCorpus(path, "note")
	require.NoError(t, err)
	assert.Equal(t, "some note", text)

	_, err = ReadCorpus(path, "missing")
	require.Error(t, err)

	_, err = ReadCorpus(path, "id")
	require.Error(t, err)

	// Other extensions are read as plain text.
	txt := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(txt, []byte(corpus), 0644))
	text, err = ReadCorpus(txt, "ignored")
	require.NoError(t, err)
	assert.Equal(t, corpus, text)
}
