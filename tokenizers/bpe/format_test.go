package bpe

import (
	"strings"
	"testing"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeFormat(t *testing.T) {
	m, err := Train("aaabdaaabac", 258, nil)
	require.NoError(t, err)
	lines := strings.Split(Serialize(m), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "258", lines[0])
	assert.Equal(t, "2", lines[1])
	assert.Equal(t, "97,97,256 97,98,257", lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "0,0 1,1 2,2 "))
	assert.True(t, strings.HasSuffix(lines[3], " 255,255 256,97,97 257,97,98"))
	assert.Empty(t, lines[4])
}

func TestSerializeRoundTrip(t *testing.T) {
	for _, vocabSize := range []int{256, 300, 500} {
		m, err := Train(testCorpus, vocabSize, nil)
		require.NoError(t, err)
		loaded, err := Deserialize(Serialize(m))
		require.NoError(t, err)
		assert.True(t, m.Equal(loaded), "vocab size %d", vocabSize)
		assert.Equal(t, m.Merges(), loaded.Merges())
		assert.Equal(t, m.Encode(testCorpus), loaded.Encode(testCorpus))
	}
}

func TestDeserializeTolerance(t *testing.T) {
	m, err := Train("aaabdaaabac", 259, nil)
	require.NoError(t, err)
	content := Serialize(m)

	// Trailing spaces and CRLF line endings, as written by other tools.
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	loaded, err := Deserialize(strings.Join(lines, " \r\n"))
	require.NoError(t, err)
	assert.True(t, m.Equal(loaded))

	// No trailing newline.
	loaded, err = Deserialize(strings.TrimSuffix(content, "\n"))
	require.NoError(t, err)
	assert.True(t, m.Equal(loaded))
}

func baseVocabLine(extra ...string) string {
	var sb strings.Builder
	for id := range api.NumBaseSymbols {
		if id > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatUint(uint64(id)))
		sb.WriteByte(',')
		sb.WriteString(formatUint(uint64(id)))
	}
	for _, e := range extra {
		sb.WriteByte(' ')
		sb.WriteString(e)
	}
	return sb.String()
}

func TestDeserializeErrors(t *testing.T) {
	tests := map[string]string{
		"too few lines":         "256\n0\n",
		"bad vocab size":        "abc\n0\n\n" + baseVocabLine(),
		"small vocab size":      "100\n0\n\n" + baseVocabLine(),
		"bad num merges":        "256\nx\n\n" + baseVocabLine(),
		"num merges mismatch":   "257\n2\n97,97,256\n" + baseVocabLine("256,97,97"),
		"short merge":           "257\n1\n97,97\n" + baseVocabLine("256,97,97"),
		"non numeric merge":     "257\n1\n97,a,256\n" + baseVocabLine("256,97,97"),
		"duplicated pair":       "258\n2\n97,97,256 97,97,257\n" + baseVocabLine("256,97,97", "257,97,97"),
		"merge id in base":      "257\n1\n97,97,98\n" + baseVocabLine(),
		"merge id not in vocab": "257\n1\n97,97,256\n" + baseVocabLine(),
		"vocab mismatch":        "257\n1\n97,97,256\n" + baseVocabLine("256,97,98"),
		"byte out of range":     "257\n1\n97,97,256\n" + baseVocabLine("256,97,300"),
		"vocab entry no bytes":  "256\n0\n\n" + baseVocabLine("256"),
		"duplicated vocab id":   "256\n0\n\n" + baseVocabLine("5,5"),
		"missing base entry":    "256\n0\n\n" + strings.Replace(baseVocabLine(), " 7,7 ", " ", 1),
		"wrong base entry":      "256\n0\n\n" + strings.Replace(baseVocabLine(), " 7,7 ", " 7,8 ", 1),
		"extra vocab entry":     "256\n0\n\n" + baseVocabLine("300,1,2"),
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := Deserialize(content)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, ErrParse), "got %v", err)
		})
	}
}

func TestIDsCodec(t *testing.T) {
	assert.Equal(t, "97,256,98", FormatIDs(ids(97, 256, 98)))
	assert.Equal(t, "", FormatIDs(nil))

	got, err := ParseIDs("97,256,98\n")
	require.NoError(t, err)
	assert.Equal(t, ids(97, 256, 98), got)

	got, err = ParseIDs(" 1, 2 ,3 ")
	require.NoError(t, err)
	assert.Equal(t, ids(1, 2, 3), got)

	got, err = ParseIDs("  \n")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ParseIDs("4294967295")
	require.NoError(t, err)
	assert.Equal(t, ids(4294967295), got)

	for _, bad := range []string{"1,,2", "1,x", "-1", "4294967296", "1;2"} {
		_, err := ParseIDs(bad)
		require.Error(t, err, "input %q", bad)
		assert.True(t, errors.Is(err, ErrParse), "input %q: got %v", bad, err)
	}
}
