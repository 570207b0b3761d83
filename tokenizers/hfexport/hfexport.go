// Package hfexport converts a bpe.Model to and from HuggingFace's tokenizer.json format, so models trained
// here can be used by the HuggingFace Tokenizers library (and its ports).
//
// The model is exported as a byte-level BPE: each vocabulary entry is rendered with the GPT-2
// byte-to-unicode mapping, and the pre-tokenizer is configured not to split the text with a regex,
// so that merges apply over the whole input as they do in bpe.Model.Encode.
package hfexport

import (
	"encoding/json"
	"strings"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/gomlx/go-minbpe/tokenizers/bpe"
	"github.com/pkg/errors"
)

// TokenizerJSON represents the subset of HuggingFace's tokenizer.json used by byte-level BPE models.
type TokenizerJSON struct {
	Version       string          `json:"version"`
	Truncation    json.RawMessage `json:"truncation"`
	Padding       json.RawMessage `json:"padding"`
	AddedTokens   []AddedToken    `json:"added_tokens"`
	Normalizer    json.RawMessage `json:"normalizer"`
	PreTokenizer  *ByteLevel      `json:"pre_tokenizer"`
	PostProcessor json.RawMessage `json:"post_processor"`
	Decoder       *ByteLevel      `json:"decoder"`
	Model         Model           `json:"model"`
}

// AddedToken represents a special token added to the vocabulary. Exported models have none.
type AddedToken struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

// ByteLevel configures the ByteLevel pre-tokenizer and decoder.
type ByteLevel struct {
	Type           string `json:"type"`
	AddPrefixSpace bool   `json:"add_prefix_space"`
	TrimOffsets    bool   `json:"trim_offsets"`
	UseRegex       bool   `json:"use_regex"`
}

// Model represents the tokenizer model.
type Model struct {
	Type         string         `json:"type"`
	Dropout      *float64       `json:"dropout"`
	UnkToken     *string        `json:"unk_token"`
	FuseUnk      bool           `json:"fuse_unk"`
	ByteFallback bool           `json:"byte_fallback"`
	Vocab        map[string]int `json:"vocab"`
	Merges       []string       `json:"merges"`
}

// Export renders m as a tokenizer.json document.
//
// It fails if two vocabulary entries expand to the same bytes, since tokenizer.json keys the
// vocabulary by token content.
func Export(m *bpe.Model) ([]byte, error) {
	vocab := make(map[string]int, m.Len())
	tokens := make(map[api.SymbolID]string, m.Len())
	for _, id := range m.IDs() {
		entry, _ := m.Lookup(id)
		token := encodeBytes(entry)
		if other, found := vocab[token]; found {
			return nil, errors.Errorf("symbols %d and %d both expand to %q, tokenizer.json can't represent that", other, id, entry)
		}
		vocab[token] = int(id)
		tokens[id] = token
	}
	rules := m.Merges()
	merges := make([]string, len(rules))
	for i, rule := range rules {
		merges[i] = tokens[rule.Pair.Left] + " " + tokens[rule.Pair.Right]
	}
	byteLevel := &ByteLevel{Type: "ByteLevel"}
	tj := TokenizerJSON{
		Version:      "1.0",
		AddedTokens:  []AddedToken{},
		PreTokenizer: byteLevel,
		Decoder:      byteLevel,
		Model: Model{
			Type:   "BPE",
			Vocab:  vocab,
			Merges: merges,
		},
	}
	content, err := json.MarshalIndent(&tj, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize tokenizer.json")
	}
	return content, nil
}

// Import parses a byte-level BPE tokenizer.json, as written by Export, back into a bpe.Model.
//
// The vocabulary size of the returned model is its number of entries, since tokenizer.json doesn't
// record the size requested at training time.
func Import(content []byte) (*bpe.Model, error) {
	var tj TokenizerJSON
	if err := json.Unmarshal(content, &tj); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer.json")
	}
	if tj.Model.Type != "BPE" {
		return nil, errors.Errorf("tokenizer.json model type is %q, only \"BPE\" is supported", tj.Model.Type)
	}
	if len(tj.AddedTokens) > 0 {
		return nil, errors.Errorf("tokenizer.json has %d added tokens, special tokens are not supported", len(tj.AddedTokens))
	}
	for token, id := range tj.Model.Vocab {
		if id < 0 || id >= api.NumBaseSymbols {
			continue
		}
		b, err := decodeToken(token)
		if err != nil {
			return nil, err
		}
		if len(b) != 1 || int(b[0]) != id {
			return nil, errors.Errorf("tokenizer.json base token %q has id %d, expected %v", token, id, b)
		}
	}

	rules := make([]bpe.Rule, 0, len(tj.Model.Merges))
	for i, merge := range tj.Model.Merges {
		left, right, ok := strings.Cut(merge, " ")
		if !ok {
			return nil, errors.Errorf("tokenizer.json merge #%d %q: expected two space separated tokens", i, merge)
		}
		var ids [3]int
		for j, token := range []string{left, right, left + right} {
			id, found := tj.Model.Vocab[token]
			if !found || id < 0 {
				return nil, errors.Errorf("tokenizer.json merge #%d %q: token %q not in vocab", i, merge, token)
			}
			ids[j] = id
		}
		rules = append(rules, bpe.Rule{
			Pair: bpe.Pair{Left: api.SymbolID(ids[0]), Right: api.SymbolID(ids[1])},
			ID:   api.SymbolID(ids[2]),
		})
	}
	m, err := bpe.FromRules(api.NumBaseSymbols+len(rules), rules)
	if err != nil {
		return nil, errors.WithMessage(err, "invalid tokenizer.json merges")
	}
	if m.Len() != len(tj.Model.Vocab) {
		return nil, errors.Errorf("tokenizer.json vocab has %d entries, but merges only define %d", len(tj.Model.Vocab), m.Len())
	}
	return m, nil
}
