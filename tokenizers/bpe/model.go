// Package bpe implements a byte-level byte-pair-encoding tokenizer.
//
// Train learns an ordered table of merge rules from a training text, and the resulting Model converts
// text to symbol ids (Encode) and back (Decode). The base alphabet is the 256 byte values, so any text
// can be encoded and every sequence produced by Encode decodes back to the original text.
//
// A Model is immutable once created, either by Train or by Deserialize, and it is safe to use it
// concurrently from multiple goroutines.
package bpe

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/pkg/errors"
)

// Rule is a learned merge: the adjacent Pair collapses into ID.
// Lower ids were learned earlier and have higher priority when encoding.
type Rule struct {
	Pair Pair
	ID   api.SymbolID
}

// Model is the complete artifact of training: the merge table and the vocabulary.
type Model struct {
	vocabSize int
	rules     []Rule // Sorted by ID.
	ranks     map[Pair]api.SymbolID
	vocab     map[api.SymbolID][]byte
}

// Compile time assert that Model implements api.TokenizerWithSpans.
var _ api.TokenizerWithSpans = &Model{}

// newBaseVocab returns the vocabulary of the base alphabet: each id maps to its own byte.
func newBaseVocab() map[api.SymbolID][]byte {
	vocab := make(map[api.SymbolID][]byte, api.NumBaseSymbols)
	for id := range api.NumBaseSymbols {
		vocab[api.SymbolID(id)] = []byte{byte(id)}
	}
	return vocab
}

// newModel takes ownership of rules and vocab.
func newModel(vocabSize int, rules []Rule, vocab map[api.SymbolID][]byte) *Model {
	slices.SortFunc(rules, func(a, b Rule) int { return cmp.Compare(a.ID, b.ID) })
	ranks := make(map[Pair]api.SymbolID, len(rules))
	for _, rule := range rules {
		ranks[rule.Pair] = rule.ID
	}
	return &Model{
		vocabSize: vocabSize,
		rules:     rules,
		ranks:     ranks,
		vocab:     vocab,
	}
}

// FromRules builds a Model from its merge rules, deriving the vocabulary by expanding each rule in id
// order. Rules must only reference ids that are either base symbols or created by a previous rule.
//
// It fails with ErrConfig if vocabSize < 256, and with ErrParse if the rules are inconsistent.
func FromRules(vocabSize int, rules []Rule) (*Model, error) {
	if vocabSize < api.NumBaseSymbols {
		return nil, errors.Wrapf(ErrConfig, "vocab size must be at least %d, got %d", api.NumBaseSymbols, vocabSize)
	}
	rules = slices.Clone(rules)
	slices.SortFunc(rules, func(a, b Rule) int { return cmp.Compare(a.ID, b.ID) })
	vocab := newBaseVocab()
	for _, rule := range rules {
		if _, found := vocab[rule.ID]; found {
			return nil, errors.Wrapf(ErrParse, "merge %s -> %d: id already defined", rule.Pair, rule.ID)
		}
		left, okLeft := vocab[rule.Pair.Left]
		right, okRight := vocab[rule.Pair.Right]
		if !okLeft || !okRight {
			return nil, errors.Wrapf(ErrParse, "merge %s -> %d: uses an id not defined by an earlier merge", rule.Pair, rule.ID)
		}
		vocab[rule.ID] = slices.Concat(left, right)
	}
	if err := validate(rules, vocab); err != nil {
		return nil, err
	}
	return newModel(vocabSize, rules, vocab), nil
}

// VocabSize returns the vocabulary size requested at training time.
// It is an upper bound: if training stopped early the vocabulary holds fewer entries, see Len.
func (m *Model) VocabSize() int {
	return m.vocabSize
}

// NumMerges returns the number of merge rules actually held by the model.
func (m *Model) NumMerges() int {
	return len(m.rules)
}

// Len returns the number of entries in the vocabulary.
func (m *Model) Len() int {
	return len(m.vocab)
}

// Merges returns a copy of the merge rules, in priority (training) order.
func (m *Model) Merges() []Rule {
	return slices.Clone(m.rules)
}

// MergeID returns the id the pair (left, right) merges into, if there is such a rule.
func (m *Model) MergeID(left, right api.SymbolID) (api.SymbolID, bool) {
	id, ok := m.ranks[Pair{left, right}]
	return id, ok
}

// Lookup returns a copy of the bytes the symbol id expands to.
func (m *Model) Lookup(id api.SymbolID) ([]byte, bool) {
	b, ok := m.vocab[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(b), true
}

// IDs returns all symbol ids in the vocabulary, sorted.
func (m *Model) IDs() []api.SymbolID {
	ids := make([]api.SymbolID, 0, len(m.vocab))
	for id := range m.vocab {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Equal returns whether both models hold the same vocabulary size, merge rules and vocabulary.
func (m *Model) Equal(other *Model) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.vocabSize != other.vocabSize || !slices.Equal(m.rules, other.rules) || len(m.vocab) != len(other.vocab) {
		return false
	}
	for id, b := range m.vocab {
		if ob, ok := other.vocab[id]; !ok || !bytes.Equal(b, ob) {
			return false
		}
	}
	return true
}

// String returns a human-readable dump of the model.
func (m *Model) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BPE Model:\n\tvocab_size: %d\n\tnum_merges: %d\n\tmerges:\n", m.vocabSize, len(m.rules))
	for _, rule := range m.rules {
		fmt.Fprintf(&sb, "\t\t(%4d,%4d) -> %d\n", rule.Pair.Left, rule.Pair.Right, rule.ID)
	}
	sb.WriteString("\tvocab:\n")
	for _, id := range m.IDs() {
		fmt.Fprintf(&sb, "\t\t%-4d : %v\n", id, m.vocab[id])
	}
	return sb.String()
}
