package bpe

import (
	"unicode/utf8"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/pkg/errors"
)

// Decode converts a sequence of symbol ids back to text.
//
// It fails with ErrUnknownSymbol if an id is not in the vocabulary, and with ErrInvalidUTF8 if the
// concatenated bytes are not valid UTF-8 (which can't happen for sequences returned by Encode).
func (m *Model) Decode(ids []api.SymbolID) (string, error) {
	b, err := m.DecodeBytes(ids)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.Wrapf(ErrInvalidUTF8, "decoding %d ids into %d bytes", len(ids), len(b))
	}
	return string(b), nil
}

// DecodeBytes expands the symbol ids into raw bytes, without checking they form valid text.
func (m *Model) DecodeBytes(ids []api.SymbolID) ([]byte, error) {
	size := 0
	for i, id := range ids {
		entry, ok := m.vocab[id]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownSymbol, "id %d at position %d", id, i)
		}
		size += len(entry)
	}
	b := make([]byte, 0, size)
	for _, id := range ids {
		b = append(b, m.vocab[id]...)
	}
	return b, nil
}
