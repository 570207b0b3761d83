package bpe

import "github.com/pkg/errors"

// Error kinds returned by this package. They are always wrapped with details about the offending
// value, so use errors.Is to test for them.
var (
	// ErrConfig is returned by Train when the requested vocabulary size is smaller than the base alphabet.
	ErrConfig = errors.New("invalid configuration")

	// ErrParse is returned for malformed persisted models or malformed ids lists.
	ErrParse = errors.New("parse error")

	// ErrUnknownSymbol is returned by Decode when an id is not in the vocabulary.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInvalidUTF8 is returned by Decode when the reconstructed bytes are not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("invalid utf-8")
)
