// Package api defines the Tokenizer API.
// It's kept separate from the implementations so that storage, export and CLI code can depend on
// the interfaces without importing a concrete tokenizer.
package api

// SymbolID is the unit exchanged between encode and decode.
//
// Ids 0..255 are base symbols, one per raw byte value. Larger ids are derived symbols created by merges.
type SymbolID uint32

// NumBaseSymbols is the size of the base (byte) alphabet.
const NumBaseSymbols = 256

// TokenSpan represents the byte span of a token in the original text.
// Start and End are byte offsets (not rune offsets), suitable for slicing
// Go strings directly: originalText[span.Start:span.End].
type TokenSpan struct {
	Start int // start byte position (inclusive)
	End   int // end byte position (exclusive)
}

// EncodingResult contains tokens with their spans in the original text.
type EncodingResult struct {
	IDs   []SymbolID  // token IDs
	Spans []TokenSpan // byte spans for each token (use originalText[span.Start:span.End] to extract)
}

// Tokenizer interface allows one to convert text to "tokens" (symbol ids) and back.
//
// Decode may fail: ids may be unknown to the tokenizer, or the reconstructed bytes may not be valid UTF-8.
type Tokenizer interface {
	Encode(text string) []SymbolID
	Decode(ids []SymbolID) (string, error)
}

// TokenizerWithSpans extends Tokenizer with span tracking capability.
// This is useful when one needs to map tokens back to byte positions in the original text.
type TokenizerWithSpans interface {
	Tokenizer
	// EncodeWithSpans returns tokens along with their byte spans in the original text.
	EncodeWithSpans(text string) EncodingResult
}
