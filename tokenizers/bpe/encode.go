package bpe

import (
	"context"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Encode converts text to a sequence of symbol ids.
//
// The text bytes are mapped to base symbols, and then, repeatedly, the adjacent pair with the
// earliest learned rule (lowest id) is merged, until no adjacent pair has a rule.
func (m *Model) Encode(text string) []api.SymbolID {
	ids := bytesToSymbols(text)
	for len(ids) >= 2 {
		var (
			best   Pair
			bestID api.SymbolID
			found  bool
		)
		for i := 0; i+1 < len(ids); i++ {
			pair := Pair{ids[i], ids[i+1]}
			if id, ok := m.ranks[pair]; ok && (!found || id < bestID) {
				best, bestID, found = pair, id, true
			}
		}
		if !found {
			break
		}
		ids = Merge(ids, best, bestID)
	}
	return ids
}

// EncodeWithSpans returns the encoded ids along with the byte span each one covers in text.
// It implements api.TokenizerWithSpans.
func (m *Model) EncodeWithSpans(text string) api.EncodingResult {
	ids := m.Encode(text)
	spans := make([]api.TokenSpan, len(ids))
	pos := 0
	for i, id := range ids {
		end := pos + len(m.vocab[id])
		spans[i] = api.TokenSpan{Start: pos, End: end}
		pos = end
	}
	return api.EncodingResult{IDs: ids, Spans: spans}
}

// EncodeBatch encodes independent texts concurrently, using at most parallelism goroutines
// (unlimited if parallelism <= 0). Results are returned in the same order as texts.
//
// It returns early with the context error if ctx is cancelled.
func EncodeBatch(ctx context.Context, m *Model, texts []string, parallelism int) ([][]api.SymbolID, error) {
	results := make([][]api.SymbolID, len(texts))
	g, gCtx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, text := range texts {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = m.Encode(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.WithMessagef(err, "encoding batch of %d texts", len(texts))
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.WithMessagef(err, "encoding batch of %d texts", len(texts))
	}
	return results, nil
}
