package bpe

import (
	"slices"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/pkg/errors"
)

// MergeRecord describes one training step. It is only informational.
type MergeRecord struct {
	Step      int          // 0-based merge step.
	NumMerges int          // Number of merges requested (vocabSize - 256).
	Pair      Pair         // Selected pair.
	ID        api.SymbolID // Id assigned to the pair.
	Count     int          // Occurrences of the pair in the sequence before merging.
	Bytes     []byte       // Bytes the new symbol expands to.
}

// Reporter receives diagnostics during training. See Train.
type Reporter interface {
	// Merge is called after each merge step.
	Merge(record MergeRecord)

	// EarlyStop is called if training ends at step because no adjacent pair is left.
	EarlyStop(step, numMerges int)
}

// Train learns a Model from text, with up to vocabSize-256 merges.
//
// Each step counts the adjacent pairs of the working sequence, selects the most frequent one (the
// lexicographically smallest one on ties) and replaces its occurrences with a new symbol id, 256+step.
// If the sequence collapses before reaching vocabSize, training stops early: this is not an error.
//
// reporter may be nil. It fails with ErrConfig if vocabSize < 256.
func Train(text string, vocabSize int, reporter Reporter) (*Model, error) {
	if vocabSize < api.NumBaseSymbols {
		return nil, errors.Wrapf(ErrConfig, "vocab size must be at least %d, got %d", api.NumBaseSymbols, vocabSize)
	}
	numMerges := vocabSize - api.NumBaseSymbols
	vocab := newBaseVocab()
	rules := make([]Rule, 0, numMerges)

	ids := bytesToSymbols(text)
	counts := CountPairs(ids)
	for step := range numMerges {
		pair, count, found := MostFrequentPair(counts)
		if !found {
			if reporter != nil {
				reporter.EarlyStop(step, numMerges)
			}
			break
		}
		newID := api.SymbolID(api.NumBaseSymbols + step)
		ids = mergeCounting(ids, pair, newID, counts)
		rules = append(rules, Rule{Pair: pair, ID: newID})
		vocab[newID] = slices.Concat(vocab[pair.Left], vocab[pair.Right])
		if reporter != nil {
			reporter.Merge(MergeRecord{
				Step:      step,
				NumMerges: numMerges,
				Pair:      pair,
				ID:        newID,
				Count:     count,
				Bytes:     slices.Clone(vocab[newID]),
			})
		}
	}
	return newModel(vocabSize, rules, vocab), nil
}
