package bpe

import "github.com/gomlx/go-minbpe/tokenizers/api"

// Merge returns a new sequence where every non-overlapping occurrence of pair, scanning left to right,
// is replaced by newID. The input is not modified.
//
// E.g.: merging (a,a) over [a a a b] yields [new a b].
func Merge(ids []api.SymbolID, pair Pair, newID api.SymbolID) []api.SymbolID {
	out := make([]api.SymbolID, 0, len(ids))
	for i := 0; i < len(ids); {
		if i+1 < len(ids) && ids[i] == pair.Left && ids[i+1] == pair.Right {
			out = append(out, newID)
			i += 2
			continue
		}
		out = append(out, ids[i])
		i++
	}
	return out
}

// mergeCounting does the same as Merge, but also updates counts (as returned by CountPairs over ids)
// so that it reflects the pairs of the returned sequence. Pairs whose count drops to zero are removed.
func mergeCounting(ids []api.SymbolID, pair Pair, newID api.SymbolID, counts map[Pair]int) []api.SymbolID {
	dec := func(p Pair) {
		if counts[p]--; counts[p] <= 0 {
			delete(counts, p)
		}
	}
	out := make([]api.SymbolID, 0, len(ids))
	for i := 0; i < len(ids); {
		if i+1 < len(ids) && ids[i] == pair.Left && ids[i+1] == pair.Right {
			dec(pair)
			// The left neighbour is taken from out: it may be the result of the previous merge, in
			// which case its pair with ids[i] was already moved over when that merge was made.
			if len(out) > 0 {
				left := out[len(out)-1]
				dec(Pair{left, pair.Left})
				counts[Pair{left, newID}]++
			}
			if i+2 < len(ids) {
				right := ids[i+2]
				dec(Pair{pair.Right, right})
				counts[Pair{newID, right}]++
			}
			out = append(out, newID)
			i += 2
			continue
		}
		out = append(out, ids[i])
		i++
	}
	return out
}

// bytesToSymbols maps each byte of text to its base symbol.
func bytesToSymbols(text string) []api.SymbolID {
	ids := make([]api.SymbolID, len(text))
	for i := 0; i < len(text); i++ {
		ids[i] = api.SymbolID(text[i])
	}
	return ids
}
