package bpe

import (
	"fmt"

	"github.com/gomlx/go-minbpe/tokenizers/api"
)

// Pair is an ordered pair of adjacent symbols.
type Pair struct {
	Left, Right api.SymbolID
}

// Less orders pairs lexicographically by (Left, Right).
func (p Pair) Less(other Pair) bool {
	if p.Left != other.Left {
		return p.Left < other.Left
	}
	return p.Right < other.Right
}

// String implements fmt.Stringer.
func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.Left, p.Right)
}

// CountPairs counts the occurrences of every adjacent pair in ids.
func CountPairs(ids []api.SymbolID) map[Pair]int {
	counts := make(map[Pair]int)
	for i := 0; i+1 < len(ids); i++ {
		counts[Pair{ids[i], ids[i+1]}]++
	}
	return counts
}

// MostFrequentPair returns the pair with the highest count.
// Ties are broken by picking the lexicographically smallest pair, so the result doesn't depend on
// map iteration order.
//
// It returns false if counts holds no pair with a positive count.
func MostFrequentPair(counts map[Pair]int) (best Pair, bestCount int, found bool) {
	for pair, count := range counts {
		if count <= 0 {
			continue
		}
		if !found || count > bestCount || (count == bestCount && pair.Less(best)) {
			best, bestCount, found = pair, count, true
		}
	}
	return
}
