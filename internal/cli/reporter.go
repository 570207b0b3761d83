package cli

import (
	"github.com/gomlx/go-minbpe/tokenizers/bpe"
	"k8s.io/klog/v2"
)

// klogReporter implements bpe.Reporter, logging training progress.
// Merges are logged at verbosity 1, or always if verbose is set.
type klogReporter struct {
	verbose bool
}

var _ bpe.Reporter = klogReporter{}

func (r klogReporter) Merge(rec bpe.MergeRecord) {
	if !r.verbose && !klog.V(1).Enabled() {
		return
	}
	klog.Infof("merge %d/%d: %s -> %d (%q had %d occurrences)",
		rec.Step+1, rec.NumMerges, rec.Pair, rec.ID, rec.Bytes, rec.Count)
}

func (r klogReporter) EarlyStop(step, numMerges int) {
	klog.Infof("Training stopped after %d of %d merges: no adjacent pair left", step, numMerges)
}
