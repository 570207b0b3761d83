// Package config holds the settings read from the environment. Command line flags override them.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

// DefaultVocabSize used for training when none is configured.
const DefaultVocabSize = 512

var (
	// Set via MINBPE_VOCAB_SIZE in the environment
	VocabSize int
	// Set via MINBPE_VERBOSE in the environment
	Verbose bool
	// Set via MINBPE_NUM_PARALLEL in the environment
	NumParallel int
	// Set via MINBPE_NORMALIZE in the environment
	Normalize string
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"MINBPE_VOCAB_SIZE":   {"MINBPE_VOCAB_SIZE", VocabSize, fmt.Sprintf("Vocabulary size used for training (default %d)", DefaultVocabSize)},
		"MINBPE_VERBOSE":      {"MINBPE_VERBOSE", Verbose, "Report every merge while training (e.g. MINBPE_VERBOSE=1)"},
		"MINBPE_NUM_PARALLEL": {"MINBPE_NUM_PARALLEL", NumParallel, "Maximum number of texts encoded in parallel (default number of CPUs)"},
		"MINBPE_NORMALIZE":    {"MINBPE_NORMALIZE", Normalize, "Unicode normalization applied before training and encoding: none, NFC, NFD, NFKC or NFKD"},
	}
}

// Values returns the current configuration as strings, keyed by environment variable name.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// clean returns the environment variable value, without surrounding spaces or quotes.
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

// LoadConfig (re-)reads the configuration from the environment. Invalid values are logged and the
// default is used instead.
func LoadConfig() {
	VocabSize = DefaultVocabSize
	if s := clean("MINBPE_VOCAB_SIZE"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 256 {
			klog.Errorf("invalid setting MINBPE_VOCAB_SIZE=%q, must be an integer >= 256, using %d", s, DefaultVocabSize)
		} else {
			VocabSize = v
		}
	}

	Verbose = false
	if s := clean("MINBPE_VERBOSE"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			// Anything set that isn't a recognized boolean turns it on, e.g. MINBPE_VERBOSE=yes.
			v = true
		}
		Verbose = v
	}

	NumParallel = runtime.NumCPU()
	if s := clean("MINBPE_NUM_PARALLEL"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			klog.Errorf("invalid setting MINBPE_NUM_PARALLEL=%q, must be a positive integer, using %d", s, NumParallel)
		} else {
			NumParallel = v
		}
	}

	Normalize = clean("MINBPE_NORMALIZE")
}
