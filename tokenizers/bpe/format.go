package bpe

import (
	"bytes"
	"slices"
	"strconv"
	"strings"

	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/pkg/errors"
)

// Persisted model format, flat text with one field per line:
//
//	vocab_size
//	num_merges
//	left,right,id left,right,id ...
//	id,byte0,byte1,... id,byte0,... ...
//
// Merges are written in priority order, and vocabulary entries sorted by id.

// Serialize converts the model to its persisted text form.
func Serialize(m *Model) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(m.vocabSize))
	sb.WriteByte('\n')
	sb.WriteString(strconv.Itoa(len(m.rules)))
	sb.WriteByte('\n')
	for i, rule := range m.rules {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatUint(uint64(rule.Pair.Left)))
		sb.WriteByte(',')
		sb.WriteString(formatUint(uint64(rule.Pair.Right)))
		sb.WriteByte(',')
		sb.WriteString(formatUint(uint64(rule.ID)))
	}
	sb.WriteByte('\n')
	for i, id := range m.IDs() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatUint(uint64(id)))
		for _, b := range m.vocab[id] {
			sb.WriteByte(',')
			sb.WriteString(formatUint(uint64(b)))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// Deserialize parses a model in the format written by Serialize.
//
// Besides syntax, it checks the model is consistent: the base entries are present, and every merged
// entry expands to the concatenation of its pair. Any problem is reported as ErrParse, and no partial
// model is returned.
func Deserialize(content string) (*Model, error) {
	lines := strings.Split(content, "\n")
	if len(lines) < 4 {
		return nil, errors.Wrapf(ErrParse, "model has %d lines, expected at least 4", len(lines))
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	vocabSize, err := strconv.Atoi(lines[0])
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "vocab_size %q: %v", lines[0], err)
	}
	if vocabSize < api.NumBaseSymbols {
		return nil, errors.Wrapf(ErrParse, "vocab_size %d is smaller than %d", vocabSize, api.NumBaseSymbols)
	}
	numMerges, err := strconv.Atoi(lines[1])
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "num_merges %q: %v", lines[1], err)
	}

	mergeFields := strings.Fields(lines[2])
	if numMerges != len(mergeFields) {
		return nil, errors.Wrapf(ErrParse, "num_merges is %d, but %d merges are listed", numMerges, len(mergeFields))
	}
	rules := make([]Rule, 0, len(mergeFields))
	for _, field := range mergeFields {
		parts := strings.Split(field, ",")
		if len(parts) != 3 {
			return nil, errors.Wrapf(ErrParse, "merge %q: expected \"left,right,id\"", field)
		}
		var values [3]api.SymbolID
		for i, part := range parts {
			values[i], err = parseSymbolID(part)
			if err != nil {
				return nil, errors.WithMessagef(err, "merge %q", field)
			}
		}
		rules = append(rules, Rule{Pair: Pair{values[0], values[1]}, ID: values[2]})
	}

	vocab := make(map[api.SymbolID][]byte)
	for _, field := range strings.Fields(lines[3]) {
		parts := strings.Split(field, ",")
		if len(parts) < 2 {
			return nil, errors.Wrapf(ErrParse, "vocab entry %q: expected \"id,byte,...\"", field)
		}
		id, err := parseSymbolID(parts[0])
		if err != nil {
			return nil, errors.WithMessagef(err, "vocab entry %q", field)
		}
		if _, found := vocab[id]; found {
			return nil, errors.Wrapf(ErrParse, "vocab entry %q: id %d listed twice", field, id)
		}
		entry := make([]byte, len(parts)-1)
		for i, part := range parts[1:] {
			b, err := strconv.ParseUint(part, 10, 8)
			if err != nil {
				return nil, errors.Wrapf(ErrParse, "vocab entry %q: byte %q: %v", field, part, err)
			}
			entry[i] = byte(b)
		}
		vocab[id] = entry
	}

	if err := validate(rules, vocab); err != nil {
		return nil, err
	}
	return newModel(vocabSize, rules, vocab), nil
}

// validate checks the vocabulary invariants: base entries map to their own byte, and merged entries
// are the concatenation of their pair's entries.
func validate(rules []Rule, vocab map[api.SymbolID][]byte) error {
	for id := range api.NumBaseSymbols {
		entry, ok := vocab[api.SymbolID(id)]
		if !ok || len(entry) != 1 || entry[0] != byte(id) {
			return errors.Wrapf(ErrParse, "base vocab entry %d is missing or is not [%d]", id, id)
		}
	}
	seenIDs := make(map[api.SymbolID]bool, len(rules))
	seenPairs := make(map[Pair]bool, len(rules))
	for _, rule := range rules {
		if seenPairs[rule.Pair] {
			return errors.Wrapf(ErrParse, "merge %s -> %d: pair listed twice", rule.Pair, rule.ID)
		}
		seenPairs[rule.Pair] = true
		if rule.ID < api.NumBaseSymbols {
			return errors.Wrapf(ErrParse, "merge %s -> %d: id is in the base alphabet", rule.Pair, rule.ID)
		}
		if seenIDs[rule.ID] {
			return errors.Wrapf(ErrParse, "merge %s -> %d: id assigned twice", rule.Pair, rule.ID)
		}
		seenIDs[rule.ID] = true
		entry, ok := vocab[rule.ID]
		if !ok {
			return errors.Wrapf(ErrParse, "merge %s -> %d: id not in vocab", rule.Pair, rule.ID)
		}
		left, okLeft := vocab[rule.Pair.Left]
		right, okRight := vocab[rule.Pair.Right]
		if !okLeft || !okRight {
			return errors.Wrapf(ErrParse, "merge %s -> %d: pair not in vocab", rule.Pair, rule.ID)
		}
		if !bytes.Equal(entry, slices.Concat(left, right)) {
			return errors.Wrapf(ErrParse, "merge %s -> %d: vocab entry %v doesn't match %v + %v",
				rule.Pair, rule.ID, entry, left, right)
		}
	}
	if len(vocab) != api.NumBaseSymbols+len(rules) {
		return errors.Wrapf(ErrParse, "vocab has %d entries, expected %d base entries plus %d merged ones",
			len(vocab), api.NumBaseSymbols, len(rules))
	}
	return nil
}

func parseSymbolID(s string) (api.SymbolID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrParse, "symbol id %q: %v", s, err)
	}
	return api.SymbolID(v), nil
}

// FormatIDs formats ids as comma-separated decimal numbers, e.g. "97,256,98".
func FormatIDs(ids []api.SymbolID) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(formatUint(uint64(id)))
	}
	return sb.String()
}

// ParseIDs parses comma-separated decimal ids, as written by FormatIDs.
// Surrounding whitespace is ignored, and an empty string yields no ids.
func ParseIDs(s string) ([]api.SymbolID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []api.SymbolID{}, nil
	}
	fields := strings.Split(s, ",")
	ids := make([]api.SymbolID, len(fields))
	for i, field := range fields {
		id, err := parseSymbolID(field)
		if err != nil {
			return nil, errors.WithMessagef(err, "ids list, position %d (expected comma separated numbers like 1,2,3)", i)
		}
		ids[i] = id
	}
	return ids, nil
}
