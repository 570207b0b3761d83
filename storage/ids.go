package storage

import (
	"github.com/gomlx/go-minbpe/tokenizers/api"
	"github.com/gomlx/go-minbpe/tokenizers/bpe"
	"github.com/pkg/errors"
)

// ReadIDs reads a file with comma-separated symbol ids.
func ReadIDs(path string) ([]api.SymbolID, error) {
	content, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	ids, err := bpe.ParseIDs(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading ids from %q", path)
	}
	return ids, nil
}

// WriteIDs writes ids as comma-separated numbers to path.
func WriteIDs(path string, ids []api.SymbolID) error {
	return WriteFile(path, []byte(bpe.FormatIDs(ids)))
}
