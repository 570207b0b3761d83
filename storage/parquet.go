package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

// ParquetExt is the extension of dataset shards read by ReadCorpus.
const ParquetExt = ".parquet"

// DefaultTextColumn is the column read from parquet shards when none is given.
const DefaultTextColumn = "text"

// ReadCorpus reads a training corpus: for ".parquet" files, the rows of the given text column
// (DefaultTextColumn if empty) joined by newlines; for anything else, the whole file.
func ReadCorpus(path, column string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ParquetExt) {
		if column == "" {
			column = DefaultTextColumn
		}
		return ReadParquetText(path, column)
	}
	return ReadText(path)
}

// ReadParquetText reads all values of a string (byte array) column of a parquet file, joined by
// newlines. Null values are skipped.
func ReadParquetText(path, column string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to open %q", path)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat %q", path)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return "", errors.Wrapf(err, "failed to open parquet file %q", path)
	}
	leaf, found := pf.Schema().Lookup(column)
	if !found {
		return "", errors.Errorf("parquet file %q has no column %q", path, column)
	}
	if kind := leaf.Node.Type().Kind(); kind != parquet.ByteArray {
		return "", errors.Errorf("parquet file %q column %q has type %s, expected a string column", path, column, kind)
	}

	var sb strings.Builder
	first := true
	rowsBuf := make([]parquet.Row, 128)
	for _, rowGroup := range pf.RowGroups() {
		err := func() error {
			rows := rowGroup.Rows()
			defer func() { _ = rows.Close() }()
			for {
				n, err := rows.ReadRows(rowsBuf)
				for _, row := range rowsBuf[:n] {
					for _, value := range row {
						if value.Column() != leaf.ColumnIndex || value.IsNull() {
							continue
						}
						if !first {
							sb.WriteByte('\n')
						}
						sb.Write(value.ByteArray())
						first = false
					}
				}
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
			}
		}()
		if err != nil {
			return "", errors.Wrapf(err, "failed reading rows of %q", path)
		}
	}
	return sb.String(), nil
}
