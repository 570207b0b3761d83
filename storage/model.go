package storage

import (
	"strings"

	"github.com/gomlx/go-minbpe/tokenizers/bpe"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CompressedSuffix marks model files stored zstd-compressed.
const CompressedSuffix = ".zst"

// IsCompressed returns whether a model stored at path is zstd-compressed.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedSuffix)
}

// SaveModel writes the model, in its persisted text form, to path. If path ends with ".zst" the
// content is zstd-compressed.
func SaveModel(path string, m *bpe.Model) error {
	data := []byte(bpe.Serialize(m))
	if IsCompressed(path) {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return errors.Wrapf(err, "failed to create zstd encoder")
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return errors.Wrapf(err, "failed to close zstd encoder")
		}
	}
	if err := WriteFile(path, data); err != nil {
		return errors.WithMessagef(err, "saving model")
	}
	klog.V(1).Infof("Saved model with %d merges to %q (%d bytes)", m.NumMerges(), path, len(data))
	return nil
}

// LoadModel reads a model saved by SaveModel (or by any tool writing the same format).
// Malformed content fails with an error matching bpe.ErrParse.
func LoadModel(path string) (*bpe.Model, error) {
	content, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	if IsCompressed(path) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create zstd decoder")
		}
		defer dec.Close()
		decompressed, err := dec.DecodeAll([]byte(content), nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decompress model %q", path)
		}
		content = string(decompressed)
	}
	m, err := bpe.Deserialize(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading model from %q", path)
	}
	klog.V(1).Infof("Loaded model with %d merges from %q", m.NumMerges(), path)
	return m, nil
}
