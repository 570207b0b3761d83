package hfexport

import (
	"strings"

	"github.com/pkg/errors"
)

// Byte-level BPE encoding/decoding
// GPT-2 uses a specific byte-to-unicode mapping, so that every token is printable.
var byteToUnicode [256]rune
var unicodeToByte map[rune]byte

func init() {
	unicodeToByte = make(map[rune]byte, 256)
	n := 0
	for b := 0; b < 256; b++ {
		if (b >= '!' && b <= '~') || (b >= 0xa1 && b <= 0xac) || (b >= 0xae && b <= 0xff) {
			byteToUnicode[b] = rune(b)
		} else {
			byteToUnicode[b] = rune(256 + n)
			n++
		}
		unicodeToByte[byteToUnicode[b]] = byte(b)
	}
}

func encodeBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(byteToUnicode[c])
	}
	return sb.String()
}

func decodeToken(token string) ([]byte, error) {
	result := make([]byte, 0, len(token))
	for _, r := range token {
		b, ok := unicodeToByte[r]
		if !ok {
			return nil, errors.Errorf("token %q has character %q outside of the byte-level alphabet", token, r)
		}
		result = append(result, b)
	}
	return result, nil
}
