// Package normalize applies optional Unicode normalization to text before it is used for training or
// encoding. Decoding never normalizes: it returns exactly the bytes that were encoded.
package normalize

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// Form of normalization. The zero value, None, leaves text untouched.
type Form string

const (
	None Form = ""
	NFC  Form = "NFC"
	NFD  Form = "NFD"
	NFKC Form = "NFKC"
	NFKD Form = "NFKD"
)

// Parse converts a (case-insensitive) name to a Form. "" and "none" map to None.
func Parse(name string) (Form, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "NONE":
		return None, nil
	case "NFC":
		return NFC, nil
	case "NFD":
		return NFD, nil
	case "NFKC":
		return NFKC, nil
	case "NFKD":
		return NFKD, nil
	}
	return None, errors.Errorf("unknown normalization form %q, valid values are none, NFC, NFD, NFKC or NFKD", name)
}

// Apply returns text normalized with form.
func Apply(form Form, text string) string {
	switch form {
	case NFC:
		return norm.NFC.String(text)
	case NFD:
		return norm.NFD.String(text)
	case NFKC:
		return norm.NFKC.String(text)
	case NFKD:
		return norm.NFKD.String(text)
	default:
		return text
	}
}

// String implements fmt.Stringer.
func (f Form) String() string {
	if f == None {
		return "none"
	}
	return string(f)
}
