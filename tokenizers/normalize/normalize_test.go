package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for name, want := range map[string]Form{"": None, "none": None, "nfc": NFC, " NFKD ": NFKD, "Nfd": NFD, "NFKC": NFKC} {
		got, err := Parse(name)
		require.NoError(t, err, "name %q", name)
		assert.Equal(t, want, got, "name %q", name)
	}
	_, err := Parse("NFX")
	require.Error(t, err)
}

func TestApply(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	assert.Equal(t, composed, Apply(NFC, decomposed))
	assert.Equal(t, decomposed, Apply(NFD, composed))
	assert.Equal(t, decomposed, Apply(None, decomposed))
	assert.Equal(t, "fi", Apply(NFKC, "\ufb01"))
	assert.Equal(t, "none", None.String())
	assert.Equal(t, "NFC", NFC.String())
}
