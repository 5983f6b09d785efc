package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintToken(t *testing.T) {
	a := FingerprintToken("h.p.s")
	b := FingerprintToken("h.p.s")
	c := FingerprintToken("h.p.t")

	require.Len(t, a, 43)
	require.Equal(t, a, b, "digest must be deterministic")
	require.NotEqual(t, a, c)
	require.NotContains(t, a, "h.p.s")
}

func TestShortDigest(t *testing.T) {
	require.Len(t, ShortDigest("h.p.s"), 12)
	require.Equal(t, FingerprintToken("h.p.s")[:12], ShortDigest("h.p.s"))
}
