package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// FingerprintToken returns a deterministic SHA-256 digest of a token,
// base64url encoded (43 chars). Logs refer to tokens by this digest so the
// credential itself never reaches a log sink.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ShortDigest is the first 12 characters of FingerprintToken, enough to
// correlate log lines.
func ShortDigest(token string) string {
	return FingerprintToken(token)[:12]
}
