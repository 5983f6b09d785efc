// Package jwtx reads JWT payloads on the client side.
//
// Nothing here verifies a signature. Decoding exists so a client can look at
// the exp claim and stop sending a token that is about to die; it is never a
// proof of authentication.
package jwtx

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryBuffer is how long before its real exp a token is already treated as
// expired, so a request does not start with a token that dies mid-flight.
const ExpiryBuffer = 300 * time.Second

var formatRe = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

// segmentParser decodes base64url segments with or without padding.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// IsValidFormat reports whether token is three non-empty dot-separated
// base64url segments.
func IsValidFormat(token string) bool {
	return formatRe.MatchString(token)
}

// Decode returns the payload claims of a compact JWT, or nil when the token
// is malformed in any way.
func Decode(token string) jwt.MapClaims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil
	}

	raw, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil
	}

	if !utf8.Valid(raw) {
		return nil
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(raw, &claims); err != nil || claims == nil {
		return nil
	}

	return claims
}

// ExpiryDate returns the exp claim as a time, without any buffer.
func ExpiryDate(token string) (time.Time, bool) {
	claims := Decode(token)
	if claims == nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// IsExpired reports whether token should no longer be used. Tokens that do
// not decode or carry no exp are expired.
func IsExpired(token string) bool {
	return IsExpiredAt(token, time.Now())
}

// IsExpiredAt is IsExpired evaluated at now, at second granularity.
func IsExpiredAt(token string, now time.Time) bool {
	exp, ok := ExpiryDate(token)
	if !ok {
		return true
	}

	return exp.Unix() < now.Add(ExpiryBuffer).Unix()
}
