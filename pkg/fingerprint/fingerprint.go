// Package fingerprint derives a stable, non-cryptographic device fingerprint
// from environment attributes. The value is a tamper-evidence signal used to
// notice a token being replayed from another machine, not an identity proof.
package fingerprint

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// Placeholder is substituted for any attribute the environment cannot report.
const Placeholder = "unknown"

const delimiter = "|"

// Environment holds the attributes a fingerprint is computed from.
type Environment struct {
	UserAgent string
	Language  string

	ScreenWidth  int
	ScreenHeight int
	ColorDepth   int

	// TimezoneOffset is in minutes, positive west of UTC (UTC+10 is -600).
	TimezoneOffset int

	SessionStorage bool
	LocalStorage   bool
}

// Source reports the current environment.
type Source interface {
	Environment() Environment
}

// SourceFunc adapts a function to a Source.
type SourceFunc func() Environment

func (f SourceFunc) Environment() Environment { return f() }

// Static is a Source that always reports the same environment.
type Static Environment

func (s Static) Environment() Environment { return Environment(s) }

// Components returns the stringified attributes in hashing order.
func (e Environment) Components() []string {
	screen := Placeholder
	if e.ScreenWidth > 0 && e.ScreenHeight > 0 {
		screen = strconv.Itoa(e.ScreenWidth) + "x" + strconv.Itoa(e.ScreenHeight)
	}

	depth := Placeholder
	if e.ColorDepth > 0 {
		depth = strconv.Itoa(e.ColorDepth)
	}

	return []string{
		orPlaceholder(e.UserAgent),
		orPlaceholder(e.Language),
		screen,
		depth,
		strconv.Itoa(e.TimezoneOffset),
		strconv.FormatBool(e.SessionStorage),
		strconv.FormatBool(e.LocalStorage),
	}
}

// Generate returns the fingerprint for env: a 32-bit rolling hash over the
// UTF-16 code units of the joined components, absolute value, base 36.
func Generate(env Environment) string {
	return hash(strings.Join(env.Components(), delimiter))
}

// FromSource is Generate over the environment src currently reports.
func FromSource(src Source) string {
	if src == nil {
		return Generate(Environment{})
	}
	return Generate(src.Environment())
}

func hash(s string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		// (h << 5) - h + c, wrapping at 32 bits
		h = h*31 + int32(unit)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
