package fingerprint

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// Host reports the attributes of the machine the process runs on. Screen
// geometry is left unknown unless set explicitly since a terminal has none
// that stays stable between invocations.
type Host struct {
	// Product prefixes the synthesized user agent.
	Product string

	ScreenWidth  int
	ScreenHeight int
	ColorDepth   int

	SessionStorage bool
	LocalStorage   bool

	// Now is used for the timezone offset; defaults to time.Now.
	Now func() time.Time
}

func (h Host) Environment() Environment {
	product := h.Product
	if product == "" {
		product = "estate"
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = Placeholder
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	_, offset := now().Zone()

	return Environment{
		UserAgent:      fmt.Sprintf("%s (%s; %s; %s)", product, runtime.GOOS, runtime.GOARCH, hostname),
		Language:       language(),
		ScreenWidth:    h.ScreenWidth,
		ScreenHeight:   h.ScreenHeight,
		ColorDepth:     h.ColorDepth,
		TimezoneOffset: -offset / 60,
		SessionStorage: h.SessionStorage,
		LocalStorage:   h.LocalStorage,
	}
}

// language follows the POSIX locale precedence and trims the encoding,
// "en_AU.UTF-8" becomes "en-AU".
func language() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return ""
}
