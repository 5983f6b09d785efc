package apiclient

import (
	"context"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// CSRFMetaName is the name of the meta tag carrying the CSRF token.
const CSRFMetaName = "csrf-token"

// CSRFSource yields the token sent as X-CSRF-Token. An empty result means no
// header is sent.
type CSRFSource interface {
	CSRFToken(ctx context.Context) string
}

// StaticCSRF is a fixed token.
type StaticCSRF string

func (s StaticCSRF) CSRFToken(context.Context) string { return string(s) }

// HTMLDocument reads the token from a <meta name="csrf-token"> tag. The
// document is opened again on every request so a rotated token is picked up.
// A missing document or tag is not an error.
type HTMLDocument struct {
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// DocumentFile returns an HTMLDocument backed by a file on disk.
func DocumentFile(path string) *HTMLDocument {
	return &HTMLDocument{
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func (d *HTMLDocument) CSRFToken(ctx context.Context) string {
	if d == nil || d.Open == nil {
		return ""
	}
	rc, err := d.Open(ctx)
	if err != nil {
		return ""
	}
	defer rc.Close()

	return MetaContent(rc, CSRFMetaName)
}

// MetaContent returns the content attribute of the first <meta> element
// whose name matches, or "" if there is none.
func MetaContent(r io.Reader, name string) string {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := z.TagName()
			if string(tn) != "meta" || !hasAttr {
				continue
			}

			var metaName, content string
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				switch string(key) {
				case "name":
					metaName = string(val)
				case "content":
					content = string(val)
				}
			}
			if strings.EqualFold(metaName, name) {
				return content
			}
		}
	}
}
