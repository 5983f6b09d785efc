package apiclient_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/estate/pkg/apiclient"
)

func TestMetaContent(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "head meta",
			doc:  `<html><head><meta charset="utf-8"><meta name="csrf-token" content="abc123"></head></html>`,
			want: "abc123",
		},
		{
			name: "self closing, content first",
			doc:  `<meta content="xyz" name="csrf-token"/>`,
			want: "xyz",
		},
		{
			name: "other meta only",
			doc:  `<meta name="viewport" content="width=device-width">`,
		},
		{
			name: "no document",
		},
		{
			name: "first match wins",
			doc:  `<meta name="csrf-token" content="one"><meta name="csrf-token" content="two">`,
			want: "one",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, apiclient.MetaContent(strings.NewReader(tt.doc), "csrf-token"))
		})
	}
}

func TestHTMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	doc := apiclient.DocumentFile(path)

	require.Empty(t, doc.CSRFToken(context.Background()), "missing file is not an error")

	require.NoError(t, os.WriteFile(path, []byte(`<meta name="csrf-token" content="v1">`), 0o600))
	require.Equal(t, "v1", doc.CSRFToken(context.Background()))

	// Re-read on every call
	require.NoError(t, os.WriteFile(path, []byte(`<meta name="csrf-token" content="v2">`), 0o600))
	require.Equal(t, "v2", doc.CSRFToken(context.Background()))

	failing := &apiclient.HTMLDocument{Open: func(context.Context) (io.ReadCloser, error) {
		return nil, errors.New("boom")
	}}
	require.Empty(t, failing.CSRFToken(context.Background()))

	var nilDoc *apiclient.HTMLDocument
	require.Empty(t, nilDoc.CSRFToken(context.Background()))
}
