package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/estate/pkg/apiclient"
	"github.com/aussiebroadwan/estate/pkg/fingerprint"
	"github.com/aussiebroadwan/estate/pkg/httpx"
	"github.com/aussiebroadwan/estate/pkg/idx"
	"github.com/aussiebroadwan/estate/pkg/kv"
	"github.com/aussiebroadwan/estate/pkg/slogx"
	"github.com/aussiebroadwan/estate/pkg/tokenstore"
)

func newClient(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return apiclient.New(srv.URL, slogx.Discard())
}

func requireAPIError(t *testing.T, err error, status int, message string) *apiclient.Error {
	t.Helper()
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.Status)
	if message != "" {
		require.Equal(t, message, apiErr.Message)
	}
	return apiErr
}

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRequest_Timeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	_, err := c.Request(context.Background(), "/slow", apiclient.RequestOptions{Timeout: time.Millisecond})
	apiErr := requireAPIError(t, err, http.StatusRequestTimeout, "Request timeout")
	require.True(t, apiErr.IsTimeout())
}

func TestRequest_ClientDefaultTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	c.Timeout = 5 * time.Millisecond

	err := c.Get(context.Background(), "/slow", nil)
	requireAPIError(t, err, http.StatusRequestTimeout, "Request timeout")
}

func TestRequest_HTTPErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		data    bool
	}{
		{name: "message field", status: 400, body: `{"message":"Bad input"}`, message: "Bad input", data: true},
		{name: "error field", status: 401, body: `{"error":"unauthorized"}`, message: "unauthorized", data: true},
		{name: "message preferred", status: 409, body: `{"message":"taken","error":"conflict"}`, message: "taken", data: true},
		{name: "non-string message", status: 422, body: `{"message":{"field":"email"}}`, message: "Request failed with status 422", data: true},
		{name: "no message", status: 404, body: `{}`, message: "Request failed with status 404", data: true},
		{name: "not json", status: 502, body: `<html>Bad Gateway</html>`, message: "Request failed with status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Request(context.Background(), "/x", apiclient.RequestOptions{})
			apiErr := requireAPIError(t, err, tt.status, tt.message)
			if tt.data {
				require.JSONEq(t, tt.body, string(apiErr.Data))
			} else {
				require.Nil(t, apiErr.Data)
			}
			require.Equal(t, tt.status, apiclient.StatusOf(err))
		})
	}
}

func TestRequest_ValidateResult(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		validate bool
		status   int // 0 with wantErr false means success
		wantErr  bool
	}{
		{name: "null rejected", body: `null`, validate: true, status: 500, wantErr: true},
		{name: "string rejected", body: `"ok"`, validate: true, status: 500, wantErr: true},
		{name: "number rejected", body: `42`, validate: true, status: 500, wantErr: true},
		{name: "object accepted", body: `{"ok":true}`, validate: true},
		{name: "array accepted", body: `[1,2]`, validate: true},
		{name: "null passes unvalidated", body: `null`},
		{name: "plain text is a parse failure", body: `hello`, status: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			raw, err := c.Request(context.Background(), "/x", apiclient.RequestOptions{ValidateResult: tt.validate})
			if tt.wantErr {
				requireAPIError(t, err, tt.status, "")
				return
			}
			require.NoError(t, err)
			require.JSONEq(t, tt.body, string(raw))
		})
	}
}

func TestRequest_ResponseSizeLimit(t *testing.T) {
	big := `{"data":"` + strings.Repeat("x", 64) + `"}`

	tests := []struct {
		name    string
		status  int
		limit   int64
		want    int
		message string
	}{
		{name: "within limit", status: 200, limit: int64(len(big))},
		{name: "oversized success", status: 200, limit: 32, want: 0, message: "Response too large"},
		{name: "oversized error keeps status", status: 503, limit: 32, want: 503, message: "Request failed with status 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, big)
			})
			c.MaxResponseBytes = tt.limit

			raw, err := c.Request(context.Background(), "/x", apiclient.RequestOptions{})
			if tt.message == "" {
				require.NoError(t, err)
				require.JSONEq(t, big, string(raw))
				return
			}
			apiErr := requireAPIError(t, err, tt.want, tt.message)
			require.Nil(t, apiErr.Data)
		})
	}
}

func TestRequest_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := apiclient.New(url, slogx.Discard())
	_, err := c.Request(context.Background(), "/x", apiclient.RequestOptions{})
	apiErr := requireAPIError(t, err, 0, "Network error")
	require.True(t, apiErr.IsNetwork())
	require.NotNil(t, errors.Unwrap(apiErr))
}

func TestRequest_ParentCanceled(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Request(ctx, "/x", apiclient.RequestOptions{})
	requireAPIError(t, err, 0, "Request canceled")
}

func TestRequest_NoContent(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	raw, err := c.Request(context.Background(), "/x", apiclient.RequestOptions{Method: http.MethodDelete})
	require.NoError(t, err)
	require.Equal(t, "null", string(raw))
}

func TestRequest_Headers(t *testing.T) {
	var got http.Header
	var gotBody []byte
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
	c.Tokens = apiclient.TokenSourceFunc(func(_ context.Context, key string) string {
		if key == "agentToken" {
			return "agent.jwt.value"
		}
		return ""
	})
	c.CSRF = apiclient.StaticCSRF("csrf-123")

	t.Run("defaults", func(t *testing.T) {
		err := c.Post(context.Background(), "/inquiries", map[string]string{"name": "Ada"}, nil)
		require.NoError(t, err)

		require.Equal(t, "application/json", got.Get("Content-Type"))
		require.Equal(t, "application/json", got.Get("Accept"))
		require.Equal(t, "csrf-123", got.Get("X-CSRF-Token"))
		require.Empty(t, got.Get("Authorization"), "default key holds no token")
		require.JSONEq(t, `{"name":"Ada"}`, string(gotBody))

		_, err = idx.Parse(got.Get("X-Request-ID"))
		require.NoError(t, err)
	})

	t.Run("token key", func(t *testing.T) {
		err := c.Get(context.Background(), "/agent/me", nil, apiclient.WithTokenKey("agentToken"))
		require.NoError(t, err)
		require.Equal(t, "Bearer agent.jwt.value", got.Get("Authorization"))
	})

	t.Run("anonymous", func(t *testing.T) {
		err := c.Get(context.Background(), "/agent/me", nil,
			apiclient.WithTokenKey("agentToken"),
			apiclient.WithoutAuth(),
		)
		require.NoError(t, err)
		require.Empty(t, got.Get("Authorization"))
	})

	t.Run("caller headers win", func(t *testing.T) {
		err := c.Get(context.Background(), "/agent/me", nil,
			apiclient.WithTokenKey("agentToken"),
			apiclient.WithHeader("Authorization", "Bearer override"),
			apiclient.WithHeader("Content-Type", "text/plain"),
			apiclient.WithHeader("X-Extra", "1"),
		)
		require.NoError(t, err)
		require.Equal(t, "Bearer override", got.Get("Authorization"))
		require.Equal(t, "text/plain", got.Get("Content-Type"))
		require.Equal(t, "1", got.Get("X-Extra"))
	})

	t.Run("empty csrf omitted", func(t *testing.T) {
		c.CSRF = apiclient.StaticCSRF("")
		require.NoError(t, c.Get(context.Background(), "/", nil))
		_, ok := got["X-Csrf-Token"]
		require.False(t, ok)
	})
}

func TestRequest_ValidatedTokenSource(t *testing.T) {
	now := time.Now()
	backend := kv.NewMemory()
	home := fingerprint.Static{UserAgent: "estate (linux; amd64; home)", Language: "en-AU"}
	store := tokenstore.New(backend, home, tokenstore.WithLogger(slogx.Discard()))

	var auth atomic.Value
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		httpx.WriteJSON(w, http.StatusOK, map[string]any{})
	})

	t.Run("live token attached", func(t *testing.T) {
		token := mintToken(t, now.Add(time.Hour))
		require.NoError(t, store.SetWithFingerprint(context.Background(), "accessToken", token))

		c.Tokens = store
		require.NoError(t, c.Get(context.Background(), "/me", nil))
		require.Equal(t, "Bearer "+token, auth.Load())
	})

	t.Run("expired token withheld by validated path", func(t *testing.T) {
		token := mintToken(t, now.Add(time.Minute))
		require.NoError(t, store.SetWithFingerprint(context.Background(), "accessToken", token))

		c.Tokens = store
		require.NoError(t, c.Get(context.Background(), "/me", nil))
		require.Equal(t, "", auth.Load())

		c.Tokens = apiclient.Unvalidated(store)
		require.NoError(t, c.Get(context.Background(), "/me", nil))
		require.Equal(t, "Bearer "+token, auth.Load())
	})
}

func TestRequest_Limiter(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		httpx.WriteJSON(w, http.StatusOK, map[string]any{})
	})
	c.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	require.NoError(t, c.Get(context.Background(), "/a", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.Get(ctx, "/b", nil)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 0, apiErr.Status)
	require.Equal(t, int32(1), hits.Load())
}

func TestMethods_DecodeOut(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"method": r.Method, "path": r.URL.Path})
	})

	type echo struct {
		Method string `json:"method"`
		Path   string `json:"path"`
	}

	calls := []struct {
		method string
		call   func(out *echo) error
	}{
		{http.MethodGet, func(out *echo) error { return c.Get(context.Background(), "/p", out) }},
		{http.MethodPost, func(out *echo) error { return c.Post(context.Background(), "/p", struct{}{}, out) }},
		{http.MethodPut, func(out *echo) error { return c.Put(context.Background(), "/p", struct{}{}, out) }},
		{http.MethodPatch, func(out *echo) error { return c.Patch(context.Background(), "/p", struct{}{}, out) }},
		{http.MethodDelete, func(out *echo) error { return c.Delete(context.Background(), "p", out) }},
	}

	for _, tt := range calls {
		t.Run(tt.method, func(t *testing.T) {
			var out echo
			require.NoError(t, tt.call(&out))
			require.Equal(t, echo{Method: tt.method, Path: "/p"}, out)
		})
	}
}

func TestRequest_InvalidBody(t *testing.T) {
	c := apiclient.New("http://127.0.0.1:0", slogx.Discard())
	_, err := c.Request(context.Background(), "/x", apiclient.RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]any{"ch": make(chan int)},
	})
	requireAPIError(t, err, 0, "Invalid request body")
}

func TestError_Message(t *testing.T) {
	err := &apiclient.Error{Status: 400, Message: "Bad input", Data: json.RawMessage(`{}`)}
	require.True(t, strings.Contains(err.Error(), "Bad input"))
	require.True(t, strings.Contains(err.Error(), "400"))
	require.Equal(t, -1, apiclient.StatusOf(errors.New("plain")))
}
