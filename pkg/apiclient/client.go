package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/estate/pkg/httpx"
	"github.com/aussiebroadwan/estate/pkg/idx"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

const (
	DefaultTimeout          = 10 * time.Second
	DefaultTokenKey         = "accessToken"
	DefaultMaxResponseBytes = 4 << 20
)

// TokenSource returns the bearer token stored under key, or "" when there is
// no usable token.
type TokenSource interface {
	GetValidated(ctx context.Context, key string) string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context, key string) string

func (f TokenSourceFunc) GetValidated(ctx context.Context, key string) string { return f(ctx, key) }

// Unvalidated attaches whatever token is stored, skipping the fingerprint
// and expiry checks. It exists for backends that still rely on receiving an
// expired token to issue a refresh.
func Unvalidated(src interface {
	Raw(ctx context.Context, key string) string
}) TokenSource {
	return TokenSourceFunc(src.Raw)
}

// Client talks to the marketplace backend.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Tokens supplies the Authorization header. Nil sends no header.
	Tokens TokenSource
	// CSRF supplies the X-CSRF-Token header. Nil sends no header.
	CSRF CSRFSource
	// Limiter throttles outgoing requests. Nil disables throttling.
	Limiter *rate.Limiter

	// Timeout bounds each request, including reading the body.
	// Default: 10s
	Timeout time.Duration
	// TokenKey is the token used when a request does not name one.
	// Default: "accessToken"
	TokenKey string
	// MaxResponseBytes caps how much of a response body is read.
	// Default: 4 MiB
	MaxResponseBytes int64

	Logger *slog.Logger
}

// New creates a client whose HTTP calls are logged through logger.
func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Transport: slogx.NewTransport(nil, logger)},
		Timeout:    DefaultTimeout,
		TokenKey:   DefaultTokenKey,
		Logger:     logger,
	}
}

// RequestOptions configures a single call. Zero values fall back to the
// client defaults.
type RequestOptions struct {
	Method  string
	Body    any
	Headers map[string]string
	// TokenKey selects the stored token, e.g. "agentToken".
	TokenKey string
	// Anonymous sends no Authorization header.
	Anonymous bool
	Timeout  time.Duration
	// ValidateResult rejects a 2xx body that is not a JSON object or array.
	ValidateResult bool
}

// Request performs the call and returns the raw JSON body of a 2xx
// response. Every error is an *Error.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (json.RawMessage, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &Error{Status: StatusNetwork, Message: MsgInvalidBody, err: err}
		}
		body = bytes.NewReader(b)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, &Error{Status: StatusNetwork, Message: MsgCanceled, err: ctx.Err()}
			}
			return nil, &Error{Status: StatusNetwork, Message: MsgRateLimitAbort, err: err}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout(opts.Timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.url(endpoint), body)
	if err != nil {
		return nil, &Error{Status: StatusNetwork, Message: MsgNetwork, err: err}
	}
	c.setHeaders(ctx, req, opts)

	logger := slogx.Logger(ctx, c.logger()).With(
		"method", method,
		"endpoint", endpoint,
		"req_id", req.Header.Get(httpx.HeaderRequestID),
	)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		apiErr := classify(ctx, reqCtx, err)
		logger.WarnContext(ctx, "api request failed", "status", apiErr.Status, "error", err)
		return nil, apiErr
	}
	defer resp.Body.Close()

	limit := c.maxResponseBytes()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		apiErr := classify(ctx, reqCtx, err)
		logger.WarnContext(ctx, "api response unreadable", "status", apiErr.Status, "error", err)
		return nil, apiErr
	}

	tooLarge := int64(len(raw)) > limit
	if tooLarge {
		// A truncated body never parses; error statuses keep the generic message
		raw = nil
	}

	parsed, isJSON := parseJSON(raw, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Message: serverMessage(parsed, resp.StatusCode)}
		if isJSON {
			apiErr.Data = parsed
		}
		logger.DebugContext(ctx, "api request rejected", "status", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	if tooLarge {
		logger.WarnContext(ctx, "api response exceeds limit", "status", resp.StatusCode, "limit", limit)
		return nil, &Error{Status: StatusNetwork, Message: MsgTooLarge}
	}

	if !isJSON {
		logger.WarnContext(ctx, "api response is not json", "status", resp.StatusCode)
		return nil, &Error{Status: StatusNetwork, Message: MsgInvalidJSON}
	}

	if opts.ValidateResult && !isContainer(parsed) {
		logger.WarnContext(ctx, "api response has invalid shape", "status", resp.StatusCode)
		return nil, &Error{Status: http.StatusInternalServerError, Message: MsgInvalidFormat, Data: parsed}
	}

	return parsed, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, opts RequestOptions) {
	req.Header.Set(httpx.HeaderContentType, httpx.ContentTypeJSON)
	req.Header.Set(httpx.HeaderAccept, httpx.ContentTypeJSON)
	req.Header.Set(httpx.HeaderRequestID, idx.New().String())

	if c.Tokens != nil && !opts.Anonymous {
		if token := c.Tokens.GetValidated(ctx, c.tokenKey(opts.TokenKey)); token != "" {
			req.Header.Set(httpx.HeaderAuthorization, "Bearer "+token)
		}
	}

	if c.CSRF != nil {
		if csrf := c.CSRF.CSRFToken(ctx); csrf != "" {
			req.Header.Set(httpx.HeaderCSRFToken, csrf)
		}
	}

	// Caller headers win
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
}

// classify maps a transport error onto Status 0 or 408. A cancelled parent
// context is not a timeout.
func classify(parent, reqCtx context.Context, err error) *Error {
	if parent.Err() != nil {
		if errors.Is(parent.Err(), context.DeadlineExceeded) {
			return &Error{Status: http.StatusRequestTimeout, Message: MsgTimeout, err: err}
		}
		return &Error{Status: StatusNetwork, Message: MsgCanceled, err: err}
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &Error{Status: http.StatusRequestTimeout, Message: MsgTimeout, err: err}
	}
	return &Error{Status: StatusNetwork, Message: MsgNetwork, err: err}
}

// parseJSON trims the body and reports whether it is valid JSON. An empty
// 204 body reads as null.
func parseJSON(raw []byte, status int) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 && status == http.StatusNoContent {
		return json.RawMessage("null"), true
	}
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

func isContainer(body json.RawMessage) bool {
	return len(body) > 0 && (body[0] == '{' || body[0] == '[')
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.BaseURL + endpoint
}

func (c *Client) timeout(override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) tokenKey(override string) string {
	if override != "" {
		return override
	}
	if c.TokenKey != "" {
		return c.TokenKey
	}
	return DefaultTokenKey
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Client) maxResponseBytes() int64 {
	if c.MaxResponseBytes > 0 {
		return c.MaxResponseBytes
	}
	return DefaultMaxResponseBytes
}
