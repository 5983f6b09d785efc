package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Option adjusts the RequestOptions of a convenience call.
type Option func(*RequestOptions)

// WithHeader sets a request header. It overrides headers set by the client.
func WithHeader(key, value string) Option {
	return func(o *RequestOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[key] = value
	}
}

// WithTokenKey selects which stored token authenticates the call.
func WithTokenKey(key string) Option {
	return func(o *RequestOptions) { o.TokenKey = key }
}

// WithoutAuth suppresses the Authorization header, e.g. for login calls.
func WithoutAuth() Option {
	return func(o *RequestOptions) { o.Anonymous = true }
}

func WithTimeout(d time.Duration) Option {
	return func(o *RequestOptions) { o.Timeout = d }
}

// WithValidation rejects 2xx bodies that are not a JSON object or array.
func WithValidation() Option {
	return func(o *RequestOptions) { o.ValidateResult = true }
}

func (c *Client) Get(ctx context.Context, endpoint string, out any, opts ...Option) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out, opts)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out, opts)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPut, endpoint, body, out, opts)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body, out any, opts ...Option) error {
	return c.do(ctx, http.MethodPatch, endpoint, body, out, opts)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts ...Option) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, out, opts)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any, opts []Option) error {
	ro := RequestOptions{Method: method, Body: body}
	for _, opt := range opts {
		opt(&ro)
	}

	raw, err := c.Request(ctx, endpoint, ro)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("apiclient: decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

// Call performs a request and unwraps the response envelope into T.
func Call[T any](ctx context.Context, c *Client, method, endpoint string, body any, shape Shape, opts ...Option) (T, error) {
	ro := RequestOptions{Method: method, Body: body}
	for _, opt := range opts {
		opt(&ro)
	}

	raw, err := c.Request(ctx, endpoint, ro)
	if err != nil {
		var zero T
		return zero, err
	}
	return Unwrap[T](raw, shape)
}
