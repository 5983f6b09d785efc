// Package kv is the persistent key-value layer the session code writes to.
// It plays the part browser local storage plays for a web client: flat string
// keys, string values, no expiry.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: not found")

// Store is a flat string key-value store.
type Store interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// SetMany stores every entry in one call. Backends that can make the
	// write atomic do so.
	SetMany(ctx context.Context, entries map[string]string) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases any underlying resources.
	Close() error
}
