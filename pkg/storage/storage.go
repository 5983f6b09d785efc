// Package storage is the best-effort facade over the kv layer used for UI
// state: cached user profiles, favorites and the per-role session keys.
// Nothing in here returns an error; failures are logged and reported as a
// default value or false.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/estate/pkg/kv"
	"github.com/aussiebroadwan/estate/pkg/tokenstore"
)

// FavoritesKey holds the locally cached favorite property IDs.
const FavoritesKey = "favorites"

type Facade struct {
	kv         kv.Store
	logger     *slog.Logger
	namespaces []Namespace
	extraKeys  []string
}

type Option func(*Facade)

func WithLogger(l *slog.Logger) Option {
	return func(f *Facade) { f.logger = l }
}

// WithNamespaces replaces DefaultNamespaces.
func WithNamespaces(ns ...Namespace) Option {
	return func(f *Facade) { f.namespaces = ns }
}

// WithExtraSessionKeys adds keys that ClearAppSessionStorage removes on top
// of the namespace keys and FavoritesKey.
func WithExtraSessionKeys(keys ...string) Option {
	return func(f *Facade) { f.extraKeys = append(f.extraKeys, keys...) }
}

func New(backend kv.Store, opts ...Option) *Facade {
	f := &Facade{
		kv:         backend,
		logger:     slog.Default(),
		namespaces: DefaultNamespaces(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Namespaces returns the configured role namespaces.
func (f *Facade) Namespaces() []Namespace {
	return append([]Namespace(nil), f.namespaces...)
}

// Namespace returns the namespace configured for role.
func (f *Facade) Namespace(role Role) (Namespace, bool) {
	for _, ns := range f.namespaces {
		if ns.Role == role {
			return ns, true
		}
	}
	return Namespace{}, false
}

// GetItem decodes the JSON value stored under key into T, returning def when
// the key is missing or the value cannot be read.
func GetItem[T any](ctx context.Context, f *Facade, key string, def T) T {
	raw, err := f.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			f.logger.ErrorContext(ctx, "storage read failed", "key", key, "error", err)
		}
		return def
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		f.logger.ErrorContext(ctx, "storage value is not valid JSON", "key", key, "error", err)
		return def
	}
	return out
}

// SetItem stores value as JSON under key.
func (f *Facade) SetItem(ctx context.Context, key string, value any) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		f.logger.ErrorContext(ctx, "storage value cannot be serialised", "key", key, "error", err)
		return false
	}

	if err := f.kv.Set(ctx, key, string(raw)); err != nil {
		f.logger.ErrorContext(ctx, "storage write failed", "key", key, "error", err)
		return false
	}
	return true
}

// RemoveItem deletes key.
func (f *Facade) RemoveItem(ctx context.Context, key string) bool {
	if err := f.kv.Delete(ctx, key); err != nil {
		f.logger.ErrorContext(ctx, "storage delete failed", "key", key, "error", err)
		return false
	}
	return true
}

// SessionKeys enumerates every key that belongs to a signed-in session of
// any role: each token with its fingerprint and timestamp entries, each
// cached user profile, and the favorites cache.
func (f *Facade) SessionKeys() []string {
	keys := make([]string, 0, len(f.namespaces)*4+1+len(f.extraKeys))
	for _, ns := range f.namespaces {
		keys = append(keys, tokenstore.Keys(ns.TokenKey)...)
		keys = append(keys, ns.UserKey)
	}
	keys = append(keys, FavoritesKey)
	return append(keys, f.extraKeys...)
}

// ClearAppSessionStorage removes every session key for every role. It is
// the single logout path regardless of which role signed in.
func (f *Facade) ClearAppSessionStorage(ctx context.Context) bool {
	keys := f.SessionKeys()
	if err := f.kv.Delete(ctx, keys...); err != nil {
		f.logger.ErrorContext(ctx, "failed to clear session storage", "keys", len(keys), "error", err)
		return false
	}

	f.logger.DebugContext(ctx, "session storage cleared", "keys", len(keys))
	return true
}
