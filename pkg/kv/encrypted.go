package kv

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aussiebroadwan/estate/pkg/cryptox"
)

// Encrypted seals every value before handing it to the wrapped Store. Keys
// stay in the clear so the key layout remains inspectable. Each value is
// bound to its key, a sealed value copied to another key fails to open.
type Encrypted struct {
	inner  Store
	sealer *cryptox.Sealer
}

var _ Store = (*Encrypted)(nil)

func NewEncrypted(inner Store, sealer *cryptox.Sealer) *Encrypted {
	return &Encrypted{inner: inner, sealer: sealer}
}

func (e *Encrypted) Get(ctx context.Context, key string) (string, error) {
	stored, err := e.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}

	sealed, err := base64.RawStdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("kv: decode sealed value %q: %w", key, err)
	}

	plain, err := e.sealer.Open(sealed, []byte(key))
	if err != nil {
		return "", fmt.Errorf("kv: open sealed value %q: %w", key, err)
	}

	return string(plain), nil
}

func (e *Encrypted) Set(ctx context.Context, key, value string) error {
	sealed, err := e.seal(key, value)
	if err != nil {
		return err
	}
	return e.inner.Set(ctx, key, sealed)
}

func (e *Encrypted) SetMany(ctx context.Context, entries map[string]string) error {
	sealed := make(map[string]string, len(entries))
	for k, v := range entries {
		s, err := e.seal(k, v)
		if err != nil {
			return err
		}
		sealed[k] = s
	}
	return e.inner.SetMany(ctx, sealed)
}

func (e *Encrypted) Delete(ctx context.Context, keys ...string) error {
	return e.inner.Delete(ctx, keys...)
}

func (e *Encrypted) Close() error { return e.inner.Close() }

func (e *Encrypted) seal(key, value string) (string, error) {
	sealed, err := e.sealer.Seal([]byte(value), []byte(key))
	if err != nil {
		return "", fmt.Errorf("kv: seal value %q: %w", key, err)
	}
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}
