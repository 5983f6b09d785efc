// Package tokenstore binds a bearer token to the device that stored it.
//
// A token is persisted as three entries under its tokenKey: the token itself,
// "<tokenKey>_fp" holding the device fingerprint at store time, and
// "<tokenKey>_time" holding the store time in epoch milliseconds. Reads go
// through Validate, which purges the entries when the fingerprint no longer
// matches (the token was likely copied to another device) and reports expiry
// without purging (a refresh flow may still want the old claims).
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/fingerprint"
	"github.com/aussiebroadwan/estate/pkg/jwtx"
	"github.com/aussiebroadwan/estate/pkg/kv"
)

const (
	FingerprintSuffix = "_fp"
	TimestampSuffix   = "_time"
)

var (
	// ErrInvalidTokenFormat is returned when a token is not a compact JWT.
	// Such a value is never persisted.
	ErrInvalidTokenFormat = errors.New("tokenstore: invalid token format")

	// ErrNoToken means nothing is stored under the key.
	ErrNoToken = errors.New("tokenstore: no token")

	// ErrFingerprintMismatch means the token was stored on a different
	// device. The stored entries have been purged.
	ErrFingerprintMismatch = errors.New("tokenstore: fingerprint mismatch")

	// ErrFingerprintUnreadable means a fingerprint entry exists but could
	// not be read back. The stored entries have been purged.
	ErrFingerprintUnreadable = errors.New("tokenstore: fingerprint unreadable")

	// ErrTokenExpired means the token is expired or within the expiry buffer.
	ErrTokenExpired = errors.New("tokenstore: token expired")
)

// Keys returns the storage keys a token occupies, in the order token,
// fingerprint, timestamp.
func Keys(tokenKey string) []string {
	return []string{tokenKey, tokenKey + FingerprintSuffix, tokenKey + TimestampSuffix}
}

// Record is the persisted view of a stored token.
type Record struct {
	Value       string
	Fingerprint string // empty for records stored before fingerprinting
	StoredAt    time.Time
}

// Legacy reports whether the record predates fingerprinting.
func (r Record) Legacy() bool { return r.Fingerprint == "" }

type Store struct {
	kv     kv.Store
	env    fingerprint.Source
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Store)

// WithLogger sets the diagnostic sink. Security events are logged at Warn.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now for the timestamp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store persisting to backend and fingerprinting env.
func New(backend kv.Store, env fingerprint.Source, opts ...Option) *Store {
	s := &Store{
		kv:     backend,
		env:    env,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fingerprint returns the fingerprint of the current environment.
func (s *Store) Fingerprint() string {
	return fingerprint.FromSource(s.env)
}

// SetWithFingerprint stores token under tokenKey together with the current
// fingerprint and time. Anything that is not shaped like a compact JWT is
// rejected as a possible injection and not stored.
func (s *Store) SetWithFingerprint(ctx context.Context, tokenKey, token string) error {
	if !jwtx.IsValidFormat(token) {
		s.logger.WarnContext(ctx, "rejected token with invalid format",
			"token_key", tokenKey,
			"length", len(token),
		)
		return ErrInvalidTokenFormat
	}

	keys := Keys(tokenKey)
	err := s.kv.SetMany(ctx, map[string]string{
		keys[0]: token,
		keys[1]: s.Fingerprint(),
		keys[2]: strconv.FormatInt(s.now().UnixMilli(), 10),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store token", "token_key", tokenKey, "error", err)
		return err
	}

	return nil
}

// Validate returns the stored token if it was stored on this device and is
// not expired. A fingerprint mismatch purges the stored entries before
// returning ErrFingerprintMismatch, and so does a fingerprint entry that
// exists but cannot be read. Records without a fingerprint are accepted
// unverified.
func (s *Store) Validate(ctx context.Context, tokenKey string) (string, error) {
	token := s.Raw(ctx, tokenKey)
	if token == "" {
		return "", ErrNoToken
	}

	stored, err := s.kv.Get(ctx, tokenKey+FingerprintSuffix)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		s.logger.ErrorContext(ctx, "unreadable token fingerprint",
			"token_key", tokenKey,
			"token_digest", cryptox.ShortDigest(token),
			"error", err,
		)
		s.Clear(ctx, tokenKey)
		return "", fmt.Errorf("%w: %w", ErrFingerprintUnreadable, err)
	}
	if stored != "" && stored != s.Fingerprint() {
		s.logger.WarnContext(ctx, "fingerprint mismatch, possible token theft",
			"token_key", tokenKey,
			"token_digest", cryptox.ShortDigest(token),
		)
		s.Clear(ctx, tokenKey)
		return "", ErrFingerprintMismatch
	}

	if jwtx.IsExpiredAt(token, s.now()) {
		s.logger.DebugContext(ctx, "stored token expired", "token_key", tokenKey)
		return "", ErrTokenExpired
	}

	return token, nil
}

// GetValidated is Validate with every failure collapsed to "".
func (s *Store) GetValidated(ctx context.Context, tokenKey string) string {
	token, _ := s.Validate(ctx, tokenKey)
	return token
}

// Raw returns the stored token without any validation, or "".
func (s *Store) Raw(ctx context.Context, tokenKey string) string {
	return s.get(ctx, tokenKey)
}

// Record returns the stored entries for tokenKey without validating them.
func (s *Store) Record(ctx context.Context, tokenKey string) (Record, bool) {
	token := s.get(ctx, tokenKey)
	if token == "" {
		return Record{}, false
	}

	rec := Record{
		Value:       token,
		Fingerprint: s.get(ctx, tokenKey+FingerprintSuffix),
	}
	if ms, err := strconv.ParseInt(s.get(ctx, tokenKey+TimestampSuffix), 10, 64); err == nil {
		rec.StoredAt = time.UnixMilli(ms)
	}

	return rec, true
}

// Clear removes every entry of tokenKey. It is safe to call when nothing is
// stored; backend failures are logged, not returned.
func (s *Store) Clear(ctx context.Context, tokenKey string) {
	if err := s.kv.Delete(ctx, Keys(tokenKey)...); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear token", "token_key", tokenKey, "error", err)
	}
}

func (s *Store) get(ctx context.Context, key string) string {
	v, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to read storage", "key", key, "error", err)
		}
		return ""
	}
	return v
}
