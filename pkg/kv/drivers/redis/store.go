// Package redis is a kv.Store on Redis, for agents sharing one session cache
// across machines or running the CLI inside short-lived containers.
package redis

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/estate/pkg/kv"
	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "estate"

type Store struct {
	client goredis.UniversalClient
	prefix string
	owned  bool
}

var _ kv.Store = (*Store)(nil)

// New wraps an existing client. Keys are stored as "<prefix>:<key>". The
// caller keeps ownership of client.
func New(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects to addr and verifies the connection with PING. The returned
// Store closes the client on Close.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	s := New(client, prefix)
	s.owned = true
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

// SetMany writes all entries in one MULTI/EXEC transaction.
func (s *Store) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for k, v := range entries {
		pipe.Set(ctx, s.key(k), v, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}
	return s.client.Del(ctx, prefixed...).Err()
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}
