package kv_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/kv"
	"github.com/stretchr/testify/require"
)

func newEncrypted(t *testing.T) (*kv.Encrypted, *kv.Memory) {
	t.Helper()

	sealer, err := cryptox.NewSealer([]byte("kv-test-master-key"))
	require.NoError(t, err)

	inner := kv.NewMemory()
	return kv.NewEncrypted(inner, sealer), inner
}

func TestEncrypted_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, inner := newEncrypted(t)

	require.NoError(t, store.Set(ctx, "accessToken", "h.p.s"))
	require.NoError(t, store.SetMany(ctx, map[string]string{
		"accessToken_fp":   "51yprd",
		"accessToken_time": "1750000000000",
	}))

	got, err := store.Get(ctx, "accessToken")
	require.NoError(t, err)
	require.Equal(t, "h.p.s", got)

	got, err = store.Get(ctx, "accessToken_fp")
	require.NoError(t, err)
	require.Equal(t, "51yprd", got)

	// Keys are visible, values are not
	raw := inner.Snapshot()
	require.Len(t, raw, 3)
	require.NotEqual(t, "h.p.s", raw["accessToken"])
}

func TestEncrypted_NotFoundAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, inner := newEncrypted(t)

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, store.Set(ctx, "a", "1"))
	require.NoError(t, store.Delete(ctx, "a"))
	require.Zero(t, inner.Len())
}

func TestEncrypted_RejectsMovedValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, inner := newEncrypted(t)

	require.NoError(t, store.Set(ctx, "accessToken", "h.p.s"))
	raw := inner.Snapshot()

	// Copy the sealed consumer token into the admin slot
	require.NoError(t, inner.Set(ctx, "adminToken", raw["accessToken"]))

	_, err := store.Get(ctx, "adminToken")
	require.Error(t, err)

	require.NoError(t, inner.Set(ctx, "broken", "***"))
	_, err = store.Get(ctx, "broken")
	require.Error(t, err)
}
