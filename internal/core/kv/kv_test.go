package kv_test

import (
	"context"
	"testing"

	"github.com/colonyops/taskboard/internal/core/kv"
	"github.com/colonyops/taskboard/internal/data/db"
	"github.com/colonyops/taskboard/internal/data/stores"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) kv.KV {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewKVStore(database)
}

func TestTypedKV_SetAndGet(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[string](newTestKV(t), "test")

	require.NoError(t, typed.Set(ctx, "greeting", "hello"))

	got, err := typed.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestTypedKV_ScopedPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestKV(t)

	alpha := kv.Scoped[int](store, "alpha")
	beta := kv.Scoped[int](store, "beta")

	require.NoError(t, alpha.Set(ctx, "count", 10))
	require.NoError(t, beta.Set(ctx, "count", 20))
	require.NoError(t, beta.Set(ctx, "other", 30))

	a, err := alpha.Get(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, 10, a)

	keys, err := beta.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "other"}, keys)

	raw, err := store.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:count", "beta:count", "beta:other"}, raw)
}

func TestTypedKV_Missing(t *testing.T) {
	ctx := context.Background()
	typed := kv.Scoped[string](newTestKV(t), "test")

	_, err := typed.Get(ctx, "nope")
	require.ErrorIs(t, err, kv.ErrNotFound)

	has, err := typed.Has(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, typed.Set(ctx, "k", "v"))
	require.NoError(t, typed.Delete(ctx, "k"))
	_, err = typed.Get(ctx, "k")
	require.ErrorIs(t, err, kv.ErrNotFound)
}
