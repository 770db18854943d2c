package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) *SQLite {
	t.Helper()

	store, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": setupSQLite(t),
	}
}

func TestStoreMergeSemantics(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			params, err := store.Get(ctx, "new-conversation")
			require.NoError(t, err)
			assert.Empty(t, params)

			require.NoError(t, store.Merge(ctx, "conv", Params{ParamSpecies: "dog", ParamLocation: "Seattle"}))
			require.NoError(t, store.Merge(ctx, "conv", Params{ParamLocation: "Tacoma", "unknown_param": "x"}))

			params, err = store.Get(ctx, "conv")
			require.NoError(t, err)
			assert.Equal(t, "dog", params[ParamSpecies])
			assert.Equal(t, "Tacoma", params[ParamLocation])
			assert.NotContains(t, params, "unknown_param")

			other, err := store.Get(ctx, "other")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Merge(ctx, "conv", Params{ParamSpecies: "cat"}))

			params, err := store.Get(ctx, "conv")
			require.NoError(t, err)
			params[ParamSpecies] = "dog"

			again, err := store.Get(ctx, "conv")
			require.NoError(t, err)
			assert.Equal(t, "cat", again[ParamSpecies])
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, store.Merge(ctx, "conv", Params{ParamHasYard: true, ParamDistance: float64(25)}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	params, err := reopened.Get(ctx, "conv")
	require.NoError(t, err)
	assert.Equal(t, true, params[ParamHasYard])
	assert.Equal(t, float64(25), params[ParamDistance])
}

func TestSQLitePrune(t *testing.T) {
	store := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.Merge(ctx, "conv", Params{ParamSpecies: "dog"}))

	removed, err := store.Prune(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = store.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
