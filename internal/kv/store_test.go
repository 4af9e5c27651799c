package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryops/restock/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSetGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("k1", []byte("v1"), 0))

	value, err := store.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)
}

func TestGetMissingKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestUpdateCreatesAndMutates(t *testing.T) {
	store := newTestStore(t)

	// First update sees a nil old value.
	err := store.Update("counter", 0, func(old []byte) ([]byte, error) {
		require.Nil(t, old)
		return []byte("1"), nil
	})
	require.NoError(t, err)

	// Second update sees the previous value.
	err = store.Update("counter", 0, func(old []byte) ([]byte, error) {
		require.Equal(t, []byte("1"), old)
		return []byte("2"), nil
	})
	require.NoError(t, err)

	value, err := store.Get("counter")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), value)
}

func TestScanHonorsPrefix(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("cache/a", []byte("1"), 0))
	require.NoError(t, store.Set("cache/b", []byte("2"), 0))
	require.NoError(t, store.Set("usage/a", []byte("3"), 0))

	seen := make(map[string]string)
	err := store.Scan("cache/", func(key string, value []byte) error {
		seen[key] = string(value)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"cache/a": "1", "cache/b": "2"}, seen)
}

func TestEntryExpires(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("ephemeral", []byte("x"), 50*time.Millisecond))
	time.Sleep(100 * time.Millisecond)

	_, err := store.Get("ephemeral")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCloseIsIdempotent(t *testing.T) {
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)

	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
