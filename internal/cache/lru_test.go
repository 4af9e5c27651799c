package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryops/restock/internal/model"
)

func TestLRUGetSet(t *testing.T) {
	lru := newLRU(10)

	norm := model.Normalization{Name: "Whole Milk", Brand: "Horizon", Confidence: 0.95}
	lru.set("a", norm)

	got, ok := lru.get("a")
	require.True(t, ok)
	assert.Equal(t, norm, got)

	_, ok = lru.get("missing")
	assert.False(t, ok)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	lru := newLRU(3)

	for i := 0; i < 3; i++ {
		lru.set(fmt.Sprintf("key%d", i), model.Normalization{Name: fmt.Sprintf("item%d", i)})
	}

	// Touch key0 so key1 becomes the eviction candidate.
	_, ok := lru.get("key0")
	require.True(t, ok)

	lru.set("key3", model.Normalization{Name: "item3"})

	_, ok = lru.get("key1")
	assert.False(t, ok, "least recently used entry should be evicted")

	for _, key := range []string{"key0", "key2", "key3"} {
		_, ok := lru.get(key)
		assert.True(t, ok, "entry %s should survive eviction", key)
	}

	assert.Equal(t, 3, lru.len())
}

func TestLRUUpdateExistingKeyDoesNotEvict(t *testing.T) {
	lru := newLRU(2)

	lru.set("a", model.Normalization{Name: "first"})
	lru.set("b", model.Normalization{Name: "second"})
	lru.set("a", model.Normalization{Name: "updated"})

	got, ok := lru.get("a")
	require.True(t, ok)
	assert.Equal(t, "updated", got.Name)

	_, ok = lru.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, lru.len())
}
