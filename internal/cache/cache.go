// Package cache implements the two-tier normalization cache: a bounded
// in-process LRU over a durable store with a fixed retention window.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/pantryops/restock/internal/common"
	"github.com/pantryops/restock/internal/config"
	"github.com/pantryops/restock/internal/kv"
	"github.com/pantryops/restock/internal/model"
)

const keyPrefix = "cache/"

// NormalizationCache caches normalized line interpretations keyed by
// (rawText, retailer). All failures degrade to a miss or a skipped write;
// callers never see a cache error.
type NormalizationCache struct {
	lru       *lruCache
	store     *kv.Store
	logger    *slog.Logger
	hits      chan string
	stopCh    chan struct{}
	doneCh    chan struct{}
	retention time.Duration
	prewarmN  int
}

// New creates a cache over the given durable store and starts the
// background hit-count worker.
func New(store *kv.Store, cfg config.Cache, logger *slog.Logger) *NormalizationCache {
	retention := cfg.Retention
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}

	c := &NormalizationCache{
		lru:       newLRU(cfg.Capacity),
		store:     store,
		logger:    logger,
		retention: retention,
		prewarmN:  cfg.PrewarmN,
		hits:      make(chan string, 256),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	go c.hitWorker()

	return c
}

// Get looks up the normalization for a (rawText, retailer) pair. The
// in-process layer is consulted first; a durable hit repopulates it.
func (c *NormalizationCache) Get(rawText, retailer string) (model.Normalization, bool) {
	key := model.CacheKey(rawText, retailer)

	if result, ok := c.lru.get(key); ok {
		c.recordHit(key)
		return result, true
	}

	raw, err := c.store.Get(keyPrefix + key)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			c.logger.Warn("cache read failed, treating as miss", "error", err)
		}
		return model.Normalization{}, false
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss", "key", key, "error", err)
		return model.Normalization{}, false
	}

	c.lru.set(key, entry.Result)
	c.recordHit(key)

	return entry.Result, true
}

// Set writes the normalization to both layers. Rewriting an existing entry
// refreshes its result but keeps the accumulated hit history, which Prewarm
// ranks by. Durable write failures are logged and swallowed.
func (c *NormalizationCache) Set(rawText, retailer string, result model.Normalization) {
	key := model.CacheKey(rawText, retailer)
	c.lru.set(key, result)

	err := c.store.Update(keyPrefix+key, c.retention, func(old []byte) ([]byte, error) {
		now := time.Now().UTC()
		entry := model.CacheEntry{
			Key:       key,
			CreatedAt: now,
		}
		if old != nil {
			var prev model.CacheEntry
			if err := json.Unmarshal(old, &prev); err == nil {
				entry.HitCount = prev.HitCount
				entry.CreatedAt = prev.CreatedAt
			}
		}
		entry.Result = result
		entry.LastAccess = now
		return json.Marshal(entry)
	})
	if err != nil {
		c.logger.Warn("cache write failed, entry kept in memory only", "key", key, "error", err)
	}
}

// Prewarm loads the most frequently hit durable entries into the in-process
// layer, bounded by its capacity. Returns the number of entries loaded.
func (c *NormalizationCache) Prewarm(ctx context.Context) (int, error) {
	var entries []model.CacheEntry

	err := c.store.Scan(keyPrefix, func(_ string, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var entry model.CacheEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			// Skip corrupt entries rather than aborting the warm-up.
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return 0, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].HitCount > entries[j].HitCount
	})

	limit := c.prewarmN
	if limit <= 0 || limit > c.lru.capacity {
		limit = c.lru.capacity
	}
	if limit > len(entries) {
		limit = len(entries)
	}

	for _, entry := range entries[:limit] {
		c.lru.set(entry.Key, entry.Result)
	}

	return limit, nil
}

// Size returns the number of entries in the in-process layer.
func (c *NormalizationCache) Size() int {
	return c.lru.len()
}

// recordHit enqueues a best-effort hit-count increment. The queue is
// bounded; overflow drops the increment rather than blocking the caller.
func (c *NormalizationCache) recordHit(key string) {
	select {
	case c.hits <- key:
	default:
	}
}

// hitWorker applies hit-count increments off the callers' critical path.
func (c *NormalizationCache) hitWorker() {
	defer close(c.doneCh)

	for {
		select {
		case <-c.stopCh:
			return
		case key := <-c.hits:
			err := c.store.Update(keyPrefix+key, c.retention, func(old []byte) ([]byte, error) {
				var entry model.CacheEntry
				if old != nil {
					if err := json.Unmarshal(old, &entry); err != nil {
						return old, nil
					}
				}
				if entry.Key == "" {
					entry.Key = key
				}
				entry.HitCount++
				entry.LastAccess = time.Now().UTC()
				return json.Marshal(entry)
			})
			if err != nil {
				c.logger.Warn("cache hit count update failed", "key", key, "error", err)
			}
		}
	}
}

// Close stops the hit-count worker. The durable store is owned by the
// caller and is not closed here.
func (c *NormalizationCache) Close() {
	close(c.stopCh)
	<-c.doneCh
}
