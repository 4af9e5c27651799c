package model

import "time"

// CacheEntry is a durable normalization keyed by CacheKey(rawText, retailer).
// Entries expire via the store's retention window rather than explicit
// deletion.
type CacheEntry struct {
	CreatedAt  time.Time     `json:"created_at"`
	LastAccess time.Time     `json:"last_access"`
	Key        string        `json:"key"`
	Result     Normalization `json:"result"`
	HitCount   int64         `json:"hit_count"`
}
