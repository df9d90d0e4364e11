package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CacheEntry is a persisted response, keyed by canonical request signature.
type CacheEntry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// NewCacheEntry creates an entry stored at now that expires after ttl.
func NewCacheEntry(key string, payload []byte, now time.Time, ttl time.Duration) *CacheEntry {
	return &CacheEntry{
		Key:       key,
		Payload:   payload,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the entry is logically absent at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Validate checks that the entry has a key and a positive lifetime.
func (e *CacheEntry) Validate() error {
	if e.Key == "" {
		return fmt.Errorf("cache entry key is required")
	}
	if !e.ExpiresAt.After(e.StoredAt) {
		return fmt.Errorf("cache entry %s expires before it is stored", e.Key)
	}
	return nil
}
