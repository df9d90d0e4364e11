package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/shared"
)

// DefaultTTL is used when a caller passes a non-positive ttl.
const DefaultTTL = time.Hour

// Store persists cache entries.
//
// Get returns [shared.ErrCacheMiss] when no entry exists for the key, expired or not.
type Store interface {
	Get(ctx context.Context, key string) (*models.CacheEntry, error)
	Put(ctx context.Context, entry *models.CacheEntry) error
	Delete(ctx context.Context, key string) error
	// DeleteIfExpired removes key only if its stored entry has ExpiresAt <= now.
	DeleteIfExpired(ctx context.Context, key string, now time.Time) (bool, error)
	// DeleteExpired removes entries with ExpiresAt <= now and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Clear(ctx context.Context) error
}

// FetchFunc produces the payload for a missing key.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Option configures a [ResponseCache].
type Option func(*ResponseCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDefaultTTL sets the ttl used when callers pass ttl <= 0.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *ResponseCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *ResponseCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// ResponseCache is a get-or-fetch cache over a [Store].
type ResponseCache struct {
	store  Store
	group  singleflight.Group
	now    func() time.Time
	ttl    time.Duration
	logger *log.Logger
}

// New creates a ResponseCache backed by store.
func New(store Store, opts ...Option) *ResponseCache {
	c := &ResponseCache{
		store:  store,
		now:    time.Now,
		ttl:    DefaultTTL,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live payload for key.
func (c *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, ok := c.lookup(ctx, key)
	if !ok {
		return nil, false
	}
	return bytes.Clone(b), true
}

// GetOrFetch returns the live payload for key, or calls fetch and stores its result for ttl.
//
// Fetch errors are returned unchanged and nothing is stored.
// A caller whose ctx ends while waiting returns ctx.Err(); the shared fetch keeps running for the other callers.
func (c *ResponseCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	if b, ok := c.lookup(ctx, key); ok {
		c.logger.Debug("cache hit", "key", key)
		return bytes.Clone(b), nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if b, ok := c.lookup(flightCtx, key); ok {
			c.logger.Debug("cache hit after flight", "key", key)
			return b, nil
		}

		c.logger.Debug("cache miss", "key", key)
		b, err := fetch(flightCtx)
		if err != nil {
			return nil, err
		}

		entry := models.NewCacheEntry(key, b, c.now(), ttl)
		if err := c.store.Put(flightCtx, entry); err != nil {
			c.logger.Warn("failed to store cache entry", "key", key, "error", err)
		}
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return bytes.Clone(res.Val.([]byte)), nil
	}
}

// Invalidate removes key from the store.
func (c *ResponseCache) Invalidate(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", key, err)
	}
	return nil
}

// SweepExpired removes every entry with ExpiresAt <= now.
func (c *ResponseCache) SweepExpired(ctx context.Context) (int, error) {
	n, err := c.store.DeleteExpired(ctx, c.now())
	if err != nil {
		return n, fmt.Errorf("failed to sweep cache: %w", err)
	}
	if n > 0 {
		c.logger.Info("swept expired cache entries", "count", n)
	}
	return n, nil
}

// Run sweeps expired entries every interval until ctx is done.
func (c *ResponseCache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("cache sweep failed", "error", err)
			}
		}
	}
}

// Clear removes every entry.
func (c *ResponseCache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// lookup returns the stored payload without copying. Read failures degrade to a miss.
func (c *ResponseCache) lookup(ctx context.Context, key string) ([]byte, bool) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, shared.ErrCacheMiss) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	if now := c.now(); entry.Expired(now) {
		if _, err := c.store.DeleteIfExpired(ctx, key, now); err != nil {
			c.logger.Warn("failed to evict expired entry", "key", key, "error", err)
		}
		return nil, false
	}

	return entry.Payload, true
}

// Fetch is GetOrFetch for JSON-encodable values.
func Fetch[T any](ctx context.Context, c *ResponseCache, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	b, err := c.GetOrFetch(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, fmt.Errorf("%w: cached payload for %s: %v", shared.ErrDecode, key, err)
	}
	return v, nil
}
