package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/shared"
)

// CacheRepository persists [models.CacheEntry] values in the cache_entries table.
//
// It satisfies cache.Store.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new CacheRepository with the given database connection
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get retrieves an entry by key, expired or not. Returns [shared.ErrCacheMiss] when absent.
func (r *CacheRepository) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	query := `
		SELECT key, payload, stored_at, expires_at
		FROM cache_entries
		WHERE key = ?
	`

	var (
		entry     models.CacheEntry
		payload   []byte
		storedAt  int64
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, query, key).Scan(&entry.Key, &payload, &storedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	entry.Payload = payload
	entry.StoredAt = time.UnixMilli(storedAt)
	entry.ExpiresAt = time.UnixMilli(expiresAt)
	return &entry, nil
}

// Put inserts or replaces the entry for entry.Key.
func (r *CacheRepository) Put(ctx context.Context, entry *models.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO cache_entries (key, payload, stored_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.Key,
		[]byte(entry.Payload),
		entry.StoredAt.UnixMilli(),
		entry.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return nil
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeleteIfExpired removes the entry for key only while its expires_at <= now,
// so an entry rewritten since it was read survives.
func (r *CacheRepository) DeleteIfExpired(ctx context.Context, key string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE key = ? AND expires_at <= ?", key, now.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to delete expired cache entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteExpired removes entries with expires_at <= now.
func (r *CacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// Clear removes every entry.
func (r *CacheRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("failed to clear cache entries: %w", err)
	}
	return nil
}

// Count returns the number of stored entries, expired or not.
func (r *CacheRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache_entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
