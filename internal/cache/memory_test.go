package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/shared"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Get missing", func(t *testing.T) {
		if _, err := NewMemoryStore().Get(ctx, "nope"); !errors.Is(err, shared.ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("Put and Get", func(t *testing.T) {
		store := NewMemoryStore()
		if err := store.Put(ctx, models.NewCacheEntry("k", []byte(`{"a":1}`), now, time.Minute)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		entry, err := store.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(entry.Payload) != `{"a":1}` || !entry.StoredAt.Equal(now) {
			t.Errorf("unexpected entry %+v", entry)
		}
	})

	t.Run("Put rejects invalid entry", func(t *testing.T) {
		if err := NewMemoryStore().Put(ctx, models.NewCacheEntry("", nil, now, time.Minute)); err == nil {
			t.Error("expected error for empty key")
		}
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, models.NewCacheEntry("a", []byte(`1`), now, time.Second))
		store.Put(ctx, models.NewCacheEntry("b", []byte(`1`), now, time.Minute))

		n, err := store.DeleteExpired(ctx, now.Add(time.Second))
		if err != nil || n != 1 {
			t.Errorf("expected 1 removed, got %d, %v", n, err)
		}
		if _, err := store.Get(ctx, "b"); err != nil {
			t.Errorf("live entry should remain: %v", err)
		}
	})

	t.Run("DeleteIfExpired", func(t *testing.T) {
		store := NewMemoryStore()
		store.Put(ctx, models.NewCacheEntry("old", []byte(`1`), now, time.Second))
		store.Put(ctx, models.NewCacheEntry("fresh", []byte(`1`), now, time.Minute))

		if ok, err := store.DeleteIfExpired(ctx, "fresh", now.Add(time.Second)); ok || err != nil {
			t.Errorf("live entry must survive, got %v, %v", ok, err)
		}
		if ok, err := store.DeleteIfExpired(ctx, "old", now.Add(time.Second)); !ok || err != nil {
			t.Errorf("expected expired entry removed, got %v, %v", ok, err)
		}
		if ok, _ := store.DeleteIfExpired(ctx, "missing", now); ok {
			t.Error("missing key reported as removed")
		}
		if store.Len() != 1 {
			t.Errorf("expected 1 entry left, got %d", store.Len())
		}
	})
}
