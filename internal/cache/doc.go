// Package cache implements a TTL-bound response cache with single-flight request coalescing.
//
// # Lookup
//
// An entry is a hit while now is before its expiry. Expired entries still in the [Store] are misses and are deleted when read.
// [ResponseCache.SweepExpired] removes every entry whose expiry is at or before now, and [ResponseCache.Run] repeats the sweep periodically.
//
// # Single-flight
//
// Concurrent [ResponseCache.GetOrFetch] calls for the same key share one fetch.
// The shared fetch re-checks the store first, so a caller that missed just before another flight completed still sees the stored value.
// Every caller of a flight observes the same bytes or the same error. Fetch errors are never stored.
//
// # Stores
//
// A [Store] persists entries. This package provides [MemoryStore] and [RedisStore];
// the SQLite store lives in the repositories package.
package cache
