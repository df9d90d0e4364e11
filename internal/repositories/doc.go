// Package repositories implements SQLite persistence for the response cache.
//
// Key Implementations:
//   - [CacheRepository] : cache entries keyed by request signature, with upsert and expiry sweeps
//
// [Open] connects to the configured database, applies pool settings and runs the embedded migrations.
// Timestamps are stored as unix milliseconds so expiry comparisons happen in SQL.
package repositories
