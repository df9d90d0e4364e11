// Package models defines the canonical domain types shared by the providers, the cache and the player.
//
// The package contains three categories of types:
//
// 1. Catalog types: normalized, source-agnostic music items
//   - [Track] : Canonical track with a source-qualified ID and a playable audio URL
//   - [Source] : Catalog a track came from (licensed or community)
//   - [SearchResult] : Per-source search results
//
// 2. Cache types: persisted response cache records
//   - [CacheEntry] : Key, JSON payload and TTL bounds
//
// 3. Playback types: snapshots of player state
//   - [QueueState] : Current track, status and upcoming tracks
//   - [HistoryEntry] : A single play in the listening history
//   - [HistoryStats] : Aggregates over the listening history
//
// Tracks are values. Nothing in the module mutates a [Track] after the normalizer builds it.
package models
