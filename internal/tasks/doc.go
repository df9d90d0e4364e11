// Package tasks aggregates tracks from every configured [services.Provider].
//
// # Core Operations
//
// The [Aggregator] exposes two operations:
//
//  1. [Aggregator.Search] : query every provider concurrently
//     - Results are grouped by source, so content does not depend on completion order
//     - A failing provider contributes an empty list
//     - Empty queries are rejected before any provider or cache access
//
//  2. [Aggregator.Trending] : popular tracks from every provider
//     - The union is shuffled with an unbiased Fisher-Yates shuffle and truncated to the limit
//
// When every provider fails the error wraps [shared.ErrAllProvidersFailed] joined with each [*services.ProviderError].
//
// # Caching
//
// Merged results are cached under [shared.CacheKey]. A hit returns without contacting any provider.
// Partial results are cached like full ones; total failures are never cached.
//
// # Retries and Throttling
//
// Each provider call is retried up to [AggregatorOpts.Retries] times while the error reports [services.ProviderError.Retryable],
// waiting a linearly growing backoff between attempts. Outbound calls are throttled per provider with a [rate.Limiter].
package tasks
