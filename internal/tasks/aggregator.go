package tasks

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/mimo/internal/cache"
	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/services"
	"github.com/desertthunder/mimo/internal/shared"
)

const (
	opSearch   = "search"
	opTrending = "trending"
)

// SearchKey returns the cache key [Aggregator.Search] uses for query.
func SearchKey(query string) string {
	return shared.CacheKey(opSearch, query, services.DefaultLimit)
}

// TrendingKey returns the cache key [Aggregator.Trending] uses for limit.
func TrendingKey(limit int) string {
	return shared.CacheKey(opTrending, "", services.NormalizeLimit(limit))
}

// AggregatorOpts contains configuration for the [Aggregator].
type AggregatorOpts struct {
	Retries   int                  // Retries per provider call for retryable failures (default: 0)
	Backoff   time.Duration        // Base delay between attempts, multiplied by the attempt number (default: 200ms)
	RateLimit float64              // Outbound requests per second, per provider (<= 0: unlimited)
	TTL       time.Duration        // Cache entry lifetime (<= 0: cache default)
	Shuffle   func([]models.Track) // Permutes trending tracks in place (default: math/rand/v2)
	Logger    *log.Logger          // Defaults to log.Default()
}

// Aggregator fans requests out to providers and merges their results.
type Aggregator struct {
	providers []services.Provider
	limiters  map[models.Source]*rate.Limiter
	cache     *cache.ResponseCache
	opts      AggregatorOpts
	logger    *log.Logger
}

// NewAggregator creates an Aggregator over providers. A nil rc disables caching.
func NewAggregator(providers []services.Provider, rc *cache.ResponseCache, opts AggregatorOpts) *Aggregator {
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Shuffle == nil {
		opts.Shuffle = shuffleTracks
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	limiters := make(map[models.Source]*rate.Limiter, len(providers))
	if opts.RateLimit > 0 {
		for _, p := range providers {
			limiters[p.Source()] = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
		}
	}

	return &Aggregator{
		providers: providers,
		limiters:  limiters,
		cache:     rc,
		opts:      opts,
		logger:    logger,
	}
}

// Providers returns the configured providers in fan-out order.
func (a *Aggregator) Providers() []services.Provider {
	return append([]services.Provider(nil), a.providers...)
}

// Search queries every provider for query and groups the results by source.
func (a *Aggregator) Search(ctx context.Context, query string) (models.SearchResult, error) {
	q := shared.NormalizeQuery(query)
	if q == "" {
		return models.SearchResult{}, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}

	key := SearchKey(q)
	return fetchCached(ctx, a, key, func(ctx context.Context) (models.SearchResult, error) {
		return a.search(ctx, q)
	})
}

// Trending returns up to limit tracks sampled from every provider's trending list.
func (a *Aggregator) Trending(ctx context.Context, limit int) ([]models.Track, error) {
	limit = services.NormalizeLimit(limit)

	key := TrendingKey(limit)
	return fetchCached(ctx, a, key, func(ctx context.Context) ([]models.Track, error) {
		return a.trending(ctx, limit)
	})
}

func fetchCached[T any](ctx context.Context, a *Aggregator, key string, fetch func(context.Context) (T, error)) (T, error) {
	if a.cache == nil {
		return fetch(ctx)
	}
	return cache.Fetch(ctx, a.cache, key, a.opts.TTL, fetch)
}

type outcome struct {
	source models.Source
	tracks []models.Track
	err    error
}

func (a *Aggregator) search(ctx context.Context, q string) (models.SearchResult, error) {
	outcomes, err := a.fanOut(ctx, opSearch, func(ctx context.Context, p services.Provider) ([]models.Track, error) {
		return p.Search(ctx, q, services.DefaultLimit)
	})
	if err != nil {
		return models.SearchResult{}, err
	}

	result := models.NewSearchResult()
	for _, o := range outcomes {
		if o.err == nil {
			result.Set(o.source, o.tracks)
		}
	}

	a.logger.Debug("search complete", "query", q, "licensed", len(result.Licensed), "community", len(result.Community))
	return result, nil
}

func (a *Aggregator) trending(ctx context.Context, limit int) ([]models.Track, error) {
	outcomes, err := a.fanOut(ctx, opTrending, func(ctx context.Context, p services.Provider) ([]models.Track, error) {
		return p.Trending(ctx, limit)
	})
	if err != nil {
		return nil, err
	}

	var union []models.Track
	for _, o := range outcomes {
		union = append(union, o.tracks...)
	}

	a.opts.Shuffle(union)
	if len(union) > limit {
		union = union[:limit]
	}
	if union == nil {
		union = []models.Track{}
	}

	a.logger.Debug("trending complete", "limit", limit, "returned", len(union))
	return union, nil
}

// fanOut calls fn for every provider concurrently and returns outcomes in provider order.
// It fails only when every provider fails.
func (a *Aggregator) fanOut(ctx context.Context, op string, fn func(context.Context, services.Provider) ([]models.Track, error)) ([]outcome, error) {
	if len(a.providers) == 0 {
		return nil, fmt.Errorf("%w: no providers configured", shared.ErrServiceUnavailable)
	}

	outcomes := make([]outcome, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracks, err := a.call(ctx, p, op, fn)
			outcomes[i] = outcome{source: p.Source(), tracks: tracks, err: err}
		}()
	}
	wg.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.err != nil {
			a.logger.Warn("provider failed", "op", op, "source", o.source, "error", o.err)
			errs = append(errs, o.err)
		}
	}

	if len(errs) == len(outcomes) {
		return nil, errors.Join(append([]error{shared.ErrAllProvidersFailed}, errs...)...)
	}
	return outcomes, nil
}

// call invokes fn for p, retrying retryable failures.
func (a *Aggregator) call(
	ctx context.Context,
	p services.Provider,
	op string,
	fn func(context.Context, services.Provider) ([]models.Track, error),
) ([]models.Track, error) {
	limiter := a.limiters[p.Source()]

	var err error
	for attempt := 0; attempt <= a.opts.Retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * a.opts.Backoff
			a.logger.Debug("retrying provider", "op", op, "source", p.Source(), "attempt", attempt, "delay", delay, "error", err)

			select {
			case <-ctx.Done():
				return nil, services.NewProviderError(p.Source(), op, 0, fmt.Errorf("%w: %w", shared.ErrTimeout, ctx.Err()))
			case <-time.After(delay):
			}
		}

		if limiter != nil {
			if werr := limiter.Wait(ctx); werr != nil {
				return nil, services.NewProviderError(p.Source(), op, 0, fmt.Errorf("%w: %w", shared.ErrTimeout, werr))
			}
		}

		var tracks []models.Track
		tracks, err = fn(ctx, p)
		if err == nil {
			return tracks, nil
		}

		var pe *services.ProviderError
		if !errors.As(err, &pe) || !pe.Retryable() {
			return nil, err
		}
	}

	return nil, err
}

func shuffleTracks(tracks []models.Track) {
	rand.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
}
