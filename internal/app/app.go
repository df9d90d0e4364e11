// package app wires configuration into the aggregator, response cache and player.
//
// [App] is the single context object passed to the CLI and HTTP layers. It owns every long-lived resource and releases them in [App.Close].
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/mimo/internal/cache"
	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/player"
	"github.com/desertthunder/mimo/internal/repositories"
	"github.com/desertthunder/mimo/internal/services"
	"github.com/desertthunder/mimo/internal/shared"
	"github.com/desertthunder/mimo/internal/tasks"
)

// Option configures [New].
type Option func(*options)

type options struct {
	logger     *log.Logger
	httpClient *http.Client
	providers  []services.Provider
	store      cache.Store
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient sets the client used by the provider adapters.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithProviders replaces the configured providers.
func WithProviders(p ...services.Provider) Option {
	return func(o *options) { o.providers = p }
}

// WithStore replaces the store selected by cache.driver.
func WithStore(s cache.Store) Option {
	return func(o *options) { o.store = s }
}

// App holds the aggregator, cache, queue and history for one process.
type App struct {
	config     *shared.Config
	logger     *log.Logger
	aggregator *tasks.Aggregator
	cache      *cache.ResponseCache
	queue      *player.Queue
	history    *player.History

	closeOnce sync.Once
	closers   []func() error
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *shared.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", shared.ErrMissingConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = shared.NewLogger(nil)
	}

	a := &App{config: cfg, logger: o.logger}

	store := o.store
	if store == nil {
		var err error
		if store, err = a.openStore(ctx); err != nil {
			return nil, err
		}
	}

	a.cache = cache.New(store,
		cache.WithDefaultTTL(cfg.Cache.TTL()),
		cache.WithLogger(shared.WithLogger(o.logger, "component", "cache")),
	)

	providers := o.providers
	if providers == nil {
		providers = defaultProviders(cfg, o.httpClient)
	}

	a.aggregator = tasks.NewAggregator(providers, a.cache, tasks.AggregatorOpts{
		Retries:   cfg.Providers.Retries,
		RateLimit: cfg.Providers.RateLimit,
		TTL:       cfg.Cache.TTL(),
		Logger:    shared.WithLogger(o.logger, "component", "aggregator"),
	})

	a.history = player.NewHistory(cfg.Player.HistoryLimit)
	a.queue = player.NewQueue(a.history)

	return a, nil
}

func defaultProviders(cfg *shared.Config, client *http.Client) []services.Provider {
	if client == nil {
		client = &http.Client{Timeout: cfg.Providers.Timeout()}
	}
	return []services.Provider{
		services.NewDeezerService(cfg.Credentials.Licensed, client),
		services.NewJamendoService(cfg.Credentials.Community, client),
	}
}

func (a *App) openStore(ctx context.Context) (cache.Store, error) {
	switch a.config.Cache.Driver {
	case shared.CacheDriverSQLite:
		db, err := repositories.Open(ctx, a.config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return repositories.NewCacheRepository(db), nil
	case shared.CacheDriverRedis:
		client, err := cache.ConnectRedis(ctx, a.config.Cache.Redis)
		if err != nil {
			return nil, err
		}
		store := cache.NewRedisStore(client)
		a.closers = append(a.closers, store.Close)
		return store, nil
	case shared.CacheDriverMemory:
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache driver %q", shared.ErrInvalidConfig, a.config.Cache.Driver)
	}
}

// Config returns the configuration the App was built from.
func (a *App) Config() *shared.Config { return a.config }

// Logger returns the root logger.
func (a *App) Logger() *log.Logger { return a.logger }

// Close releases the cache store.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if cerr := a.closers[i](); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// StartSweeper runs the periodic cache sweep in a goroutine until ctx is done.
func (a *App) StartSweeper(ctx context.Context) {
	interval := a.config.Cache.SweepInterval()
	if interval <= 0 {
		return
	}
	a.logger.Debug("starting cache sweeper", "interval", interval)
	go a.cache.Run(ctx, interval)
}

// Search queries every provider through the cache.
func (a *App) Search(ctx context.Context, query string) (models.SearchResult, error) {
	return a.aggregator.Search(ctx, query)
}

// Trending returns up to limit popular tracks from every provider.
func (a *App) Trending(ctx context.Context, limit int) ([]models.Track, error) {
	return a.aggregator.Trending(ctx, limit)
}

// SweepCache removes expired cache entries.
func (a *App) SweepCache(ctx context.Context) (int, error) {
	return a.cache.SweepExpired(ctx)
}

// InvalidateCache removes one cache entry.
func (a *App) InvalidateCache(ctx context.Context, key string) error {
	return a.cache.Invalidate(ctx, key)
}

// ClearCache removes every cache entry.
func (a *App) ClearCache(ctx context.Context) error {
	return a.cache.Clear(ctx)
}

// Queue operations return the resulting snapshot.

func (a *App) State() models.QueueState { return a.queue.State() }
func (a *App) Play(t models.Track) models.QueueState { return a.queue.Play(t) }
func (a *App) Pause() models.QueueState { return a.queue.Pause() }
func (a *App) Resume() models.QueueState { return a.queue.Resume() }
func (a *App) TogglePlay() models.QueueState { return a.queue.TogglePlay() }
func (a *App) Next() models.QueueState { return a.queue.Next() }
func (a *App) Previous() models.QueueState { return a.queue.Previous() }
func (a *App) Enqueue(t models.Track) models.QueueState { return a.queue.Enqueue(t) }
func (a *App) ReplaceQueue(t []models.Track) models.QueueState { return a.queue.ReplaceQueue(t) }
func (a *App) SetProgress(f float64) models.QueueState { return a.queue.SetProgress(f) }
func (a *App) SetVolume(f float64) models.QueueState { return a.queue.SetVolume(f) }

// History returns the listening history, most recent first.
func (a *App) History() []models.HistoryEntry { return a.history.List() }

// HistoryStats summarizes the listening history.
func (a *App) HistoryStats() models.HistoryStats { return a.history.Stats(player.DefaultTopArtists) }
