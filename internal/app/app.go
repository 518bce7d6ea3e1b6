// Package app wires the search services from configuration. Every binary
// builds one App at startup and hands its parts to the surfaces it runs.
package app

import (
	"context"
	"fmt"
	"log"
	"os"

	"golang.org/x/time/rate"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/config"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/normalize"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/scrapers"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/upstream"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/cache"
)

type App struct {
	Config     *config.Config
	Cache      cache.Cache
	Normalizer *normalize.Normalizer
	Searcher   upstream.Searcher
	Store      upstream.ListStore
	Reporter   *errreport.LogReporter
	Resolver   *services.Resolver
	Lists      *services.ListService
}

// New builds the services described by cfg. A Redis cache that cannot be
// reached falls back to the in-memory cache.
func New(cfg *config.Config) (*App, error) {
	reporter := newReporter(cfg, log.New(os.Stderr, "", log.LstdFlags))

	c, err := cache.New(cfg.Cache)
	if err != nil {
		log.Printf("Warning: %s cache unavailable, using memory cache: %v", cfg.Cache.Backend, err)
		c = cache.NewMemoryCache(cfg.Cache.Capacity, cfg.Cache.TTL)
	}

	n := normalize.New(cfg.AffiliateTag)

	client, err := upstream.NewClient(upstream.Options{
		BaseURL:    cfg.APIURL,
		HTTPClient: upstream.NewHTTPClient(cfg.HTTPTimeout),
		Limiter:    outboundLimiter(cfg.RatePerSecond, cfg.RateBurst),
		Normalizer: n,
	})
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	var searcher upstream.Searcher = client
	switch cfg.SearchBackend {
	case config.BackendAPI, "":
	case config.BackendScrape:
		backend, err := scrapers.NewBackend(n)
		if err != nil {
			return nil, fmt.Errorf("scrape backend: %w", err)
		}
		searcher = backend
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.SearchBackend)
	}

	seeds := services.NewSeedCatalog(n)
	a := &App{
		Config:     cfg,
		Cache:      c,
		Normalizer: n,
		Searcher:   searcher,
		Store:      client,
		Reporter:   reporter,
		Resolver: services.NewResolver(searcher, c, services.ResolverOptions{
			DisablePopular: !cfg.PopularEnabled,
			Seeds:          seeds,
			Reporter:       reporter,
		}),
		Lists: services.NewListService(client, c, reporter),
	}

	log.Printf("Search backend: %s, cache: %s", orAPI(cfg.SearchBackend), c.Backend())
	return a, nil
}

// newReporter drops cancellations, the add outcomes that only need the
// caller's attention, and anything matching cfg.ErrorIgnore.
func newReporter(cfg *config.Config, logger *log.Logger) *errreport.LogReporter {
	return errreport.New(logger,
		errreport.IgnoreCanceled,
		errreport.IgnoreIs(services.ErrAuthRequired, services.ErrNoTargetList, services.ErrAddInFlight),
		errreport.IgnoreContaining(cfg.ErrorIgnore...),
	)
}

// outboundLimiter paces calls to the MyNeedfully API, falling back to
// 10 rps / burst 20 for non-positive settings.
func outboundLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// NewAdder returns an adder with its own pending slot.
func (a *App) NewAdder() *services.Adder {
	return services.NewAdder(a.Store, a.Cache, a.Reporter)
}

// NewSession opens a search session for token, scoped to listID when it
// is non-zero.
func (a *App) NewSession(ctx context.Context, opts services.SessionOptions) *services.Session {
	if opts.Debounce == 0 {
		opts.Debounce = a.Config.Debounce
	}
	if opts.Token == "" {
		opts.Token = a.Config.Token
	}
	if opts.Reporter == nil {
		opts.Reporter = a.Reporter
	}
	return services.NewSession(ctx, a.Resolver, a.NewAdder(), opts)
}

// Close releases the cache connection, if any.
func (a *App) Close() error {
	if closer, ok := a.Cache.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func orAPI(backend string) string {
	if backend == "" {
		return config.BackendAPI
	}
	return backend
}
