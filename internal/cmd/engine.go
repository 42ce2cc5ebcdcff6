package cmd

import (
	"errors"
	"time"

	"github.com/MrJJimenez/jobscout/internal/config"
	"github.com/MrJJimenez/jobscout/internal/models"
	"github.com/MrJJimenez/jobscout/internal/network"
	"github.com/MrJJimenez/jobscout/internal/scoring"
	"github.com/MrJJimenez/jobscout/internal/scraper"
	"github.com/MrJJimenez/jobscout/internal/search"
	"github.com/MrJJimenez/jobscout/internal/store"
)

const proxyBanDuration = 10 * time.Minute

// engine bundles everything one process needs to run searches.
type engine struct {
	orchestrator *search.Orchestrator
	registry     *scraper.Registry
	store        *store.Store
	limits       search.Limits
}

type engineOptions struct {
	proxies string
	noStore bool
}

func limitsFromConfig(cfg config.Config, enabled []models.Source) search.Limits {
	return search.Limits{
		DefaultMaxResults: cfg.Search.MaxResults,
		DefaultTimeout:    millis(cfg.Search.DefaultTimeoutMs),
		MaxTimeout:        millis(cfg.Search.MaxTimeoutMs),
		Enabled:           enabled,
	}
}

func scraperOptions(ctx *Context, rotator *network.Rotator) scraper.Options {
	cfg := ctx.Config
	return scraper.Options{
		Rotator: rotator,
		HTTP: network.Options{
			Timeout:           millis(cfg.Scraper.RequestTimeoutMs),
			RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		},
		Retry:      scraper.RetryPolicy{Attempts: cfg.Scraper.RetryAttempts},
		Logger:     ctx.Logger,
		ChromePath: cfg.Scraper.ChromePath,
		Adzuna: scraper.AdzunaCredentials{
			AppID:   cfg.Adzuna.AppID,
			AppKey:  cfg.Adzuna.AppKey,
			Country: cfg.Adzuna.Country,
		},
	}
}

func openEngine(ctx *Context, opts engineOptions) (*engine, error) {
	enabled, err := ctx.Config.EnabledSources()
	if err != nil {
		return nil, err
	}

	proxies, err := config.LoadProxies(opts.proxies)
	if err != nil {
		return nil, err
	}
	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, proxyBanDuration)
		if err != nil {
			return nil, err
		}
	}

	registry, err := scraper.NewDefaultRegistry(scraperOptions(ctx, rotator), enabled...)
	if err != nil {
		return nil, err
	}

	e := &engine{registry: registry, limits: limitsFromConfig(ctx.Config, enabled)}
	searchOpts := []search.Option{search.WithLogger(ctx.Logger)}
	if !opts.noStore && !ctx.Config.Store.Disabled {
		if st, err := openStore(ctx); err != nil {
			ctx.Logger.Warn().Err(err).Msg("result store unavailable; results will not be saved")
		} else {
			e.store = st
			searchOpts = append(searchOpts, search.WithSink(st))
		}
	}
	e.orchestrator = search.NewOrchestrator(registry, scoring.NewEngine(), searchOpts...)
	return e, nil
}

func openStore(ctx *Context) (*store.Store, error) {
	path, err := ctx.Config.StorePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path, false, ctx.Logger)
}

func (e *engine) Close() error {
	var errs []error
	if e.registry != nil {
		errs = append(errs, e.registry.Close())
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	return errors.Join(errs...)
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
