package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jonatas020918/myflyticketsearcher/cache"
	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/Jonatas020918/myflyticketsearcher/events"
	"github.com/Jonatas020918/myflyticketsearcher/scraper"
	"github.com/Jonatas020918/myflyticketsearcher/search"
	"github.com/Jonatas020918/myflyticketsearcher/sources"
	"github.com/Jonatas020918/myflyticketsearcher/storage"
)

const redisKeyPrefix = "flights:"

// app owns every long-lived dependency of a command.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *scraper.Metrics
	service *search.Service
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (a *app, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	adapters, err := sources.Select(cfg.Sources)
	if err != nil {
		return nil, err
	}

	a = &app{cfg: cfg, logger: logger, metrics: scraper.NewMetrics()}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	var opts []search.Option
	switch cfg.CacheBackend {
	case "memory":
		opts = append(opts, search.WithCache(cache.NewLRU[*search.SearchResponse](cfg.CacheSize, cfg.CacheTTL)))
	case "redis":
		client, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		opts = append(opts, search.WithCache(cache.NewRedis[*search.SearchResponse](client, redisKeyPrefix, cfg.CacheTTL)))
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		a.closers = append(a.closers, producer.Close)
		opts = append(opts, search.WithPublisher(producer))
	}

	runner := scraper.NewRunner(
		scraper.NewDriverFactory(cfg, logger, a.metrics),
		adapters, cfg, logger,
		scraper.WithMetrics(a.metrics),
	)
	a.service = search.NewService(runner, store, logger, opts...)

	logger.Debug("application ready",
		slog.String("driver", cfg.Driver),
		slog.String("store", cfg.StoreDriver),
		slog.String("cache", cfg.CacheBackend),
		slog.Int("sources", len(adapters)),
		slog.Bool("events", len(cfg.KafkaBrokers) > 0),
	)
	return a, nil
}

// Close releases dependencies in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
