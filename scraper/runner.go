package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/browser"
	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/parser"
	"github.com/Jonatas020918/myflyticketsearcher/sources"
	"github.com/google/uuid"
)

// Runner acquires a fresh browser for every search and serializes searches
// so only one browser runs at a time.
type Runner struct {
	factory DriverFactory
	sources []sources.Adapter
	cfg     *config.Config
	logger  *slog.Logger
	opts    []SessionOption

	mu sync.Mutex
}

// NewRunner builds a runner over adapters.
func NewRunner(factory DriverFactory, adapters []sources.Adapter, cfg *config.Config, logger *slog.Logger, opts ...SessionOption) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		factory: factory,
		sources: adapters,
		cfg:     cfg,
		logger:  logger,
		opts:    opts,
	}
}

// ScrapeAll runs one search. A browser that fails to start is reported on
// every source and yields an empty result.
func (r *Runner) ScrapeAll(ctx context.Context, from, to string, date time.Time) *models.ScraperResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *models.ScraperResult
	err := WithSession(ctx, r.factory, r.cfg, r.logger, func(s *Session) error {
		result = NewAggregator(s, r.sources, r.cfg, r.logger).ScrapeAll(ctx, from, to, date)
		return nil
	}, r.opts...)
	if err != nil {
		r.logger.Error("browser unavailable", slog.Any("error", err))
		return r.unavailable(from, to, date, err)
	}
	return result
}

func (r *Runner) unavailable(from, to string, date time.Time, err error) *models.ScraperResult {
	now := time.Now()
	result := &models.ScraperResult{
		RunID:     uuid.NewString(),
		From:      parser.NormalizeAirportCode(from),
		To:        parser.NormalizeAirportCode(to),
		Date:      models.NewDate(date),
		Flights:   []*models.Flight{},
		StartTime: now,
		EndTime:   now,
	}
	category := browser.ErrorType(err)
	for _, a := range r.sources {
		result.Sources = append(result.Sources, models.SourceReport{
			Source:    a.Name(),
			State:     StateFailed.String(),
			ErrorType: category,
			Error:     err.Error(),
		})
	}
	return result
}

// NewDriverFactory returns a factory for the driver named by cfg.Driver.
// Page retries of the HTTP driver are counted on metrics.
func NewDriverFactory(cfg *config.Config, logger *slog.Logger, metrics *Metrics) DriverFactory {
	return func(ctx context.Context) (browser.Driver, error) {
		switch cfg.Driver {
		case config.DriverBrowser:
			d, err := browser.LaunchRod(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return d, nil
		case config.DriverHTTP:
			d, err := browser.NewHTTPDriver(cfg, logger, browser.WithRetryHook(func(string, int, error) {
				metrics.IncRetries()
			}))
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
		}
	}
}
