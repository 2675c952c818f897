package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/parser"
	"github.com/Jonatas020918/myflyticketsearcher/sources"
	"github.com/google/uuid"
)

// Aggregator visits every source in order with one session and merges the
// results.
type Aggregator struct {
	session *Session
	sources []sources.Adapter
	cfg     *config.Config
	logger  *slog.Logger
}

// NewAggregator returns an aggregator over adapters, in the order given.
func NewAggregator(session *Session, adapters []sources.Adapter, cfg *config.Config, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{
		session: session,
		sources: adapters,
		cfg:     cfg,
		logger:  logger,
	}
}

// ScrapeAll searches every source for flights from -> to on date. Flights are
// concatenated in source order, then page order, and tagged with the search
// date. A failing source contributes an empty list. Cancelling ctx stops the
// run before the next source.
func (a *Aggregator) ScrapeAll(ctx context.Context, from, to string, date time.Time) *models.ScraperResult {
	q := sources.Query{
		From: parser.NormalizeAirportCode(from),
		To:   parser.NormalizeAirportCode(to),
		Date: date,
	}
	result := &models.ScraperResult{
		RunID:     uuid.NewString(),
		From:      q.From,
		To:        q.To,
		Date:      models.NewDate(date),
		Flights:   []*models.Flight{},
		StartTime: time.Now(),
	}
	log := a.logger.With(slog.String("run_id", result.RunID))
	log.Info("search started",
		slog.String("from", q.From),
		slog.String("to", q.To),
		slog.String("date", result.Date.String()),
		slog.Int("sources", len(a.sources)),
	)

	for i, adapter := range a.sources {
		if ctx.Err() != nil {
			log.Warn("search cancelled", slog.Int("remaining_sources", len(a.sources)-i))
			break
		}
		if i > 0 {
			if err := a.session.sleep(ctx, randomBetween(a.cfg.SourceDelayMin, a.cfg.SourceDelayMax)); err != nil {
				log.Warn("search cancelled", slog.Int("remaining_sources", len(a.sources)-i))
				break
			}
		}

		flights, report := a.session.Scrape(ctx, adapter, q)
		for _, f := range flights {
			f.SearchDate = result.Date
		}
		result.Flights = append(result.Flights, flights...)
		result.Sources = append(result.Sources, report)
	}

	result.EndTime = time.Now()
	log.Info("search finished",
		slog.Int("flights", result.TotalCount()),
		slog.Any("failed_sources", result.FailedSources()),
		slog.Duration("elapsed", result.EndTime.Sub(result.StartTime)),
	)
	return result
}
