// Package search coordinates a flight search: validation, scraping,
// persistence, events and price advice.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/analyzer"
	"github.com/Jonatas020918/myflyticketsearcher/events"
	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/parser"
	"github.com/Jonatas020918/myflyticketsearcher/storage"
)

// Scraper collects offers for one route and date across all sources.
type Scraper interface {
	ScrapeAll(ctx context.Context, from, to string, date time.Time) *models.ScraperResult
}

// Cache stores recent responses by query.
type Cache interface {
	Get(ctx context.Context, key string) (*SearchResponse, bool, error)
	Set(ctx context.Context, key string, resp *SearchResponse) error
}

// Publisher receives one event per persisted observation.
type Publisher interface {
	PublishObservations(ctx context.Context, events []events.FlightObserved) error
}

// SearchResponse is returned for every successful search.
type SearchResponse struct {
	Flights   []models.FlightRecord `json:"flights"`
	PriceTips analyzer.Tips         `json:"price_tips"`
	Metadata  SearchMetadata        `json:"search_metadata"`
}

type SearchMetadata struct {
	FromLocation string                `json:"from_location"`
	ToLocation   string                `json:"to_location"`
	InitialDate  models.Date           `json:"initial_date"`
	ReturnDate   models.Date           `json:"return_date"`
	TotalResults int                   `json:"total_results"`
	RunID        string                `json:"run_id"`
	Sources      []models.SourceReport `json:"sources"`
}

// Service runs searches against a scraper and a store.
type Service struct {
	scraper   Scraper
	store     storage.Store
	cache     Cache
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithCache serves repeated queries from c.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPublisher emits observation events to p after persistence.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source used for validation and tips.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(scraper Scraper, store storage.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		scraper: scraper,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search validates req, scrapes every source, records each offer and its
// price observation, and returns the stored flights with route advice.
// It fails only on validation or persistence errors.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	q, err := req.Validate(s.now())
	if err != nil {
		return nil, err
	}
	log := s.logger.With(
		slog.String("from", q.From),
		slog.String("to", q.To),
		slog.String("date", q.InitialDate.String()),
	)

	key := q.CacheKey()
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn("search cache read failed", slog.Any("error", err))
		} else if ok {
			log.Debug("search served from cache")
			return cached, nil
		}
	}

	result := s.scraper.ScrapeAll(ctx, q.From, q.To, q.InitialDate.Time)

	ids, observed, err := s.persist(ctx, result)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil && len(observed) > 0 {
		if err := s.publisher.PublishObservations(ctx, observed); err != nil {
			log.Warn("publishing observations failed", slog.Int("events", len(observed)), slog.Any("error", err))
		}
	}

	tips, err := s.PriceTips(ctx, q.From, q.To)
	if err != nil {
		return nil, err
	}

	flights := make([]models.FlightRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.store.GetFlight(ctx, id)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *rec)
	}

	resp := &SearchResponse{
		Flights:   flights,
		PriceTips: tips,
		Metadata: SearchMetadata{
			FromLocation: q.From,
			ToLocation:   q.To,
			InitialDate:  q.InitialDate,
			ReturnDate:   q.ReturnDate,
			TotalResults: len(flights),
			RunID:        result.RunID,
			Sources:      result.Sources,
		},
	}
	log.Info("search completed",
		slog.String("run_id", result.RunID),
		slog.Int("scraped", result.TotalCount()),
		slog.Int("results", len(flights)),
		slog.Any("failed_sources", result.FailedSources()),
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp); err != nil {
			log.Warn("search cache write failed", slog.Any("error", err))
		}
	}
	return resp, nil
}

// persist upserts every scraped flight and appends its observed price.
// It returns the distinct flight ids in first-seen order.
func (s *Service) persist(ctx context.Context, result *models.ScraperResult) ([]int64, []events.FlightObserved, error) {
	var (
		ids      []int64
		observed []events.FlightObserved
	)
	for _, f := range result.Flights {
		if err := parser.ValidateFlight(f); err != nil {
			s.logger.Warn("dropping invalid flight", slog.String("source", f.Source), slog.Any("error", err))
			continue
		}
		id, err := s.store.UpsertFlight(ctx, f)
		if err != nil {
			return nil, nil, err
		}
		recordedAt := f.ScrapedAt
		if recordedAt.IsZero() {
			recordedAt = s.now().UTC()
		}
		entry := models.PriceHistoryEntry{
			Price:      f.Price,
			Currency:   f.Currency,
			RecordedAt: recordedAt,
			SearchDate: f.SearchDate,
		}
		if err := s.store.AppendPriceHistory(ctx, id, entry); err != nil {
			return nil, nil, err
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
		observed = append(observed, events.NewFlightObserved(result.RunID, id, f, recordedAt))
	}
	return ids, observed, nil
}

// PriceTips returns advice computed over every stored offer on the route.
func (s *Service) PriceTips(ctx context.Context, from, to string) (analyzer.Tips, error) {
	records, err := s.routeFlights(ctx, from, to)
	if err != nil {
		return analyzer.Tips{}, err
	}
	return analyzer.PriceTips(records, s.now()), nil
}

// RouteAnalysis returns the full price analysis for the route.
func (s *Service) RouteAnalysis(ctx context.Context, from, to string) (analyzer.Report, error) {
	records, err := s.routeFlights(ctx, from, to)
	if err != nil {
		return analyzer.Report{}, err
	}
	return analyzer.Analyze(records), nil
}

// PriceHistory returns the observations of flight id, newest first.
func (s *Service) PriceHistory(ctx context.Context, id int64) ([]models.PriceHistoryEntry, error) {
	return s.store.PriceHistory(ctx, id)
}

func (s *Service) routeFlights(ctx context.Context, from, to string) ([]*models.Flight, error) {
	records, err := s.store.RouteFlights(ctx, parser.NormalizeAirportCode(from), parser.NormalizeAirportCode(to))
	if err != nil {
		return nil, fmt.Errorf("load route %s-%s: %w", from, to, err)
	}
	out := make([]*models.Flight, len(records))
	for i := range records {
		out[i] = &records[i].Flight
	}
	return out, nil
}
