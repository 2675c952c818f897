// Package scraper drives one browser handle across the flight sources and
// collects the normalized results.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/browser"
	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/parser"
	"github.com/Jonatas020918/myflyticketsearcher/sources"
)

// State is the position of a session within one source visit.
type State int

const (
	StateIdle State = iota
	StateNavigating
	StateAwaitingPageReady
	StateAwaitingResultsContainer
	StateExtracting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateAwaitingPageReady:
		return "awaiting_page_ready"
	case StateAwaitingResultsContainer:
		return "awaiting_results_container"
	case StateExtracting:
		return "extracting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Session owns one browser handle and visits sources with it one at a time.
type Session struct {
	driver  browser.Driver
	cfg     *config.Config
	logger  *slog.Logger
	metrics *Metrics
	sleep   Sleeper

	state State

	closeOnce sync.Once
	closeErr  error
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithMetrics records visit outcomes on m.
func WithMetrics(m *Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithSleeper replaces the pacing sleep.
func WithSleeper(fn Sleeper) SessionOption {
	return func(s *Session) {
		s.sleep = fn
	}
}

// NewSession wraps driver. The session takes ownership and releases it in Close.
func NewSession(driver browser.Driver, cfg *config.Config, logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		driver: driver,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state reached by the last visit.
func (s *Session) State() State {
	return s.state
}

// Scrape visits one source and extracts every result it lists. Failures never
// escape: they leave the session in StateFailed, are described in the report
// and yield no flights. The session remains usable for the next source.
func (s *Session) Scrape(ctx context.Context, a sources.Adapter, q sources.Query) (flights []*models.Flight, report models.SourceReport) {
	start := time.Now()
	report.Source = a.Name()
	s.state = StateIdle
	log := s.logger.With(slog.String("source", a.Name()))

	defer func() {
		if r := recover(); r != nil {
			flights = nil
			s.fail(log, &report, &TransportError{Source: a.Name(), Err: fmt.Errorf("panic: %v", r)})
		}
		report.State = s.state.String()
		report.Flights = len(flights)
		report.Duration = time.Since(start)
		s.metrics.ObserveRun(a.Name(), report.State, report.Duration)
	}()

	if err := s.visit(ctx, a, q); err != nil {
		s.fail(log, &report, err)
		return nil, report
	}

	s.state = StateExtracting
	elements, err := s.collect(ctx, a)
	if err != nil {
		s.fail(log, &report, &TransportError{Source: a.Name(), Err: err})
		return nil, report
	}
	report.Elements = len(elements)

	flights = make([]*models.Flight, 0, len(elements))
	for i, el := range elements {
		flight, err := extract(a, el, q)
		if err != nil {
			reason := skipReason(err)
			report.Skipped++
			s.metrics.IncSkipped(a.Name(), reason)
			log.Debug("skipping result element",
				slog.Int("index", i),
				slog.String("reason", reason),
				slog.Any("error", err),
			)
			continue
		}
		s.metrics.IncFlights(a.Name())
		flights = append(flights, flight)
	}

	s.state = StateDone
	log.Info("source scraped",
		slog.Int("flights", len(flights)),
		slog.Int("elements", len(elements)),
		slog.Int("skipped", report.Skipped),
	)
	return flights, report
}

func (s *Session) visit(ctx context.Context, a sources.Adapter, q sources.Query) error {
	url := a.SearchURL(q.From, q.To, q.Date)

	s.state = StateNavigating
	s.logger.Debug("navigating", slog.String("source", a.Name()), slog.String("url", url))
	if err := s.driver.Navigate(ctx, url); err != nil {
		return &TransportError{Source: a.Name(), Err: err}
	}

	s.state = StateAwaitingPageReady
	if err := browser.WaitFor(ctx, s.cfg.PageTimeout, s.cfg.PollInterval, s.driver.Ready); err != nil {
		return waitError(a.Name(), "page ready", err)
	}

	s.state = StateAwaitingResultsContainer
	container := a.ContainerSelector()
	err := browser.WaitFor(ctx, s.cfg.ContainerTimeout, s.cfg.PollInterval, func(ctx context.Context) (bool, error) {
		return s.driver.Has(ctx, container)
	})
	if err != nil {
		return waitError(a.Name(), "results container "+container, err)
	}
	return nil
}

func (s *Session) collect(ctx context.Context, a sources.Adapter) ([]browser.Element, error) {
	if err := s.sleep(ctx, randomBetween(s.cfg.HumanDelayMin, s.cfg.HumanDelayMax)); err != nil {
		return nil, err
	}
	if err := s.driver.ScrollToBottom(ctx); err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	if err := s.sleep(ctx, s.cfg.SettleDelay); err != nil {
		return nil, err
	}
	elements, err := s.driver.Elements(ctx, a.ResultSelector())
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return elements, nil
}

func (s *Session) fail(log *slog.Logger, report *models.SourceReport, err error) {
	stage := s.state
	s.state = StateFailed
	category := browser.ErrorType(err)
	report.ErrorType = category
	report.Error = err.Error()
	s.metrics.IncError(category)
	log.Warn("source failed",
		slog.String("stage", stage.String()),
		slog.String("category", category),
		slog.Any("error", err),
	)
}

// Close releases the browser handle. Later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.driver != nil {
			s.closeErr = s.driver.Close()
		}
	})
	return s.closeErr
}

// DriverFactory acquires a fresh browser handle.
type DriverFactory func(ctx context.Context) (browser.Driver, error)

// WithSession acquires a driver, runs fn with a session around it and
// releases the driver on every exit path, panics included.
func WithSession(ctx context.Context, factory DriverFactory, cfg *config.Config, logger *slog.Logger, fn func(*Session) error, opts ...SessionOption) error {
	driver, err := factory(ctx)
	if err != nil {
		return &TransportError{Source: "browser", Err: err}
	}
	s := NewSession(driver, cfg, logger, opts...)
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Warn("release browser", slog.Any("error", err))
		}
	}()
	return fn(s)
}

// extract runs the adapter on one element, turning a panic into a skip.
func extract(a sources.Adapter, el browser.Element, q sources.Query) (flight *models.Flight, err error) {
	defer func() {
		if r := recover(); r != nil {
			flight, err = nil, fmt.Errorf("extract panicked: %v", r)
		}
	}()
	return a.Extract(el, q)
}

func skipReason(err error) string {
	var parseErr *parser.ParseError
	switch {
	case errors.Is(err, browser.ErrStale):
		return "stale"
	case errors.Is(err, sources.ErrMissingField):
		return "missing_field"
	case errors.As(err, &parseErr):
		return "parse_" + parseErr.Field
	default:
		return "other"
	}
}

func waitError(source, stage string, err error) error {
	var timeout browser.ErrTimeout
	if errors.As(err, &timeout) {
		return &TimeoutError{Source: source, Stage: stage, Err: err}
	}
	return &TransportError{Source: source, Err: fmt.Errorf("wait for %s: %w", stage, err)}
}

func randomBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
