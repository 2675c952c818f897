package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scrape session.
type Metrics struct {
	Registry        *prometheus.Registry
	SourceRuns      *prometheus.CounterVec
	SourceDuration  *prometheus.HistogramVec
	FlightsScraped  *prometheus.CounterVec
	ElementsSkipped *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flights_source_runs_total",
			Help: "Source visits by final session state.",
		},
		[]string{"source", "state"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flights_source_duration_seconds",
			Help:    "Time spent on one source visit, waits included.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 90, 120, 180},
		},
		[]string{"source"},
	)
	flights := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flights_scraped_total",
			Help: "Flights extracted per source.",
		},
		[]string{"source"},
	)
	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flights_elements_skipped_total",
			Help: "Result elements skipped during extraction by reason.",
		},
		[]string{"source", "reason"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flights_page_retries_total",
			Help: "Total number of page fetch retries scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flights_source_errors_total",
			Help: "Failed source visits by error type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(runs, duration, flights, skipped, retries, errorsTotal)

	return &Metrics{
		Registry:        registry,
		SourceRuns:      runs,
		SourceDuration:  duration,
		FlightsScraped:  flights,
		ElementsSkipped: skipped,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
	}
}

// ObserveRun records the outcome and duration of one source visit.
func (m *Metrics) ObserveRun(source, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.SourceRuns.WithLabelValues(source, state).Inc()
	m.SourceDuration.WithLabelValues(source).Observe(d.Seconds())
}

// IncFlights increments the flights counter for source.
func (m *Metrics) IncFlights(source string) {
	if m == nil {
		return
	}
	m.FlightsScraped.WithLabelValues(source).Inc()
}

// IncSkipped increments the skipped-element counter.
func (m *Metrics) IncSkipped(source, reason string) {
	if m == nil {
		return
	}
	m.ElementsSkipped.WithLabelValues(source, reason).Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
