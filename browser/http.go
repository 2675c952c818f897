package browser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/gocolly/colly/v2"
)

// HTTPDriver loads pages with a plain HTTP fetch and parses them statically.
// It runs no JavaScript, so it only sees server-rendered results.
type HTTPDriver struct {
	cfg       *config.Config
	collector *colly.Collector
	logger    *slog.Logger
	onRetry   func(url string, attempt int, err error)

	doc      *Document
	parseErr error
	status   int
	fetchErr error
}

// HTTPOption customises an HTTPDriver.
type HTTPOption func(*HTTPDriver)

// WithRetryHook registers fn to be called before each retry.
func WithRetryHook(fn func(url string, attempt int, err error)) HTTPOption {
	return func(d *HTTPDriver) {
		d.onRetry = fn
	}
}

// WithTransport replaces the collector's HTTP transport.
func WithTransport(rt http.RoundTripper) HTTPOption {
	return func(d *HTTPDriver) {
		d.collector.WithTransport(rt)
	}
}

// NewHTTPDriver builds a synchronous collector configured from cfg.
func NewHTTPDriver(cfg *config.Config, logger *slog.Logger, opts ...HTTPOption) (*HTTPDriver, error) {
	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
	)

	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	d := &HTTPDriver{
		cfg:       cfg,
		collector: collector,
		logger:    logger,
		onRetry:   func(string, int, error) {},
	}

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", pickUserAgent(cfg.UserAgents))
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})
	collector.OnResponse(func(r *colly.Response) {
		d.status = r.StatusCode
		d.doc, d.parseErr = NewDocument(bytes.NewReader(r.Body))
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			d.status = r.StatusCode
		}
		d.fetchErr = err
	})

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Navigate fetches url, retrying transient failures with capped backoff.
func (d *HTTPDriver) Navigate(ctx context.Context, url string) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := d.fetch(url)
		if err == nil {
			return nil
		}
		if attempt >= d.cfg.MaxRetries || !Retryable(err) {
			return err
		}

		d.onRetry(url, attempt+1, err)
		delay := backoff(d.cfg, attempt+1)
		d.logger.Debug("retrying page fetch",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("category", ErrorType(err)),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (d *HTTPDriver) fetch(url string) error {
	d.doc, d.parseErr, d.status, d.fetchErr = nil, nil, 0, nil

	visitErr := d.collector.Visit(url)
	if visitErr != nil || d.fetchErr != nil {
		err := d.fetchErr
		if err == nil {
			err = visitErr
		}
		return Classify(err, d.status)
	}
	if d.parseErr != nil {
		return fmt.Errorf("parse %s: %w", url, d.parseErr)
	}
	if d.doc == nil {
		return fmt.Errorf("fetch %s: empty response", url)
	}
	return nil
}

// Ready reports whether a document has been loaded.
func (d *HTTPDriver) Ready(context.Context) (bool, error) {
	return d.doc != nil, nil
}

// Has reports whether the loaded document matches selector.
func (d *HTTPDriver) Has(_ context.Context, selector string) (bool, error) {
	if d.doc == nil {
		return false, ErrNoPage
	}
	return d.doc.Has(selector), nil
}

// ScrollToBottom is a no-op: static documents have no lazy content.
func (d *HTTPDriver) ScrollToBottom(context.Context) error {
	return nil
}

// Elements returns the nodes matching selector in the loaded document.
func (d *HTTPDriver) Elements(_ context.Context, selector string) ([]Element, error) {
	if d.doc == nil {
		return nil, ErrNoPage
	}
	return d.doc.Elements(selector), nil
}

// Close drops the loaded document.
func (d *HTTPDriver) Close() error {
	d.doc = nil
	return nil
}

func backoff(cfg *config.Config, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func pickUserAgent(agents []string) string {
	if len(agents) == 0 {
		return ""
	}
	return agents[rand.IntN(len(agents))]
}
