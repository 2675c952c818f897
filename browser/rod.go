package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	hideWebdriverJS = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`
	readyStateJS    = `() => document.readyState === 'complete'`
	scrollBottomJS  = `() => window.scrollTo(0, document.body.scrollHeight)`
)

// RodDriver drives one headless Chromium tab. The browser process is owned
// by the driver and killed by Close.
type RodDriver struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	logger   *slog.Logger

	navTimeout     time.Duration
	elementTimeout time.Duration
	pollInterval   time.Duration

	closeOnce sync.Once
	closeErr  error
}

// LaunchRod starts Chromium and opens a single tab with basic automation
// markers hidden.
func LaunchRod(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*RodDriver, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("window-size", "1920,1080")
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, ErrConnection{Err: fmt.Errorf("launch browser: %w", err)}
	}

	d := &RodDriver{
		launcher:       l,
		logger:         logger,
		navTimeout:     cfg.PageTimeout,
		elementTimeout: cfg.ElementTimeout,
		pollInterval:   cfg.PollInterval,
	}

	d.browser = rod.New().ControlURL(controlURL)
	if err := d.browser.Connect(); err != nil {
		d.browser = nil
		d.Close()
		return nil, ErrConnection{Err: fmt.Errorf("connect browser: %w", err)}
	}

	page, err := d.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		d.Close()
		return nil, ErrConnection{Err: fmt.Errorf("open page: %w", err)}
	}
	d.page = page

	ua := pickUserAgent(cfg.UserAgents)
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		d.Close()
		return nil, fmt.Errorf("set user agent: %w", err)
	}
	if _, err := page.EvalOnNewDocument(hideWebdriverJS); err != nil {
		d.Close()
		return nil, fmt.Errorf("install webdriver mask: %w", err)
	}

	logger.Debug("browser launched", slog.String("control_url", controlURL), slog.Bool("headless", cfg.Headless))
	return d, nil
}

// Navigate loads url in the tab, bounded by the page timeout.
func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx).Timeout(d.navTimeout)
	defer p.CancelTimeout()
	if err := p.Navigate(url); err != nil {
		return rodError(err)
	}
	return nil
}

// Ready reports whether document.readyState is complete.
func (d *RodDriver) Ready(ctx context.Context) (bool, error) {
	res, err := d.page.Context(ctx).Eval(readyStateJS)
	if err != nil {
		return false, rodError(err)
	}
	return res.Value.Bool(), nil
}

// Has reports whether selector currently matches a node.
func (d *RodDriver) Has(ctx context.Context, selector string) (bool, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return false, rodError(err)
	}
	return len(els) > 0, nil
}

// ScrollToBottom scrolls the window so lazy-loaded results render.
func (d *RodDriver) ScrollToBottom(ctx context.Context) error {
	if _, err := d.page.Context(ctx).Eval(scrollBottomJS); err != nil {
		return rodError(err)
	}
	return nil
}

// Elements returns the nodes matching selector without waiting.
func (d *RodDriver) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, rodError(err)
	}
	return d.wrap(els), nil
}

// Close closes the tab and browser and kills the Chromium process. Safe to
// call more than once.
func (d *RodDriver) Close() error {
	d.closeOnce.Do(func() {
		var errs []error
		if d.page != nil {
			if err := d.page.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if d.browser != nil {
			if err := d.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if d.launcher != nil {
			d.launcher.Kill()
			d.launcher.Cleanup()
		}
		d.closeErr = errors.Join(errs...)
		if d.logger != nil {
			d.logger.Debug("browser released")
		}
	})
	return d.closeErr
}

func (d *RodDriver) wrap(els rod.Elements) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, timeout: d.elementTimeout, interval: d.pollInterval})
	}
	return out
}

type rodElement struct {
	el       *rod.Element
	timeout  time.Duration
	interval time.Duration
}

func (e *rodElement) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", rodError(err)
	}
	return strings.TrimSpace(text), nil
}

func (e *rodElement) Find(selector string) (Element, error) {
	var found []Element
	err := WaitFor(e.el.GetContext(), e.timeout, e.interval, func(context.Context) (bool, error) {
		els, err := e.FindAll(selector)
		if err != nil {
			return false, err
		}
		found = els
		return len(els) > 0, nil
	})
	if err != nil {
		if errors.Is(err, ErrStale) {
			return nil, err
		}
		var timeout ErrTimeout
		if errors.As(err, &timeout) {
			return nil, ErrNoSuchElement
		}
		return nil, err
	}
	return found[0], nil
}

func (e *rodElement) FindAll(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, rodError(err)
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el, timeout: e.timeout, interval: e.interval})
	}
	return out, nil
}

var staleMarkers = []string{
	"Could not find node",
	"No node with given id",
	"Node is detached",
	"Cannot find context with specified id",
}

func rodError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	msg := err.Error()
	for _, marker := range staleMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrStale, err)
		}
	}
	return err
}
