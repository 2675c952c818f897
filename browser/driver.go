// Package browser abstracts the page handle the scrape session drives: a
// real Chromium instance through go-rod, or a static HTTP fetch parsed with
// goquery.
package browser

import (
	"context"
	"errors"
	"time"
)

// Driver is one page handle. Implementations are not safe for concurrent use.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Ready(ctx context.Context) (bool, error)
	Has(ctx context.Context, selector string) (bool, error)
	ScrollToBottom(ctx context.Context) error
	Elements(ctx context.Context, selector string) ([]Element, error)
	Close() error
}

// Element is one node of the loaded page.
type Element interface {
	Text() (string, error)
	// Find returns the first descendant matching selector, waiting up to the
	// driver's element timeout. ErrNoSuchElement when none appears.
	Find(selector string) (Element, error)
	// FindAll returns the descendants matching selector without waiting.
	FindAll(selector string) ([]Element, error)
}

// ErrWaitTimeout is wrapped in ErrTimeout when a polled condition never held.
var ErrWaitTimeout = errors.New("condition not met before deadline")

// WaitFor polls cond every interval until it reports true or timeout passes.
// Stale nodes and per-call deadlines count as "not yet" and are reported if
// the wait expires. Any other error from cond ends the wait at once; untyped
// ones are returned as ErrConnection.
func WaitFor(ctx context.Context, timeout, interval time.Duration, cond func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(waitCtx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !retryable(err) {
				if ErrorType(err) == "other" {
					return ErrConnection{Err: err}
				}
				return err
			}
			lastErr = err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if lastErr == nil || errors.Is(lastErr, context.DeadlineExceeded) {
				lastErr = ErrWaitTimeout
			}
			return ErrTimeout{Err: lastErr}
		case <-ticker.C:
		}
	}
}

// retryable reports whether a failed check may pass on a later poll.
func retryable(err error) bool {
	var timeout ErrTimeout
	return errors.Is(err, ErrStale) ||
		errors.Is(err, ErrNoSuchElement) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &timeout)
}
