package scraper

import "fmt"

// TimeoutError reports a bounded wait on a source page that expired.
type TimeoutError struct {
	Source string
	Stage  string
	Err    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out waiting for %s: %v", e.Source, e.Stage, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// TransportError reports a browser or network fault while visiting a source.
type TransportError struct {
	Source string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
