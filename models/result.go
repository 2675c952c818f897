package models

import "time"

// SourceReport summarises one source visit within a scrape run.
type SourceReport struct {
	Source    string        `json:"source"`
	State     string        `json:"state"`
	Flights   int           `json:"flights"`
	Elements  int           `json:"elements"`
	Skipped   int           `json:"skipped"`
	ErrorType string        `json:"error_type,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// ScraperResult holds the overall result of a scrape run across all sources.
type ScraperResult struct {
	RunID     string
	From      string
	To        string
	Date      Date
	Flights   []*Flight
	Sources   []SourceReport
	StartTime time.Time
	EndTime   time.Time
}

// TotalCount returns the number of flights collected.
func (r *ScraperResult) TotalCount() int {
	if r == nil {
		return 0
	}
	return len(r.Flights)
}

// ErrorsByType counts failed sources by error category.
func (r *ScraperResult) ErrorsByType() map[string]int {
	out := make(map[string]int)
	if r == nil {
		return out
	}
	for _, s := range r.Sources {
		if s.ErrorType != "" {
			out[s.ErrorType]++
		}
	}
	return out
}

// FailedSources lists the sources that produced no usable page.
func (r *ScraperResult) FailedSources() []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, s := range r.Sources {
		if s.Error != "" {
			out = append(out, s.Source)
		}
	}
	return out
}
