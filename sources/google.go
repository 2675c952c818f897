package sources

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

var googleSelectors = Selectors{
	Container:    `div[role='list']`,
	Result:       `div[role='listitem']`,
	Airline:      `div[role='link']`,
	Price:        `span[aria-label*='$']`,
	Times:        `div[role='text']`,
	Duration:     `div[class*='duration']`,
	Stops:        `div[class*='stops']`,
	FlightNumber: `div[class*='flight-number']`,
	Aircraft:     `div[class*='aircraft']`,
}

var googleDurationPattern = regexp.MustCompile(`\d+h(?:\s*\d+m)?`)

// GoogleFlights scrapes the Google Flights results list.
type GoogleFlights struct {
	listing
}

// NewGoogleFlights returns the Google Flights adapter.
func NewGoogleFlights() *GoogleFlights {
	return &GoogleFlights{listing{
		name: "Google Flights",
		sel:  googleSelectors,
		// The duration cell also carries the route summary.
		duration: func(text string) string {
			return googleDurationPattern.FindString(text)
		},
	}}
}

// SearchURL builds the free-text query URL Google Flights accepts.
func (GoogleFlights) SearchURL(from, to string, date time.Time) string {
	q := fmt.Sprintf("Flights to %s from %s on %s", to, from, date.Format("2006-01-02"))
	return "https://www.google.com/travel/flights?q=" + url.PathEscape(q)
}
