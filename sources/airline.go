package sources

import (
	"net/url"
	"time"
)

var airlineSelectors = Selectors{
	Container:    ".flight-results",
	Result:       ".flight-result",
	Price:        ".price",
	Times:        ".time",
	Duration:     ".duration",
	Stops:        ".stops",
	FlightNumber: ".flight-number",
	Aircraft:     ".aircraft-type",
}

// Airline scrapes a carrier's own search page. Every record carries the
// carrier's name as both airline and source.
type Airline struct {
	listing
	domain string
}

// NewAirline returns an adapter for the carrier name served at domain.
func NewAirline(name, domain string) *Airline {
	return &Airline{
		listing: listing{name: name, sel: airlineSelectors, airline: name},
		domain:  domain,
	}
}

// Domain returns the carrier's host.
func (a Airline) Domain() string { return a.domain }

func (a Airline) SearchURL(from, to string, date time.Time) string {
	v := url.Values{}
	v.Set("from", from)
	v.Set("to", to)
	v.Set("date", date.Format("2006-01-02"))
	return "https://www." + a.domain + "/flights/search?" + v.Encode()
}
