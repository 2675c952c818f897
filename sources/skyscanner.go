package sources

import (
	"fmt"
	"time"
)

var skyscannerSelectors = Selectors{
	Container:    ".flight-card",
	Result:       ".flight-card",
	Airline:      ".airline-name",
	Price:        ".price",
	Times:        ".time",
	Duration:     ".duration",
	Stops:        ".stops",
	FlightNumber: ".flight-number",
	Aircraft:     ".aircraft-type",
}

// Skyscanner scrapes skyscanner.com flight cards.
type Skyscanner struct {
	listing
}

// NewSkyscanner returns the Skyscanner adapter.
func NewSkyscanner() *Skyscanner {
	return &Skyscanner{listing{name: "Skyscanner", sel: skyscannerSelectors}}
}

// SearchURL passes the airport codes through as given.
func (Skyscanner) SearchURL(from, to string, date time.Time) string {
	return fmt.Sprintf("https://www.skyscanner.com/transport/flights/%s/%s/%s",
		from, to, date.Format("2006-01-02"))
}
