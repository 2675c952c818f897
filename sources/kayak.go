package sources

import (
	"fmt"
	"time"
)

var kayakSelectors = Selectors{
	Container:    ".flight-result",
	Result:       ".flight-result",
	Airline:      ".airline-name",
	Price:        ".price-text",
	Times:        ".time",
	Duration:     ".duration",
	Stops:        ".stops-text",
	FlightNumber: ".flight-number",
	Aircraft:     ".aircraft-type",
}

// Kayak scrapes kayak.com result cards.
type Kayak struct {
	listing
}

// NewKayak returns the Kayak adapter.
func NewKayak() *Kayak {
	return &Kayak{listing{name: "Kayak", sel: kayakSelectors}}
}

func (Kayak) SearchURL(from, to string, date time.Time) string {
	return fmt.Sprintf("https://www.kayak.com/flights/%s-%s/%s", from, to, date.Format("2006-01-02"))
}
