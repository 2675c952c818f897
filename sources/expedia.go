package sources

import (
	"net/url"
	"time"
)

var expediaSelectors = Selectors{
	Container:    ".uitk-card",
	Result:       ".uitk-card",
	Airline:      ".uitk-text",
	Price:        ".uitk-price",
	Times:        ".uitk-time",
	Duration:     ".uitk-duration",
	Stops:        ".uitk-stops",
	FlightNumber: ".uitk-flight-number",
	Aircraft:     ".uitk-aircraft",
}

// Expedia scrapes expedia.com result cards.
type Expedia struct {
	listing
}

// NewExpedia returns the Expedia adapter.
func NewExpedia() *Expedia {
	return &Expedia{listing{name: "Expedia", sel: expediaSelectors}}
}

func (Expedia) SearchURL(from, to string, date time.Time) string {
	v := url.Values{}
	v.Set("from", from)
	v.Set("to", to)
	v.Set("date", date.Format("2006-01-02"))
	return "https://www.expedia.com/search/flights?" + v.Encode()
}
