// Package sources knows where each travel site lists flights and how to turn
// one listing into a models.Flight.
package sources

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/browser"
	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/parser"
)

// ErrMissingField is wrapped when a required sub-element is absent.
var ErrMissingField = errors.New("missing required field")

// Query is the route and date a source is searched for.
type Query struct {
	From string
	To   string
	Date time.Time
}

// Adapter is one scrapeable source.
type Adapter interface {
	Name() string
	SearchURL(from, to string, date time.Time) string
	ContainerSelector() string
	ResultSelector() string
	// Extract converts one result element into a flight. A nil flight with a
	// non-nil error means the element should be skipped.
	Extract(el browser.Element, q Query) (*models.Flight, error)
}

// Selectors locate the fields of one result element.
type Selectors struct {
	Container    string
	Result       string
	Airline      string
	Price        string
	Times        string
	Duration     string
	Stops        string
	FlightNumber string
	Aircraft     string
}

// listing is the shared extraction used by every adapter. Sources differ
// only in selectors, URL shape and a few field quirks.
type listing struct {
	name     string
	sel      Selectors
	airline  string                   // fixed airline name for carrier sites
	duration func(text string) string // source-specific duration cleanup
}

func (l listing) Name() string              { return l.name }
func (l listing) ContainerSelector() string { return l.sel.Container }
func (l listing) ResultSelector() string    { return l.sel.Result }

func (l listing) Extract(el browser.Element, q Query) (*models.Flight, error) {
	f := models.NewFlight(l.name)
	f.FromLocation = parser.NormalizeAirportCode(q.From)
	f.ToLocation = parser.NormalizeAirportCode(q.To)

	if l.airline != "" {
		f.Airline = l.airline
	} else {
		airline, err := requiredText(el, l.sel.Airline, "airline")
		if err != nil {
			return nil, err
		}
		f.Airline = airline
	}

	priceText, err := requiredText(el, l.sel.Price, "price")
	if err != nil {
		return nil, err
	}
	if f.Price, err = parser.ParsePrice(priceText); err != nil {
		return nil, err
	}

	timeEls, err := el.FindAll(l.sel.Times)
	if err != nil {
		return nil, err
	}
	if len(timeEls) < 2 {
		return nil, fmt.Errorf("%w: times (found %d)", ErrMissingField, len(timeEls))
	}
	depText, err := timeEls[0].Text()
	if err != nil {
		return nil, err
	}
	arrText, err := timeEls[1].Text()
	if err != nil {
		return nil, err
	}
	if f.DepartureTime, err = parser.ParseTime(depText, q.Date); err != nil {
		return nil, err
	}
	arrival, err := parser.ParseTime(arrText, q.Date)
	if err != nil {
		return nil, err
	}
	f.ArrivalTime = parser.RollOvernight(f.DepartureTime, arrival)

	durationText, err := optionalText(el, l.sel.Duration)
	if err != nil {
		return nil, err
	}
	if l.duration != nil {
		durationText = l.duration(durationText)
	}
	if durationText != "" {
		f.Duration = parser.NormalizeDuration(durationText)
	} else {
		f.Duration = parser.FormatDuration(f.ArrivalTime.Sub(f.DepartureTime))
	}

	stopsText, err := optionalText(el, l.sel.Stops)
	if err != nil {
		return nil, err
	}
	if stopsText != "" {
		if stops, err := parser.ParseStops(stopsText); err == nil {
			f.Stops = stops
		}
	}

	if f.FlightNumber, err = optionalText(el, l.sel.FlightNumber); err != nil {
		return nil, err
	}
	if f.AircraftType, err = optionalText(el, l.sel.Aircraft); err != nil {
		return nil, err
	}

	f.ScrapedAt = time.Now().UTC()
	return f, nil
}

func requiredText(el browser.Element, selector, field string) (string, error) {
	child, err := el.Find(selector)
	if errors.Is(err, browser.ErrNoSuchElement) {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if err != nil {
		return "", err
	}
	text, err := child.Text()
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return text, nil
}

// optionalText returns "" when the sub-element is absent. Stale errors still
// propagate so the whole element is skipped.
func optionalText(el browser.Element, selector string) (string, error) {
	if selector == "" {
		return "", nil
	}
	matches, err := el.FindAll(selector)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	text, err := matches[0].Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
