// Package models defines the records exchanged between the scraper, storage and API.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record defaults applied when a source does not expose the field.
const (
	DefaultCurrency   = "USD"
	DefaultCabinClass = "Economy"
)

// Flight is the canonical offer every source is normalized into.
type Flight struct {
	Airline             string          `csv:"airline" json:"airline"`
	FlightNumber        string          `csv:"flight_number" json:"flight_number"`
	FromLocation        string          `csv:"from_location" json:"from_location"`
	ToLocation          string          `csv:"to_location" json:"to_location"`
	DepartureTime       time.Time       `csv:"departure_time" json:"departure_time"`
	ArrivalTime         time.Time       `csv:"arrival_time" json:"arrival_time"`
	Duration            string          `csv:"duration" json:"duration"`
	Price               decimal.Decimal `csv:"price" json:"price"`
	Currency            string          `csv:"currency" json:"currency"`
	Stops               int             `csv:"stops" json:"stops"`
	StopLocations       []string        `csv:"-" json:"stop_locations"`
	CabinClass          string          `csv:"cabin_class" json:"cabin_class"`
	AircraftType        string          `csv:"aircraft_type" json:"aircraft_type"`
	CarryOnIncluded     bool            `csv:"carry_on_included" json:"carry_on_included"`
	CheckedBagsIncluded int             `csv:"checked_bags_included" json:"checked_bags_included"`
	Refundable          bool            `csv:"refundable" json:"refundable"`
	Source              string          `csv:"source" json:"source"`
	SearchDate          Date            `csv:"search_date" json:"search_date"`
	ScrapedAt           time.Time       `csv:"scraped_at" json:"scraped_at"`
}

// NewFlight returns a flight with the record defaults filled in.
func NewFlight(source string) *Flight {
	return &Flight{
		Currency:        DefaultCurrency,
		CabinClass:      DefaultCabinClass,
		CarryOnIncluded: true,
		StopLocations:   []string{},
		Source:          source,
	}
}

// Key returns the identity used for upserts.
func (f *Flight) Key() FlightKey {
	return FlightKey{
		Airline:       f.Airline,
		FromLocation:  f.FromLocation,
		ToLocation:    f.ToLocation,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
	}
}

// FlightKey identifies one offer across repeated observations.
type FlightKey struct {
	Airline       string
	FromLocation  string
	ToLocation    string
	DepartureTime time.Time
	ArrivalTime   time.Time
}

func (k FlightKey) String() string {
	return strings.Join([]string{
		k.Airline,
		k.FromLocation,
		k.ToLocation,
		k.DepartureTime.UTC().Format(time.RFC3339),
		k.ArrivalTime.UTC().Format(time.RFC3339),
	}, "|")
}

// FlightRecord is a persisted flight together with its observed prices.
type FlightRecord struct {
	ID int64 `json:"id"`
	Flight
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	PriceHistory []PriceHistoryEntry `json:"price_history"`
}

// PriceHistoryEntry is one price observation of a persisted flight.
type PriceHistoryEntry struct {
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	RecordedAt time.Time       `json:"recorded_at"`
	SearchDate Date            `json:"search_date"`
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to midnight in its own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// ParseDate parses a YYYY-MM-DD string as a UTC date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}
