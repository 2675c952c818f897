package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/shopspring/decimal"
)

func TestParseTime(t *testing.T) {
	ref := time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{name: "morning 12h", input: "6:05 AM", wantHour: 6, wantMinute: 5},
		{name: "evening 12h", input: "11:40 PM", wantHour: 23, wantMinute: 40},
		{name: "noon", input: "12:00 PM", wantHour: 12, wantMinute: 0},
		{name: "midnight", input: "12:15 AM", wantHour: 0, wantMinute: 15},
		{name: "lowercase no space", input: "7:30pm", wantHour: 19, wantMinute: 30},
		{name: "dotted meridiem", input: "9:10 a.m.", wantHour: 9, wantMinute: 10},
		{name: "24h", input: "18:45", wantHour: 18, wantMinute: 45},
		{name: "24h with noise", input: "Departs 07:20", wantHour: 7, wantMinute: 20},
		{name: "hour out of range 12h", input: "13:05 PM", wantErr: true},
		{name: "hour out of range 24h", input: "25:00", wantErr: true},
		{name: "minute out of range", input: "10:75", wantErr: true},
		{name: "no clock", input: "tomorrow morning", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.input, ref)
			if tt.wantErr {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("ParseTime(%q) error = %v, want *ParseError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTime(%q) unexpected error: %v", tt.input, err)
			}
			if got.Hour() != tt.wantHour || got.Minute() != tt.wantMinute {
				t.Errorf("ParseTime(%q) = %02d:%02d, want %02d:%02d", tt.input, got.Hour(), got.Minute(), tt.wantHour, tt.wantMinute)
			}
			if y, m, d := got.Date(); y != 2026 || m != time.November || d != 20 {
				t.Errorf("ParseTime(%q) date = %v, want reference date", tt.input, got)
			}
		})
	}
}

func TestParseTimeRoundTrip(t *testing.T) {
	ref := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 7, 59} {
			at := time.Date(2026, 3, 1, hour, minute, 0, 0, time.UTC)
			for _, layout := range []string{"3:04 PM", "15:04"} {
				text := at.Format(layout)
				got, err := ParseTime(text, ref)
				if err != nil {
					t.Fatalf("ParseTime(%q): %v", text, err)
				}
				if !got.Equal(at) {
					t.Fatalf("ParseTime(%q) = %v, want %v", text, got, at)
				}
			}
		}
	}
}

func TestRollOvernight(t *testing.T) {
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		departure time.Time
		arrival   time.Time
		want      time.Time
	}{
		{
			name:      "same day",
			departure: day.Add(6 * time.Hour),
			arrival:   day.Add(23*time.Hour + 40*time.Minute),
			want:      day.Add(23*time.Hour + 40*time.Minute),
		},
		{
			name:      "crosses midnight",
			departure: day.Add(22 * time.Hour),
			arrival:   day.Add(1 * time.Hour),
			want:      day.Add(25 * time.Hour),
		},
		{
			name:      "equal times",
			departure: day.Add(8 * time.Hour),
			arrival:   day.Add(8 * time.Hour),
			want:      day.Add(8 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RollOvernight(tt.departure, tt.arrival)
			if !got.Equal(tt.want) {
				t.Errorf("RollOvernight() = %v, want %v", got, tt.want)
			}
			if got.Before(tt.departure) {
				t.Errorf("RollOvernight() = %v is before departure %v", got, tt.departure)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "thousands separator", input: "$1,234.50", want: "1234.5"},
		{name: "plain", input: "$245.00", want: "245"},
		{name: "no cents", input: "from $89 round trip", want: "89"},
		{name: "millions", input: "$1,234,567.10", want: "1234567.1"},
		{name: "space after symbol", input: "$ 412", want: "412"},
		{name: "short group after comma", input: "$1,23", want: "123"},
		{name: "first of many", input: "$120 or $340", want: "120"},
		{name: "no price", input: "no price here", wantErr: true},
		{name: "other currency", input: "€99", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("ParsePrice(%q) error = %v, want *ParseError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "canonical", input: "5h 35m", expected: "5h 35m"},
		{name: "extra whitespace", input: "  5h    35m  ", expected: "5h 35m"},
		{name: "embedded in text", input: "Total 2h 10m nonstop", expected: "2h 10m"},
		{name: "hours only", input: "3h", expected: "3h"},
		{name: "minutes only", input: "45m", expected: "45m"},
		{name: "long form", input: "2 hr 5 min", expected: "2 hr 5 min"},
		{name: "no token passthrough", input: "see   details", expected: "see details"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDuration(tt.input); got != tt.expected {
				t.Errorf("NormalizeDuration(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input  string
		want   time.Duration
		wantOK bool
	}{
		{input: "5h 35m", want: 5*time.Hour + 35*time.Minute, wantOK: true},
		{input: "2 hrs 10 mins", want: 2*time.Hour + 10*time.Minute, wantOK: true},
		{input: "7h", want: 7 * time.Hour, wantOK: true},
		{input: "50m", want: 50 * time.Minute, wantOK: true},
		{input: "unknown", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDuration(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, %v, want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(5*time.Hour + 35*time.Minute); got != "5h 35m" {
		t.Errorf("FormatDuration() = %q, want %q", got, "5h 35m")
	}
	if got := FormatDuration(40 * time.Minute); got != "0h 40m" {
		t.Errorf("FormatDuration() = %q, want %q", got, "0h 40m")
	}
}

func TestParseStops(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "nonstop", input: "Nonstop", want: 0},
		{name: "non-stop", input: "Non-stop", want: 0},
		{name: "direct", input: "Direct flight", want: 0},
		{name: "one stop", input: "1 stop", want: 1},
		{name: "two stops with city", input: "2 stops via ORD", want: 2},
		{name: "indirect is not direct", input: "Indirect, 1 stop", want: 1},
		{name: "direct inside punctuation", input: "(direct)", want: 0},
		{name: "unknown", input: "layover", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStops(tt.input)
			if tt.wantErr {
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("ParseStops(%q) error = %v, want *ParseError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStops(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStops(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAirportCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: " jfk ", expected: "JFK"},
		{input: "KLAX", expected: "LAX"},
		{input: "EGLL", expected: "EGLL"},
		{input: "sfo", expected: "SFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeAirportCode(tt.input); got != tt.expected {
				t.Errorf("NormalizeAirportCode(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidateFlight(t *testing.T) {
	departure := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	valid := func() *models.Flight {
		f := models.NewFlight("Kayak")
		f.Airline = "Delta"
		f.FromLocation = "JFK"
		f.ToLocation = "LAX"
		f.DepartureTime = departure
		f.ArrivalTime = departure.Add(5*time.Hour + 35*time.Minute)
		f.Price = decimal.RequireFromString("245.00")
		return f
	}

	tests := []struct {
		name    string
		mutate  func(*models.Flight)
		wantErr bool
	}{
		{name: "valid flight", mutate: func(*models.Flight) {}},
		{name: "missing airline", mutate: func(f *models.Flight) { f.Airline = " " }, wantErr: true},
		{name: "lowercase route", mutate: func(f *models.Flight) { f.FromLocation = "jfk" }, wantErr: true},
		{name: "arrival before departure", mutate: func(f *models.Flight) { f.ArrivalTime = departure.Add(-time.Hour) }, wantErr: true},
		{name: "negative price", mutate: func(f *models.Flight) { f.Price = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "stop locations mismatch", mutate: func(f *models.Flight) { f.Stops = 2; f.StopLocations = []string{"ORD"} }, wantErr: true},
		{name: "missing source", mutate: func(f *models.Flight) { f.Source = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			err := ValidateFlight(f)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFlight() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateFlight(nil); err == nil {
		t.Errorf("ValidateFlight(nil) error = nil, want error")
	}
}
