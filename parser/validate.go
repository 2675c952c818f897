package parser

import (
	"fmt"
	"strings"

	"github.com/Jonatas020918/myflyticketsearcher/models"
)

// ValidateFlight ensures a record satisfies the normalized flight invariants.
func ValidateFlight(f *models.Flight) error {
	if f == nil {
		return fmt.Errorf("flight is nil")
	}
	if strings.TrimSpace(f.Airline) == "" {
		return fmt.Errorf("flight missing airline")
	}
	if !IsAirportCode(f.FromLocation) || !IsAirportCode(f.ToLocation) {
		return fmt.Errorf("flight %s has invalid route %q-%q", f.Airline, f.FromLocation, f.ToLocation)
	}
	if f.DepartureTime.IsZero() || f.ArrivalTime.IsZero() {
		return fmt.Errorf("flight %s missing departure or arrival time", f.Airline)
	}
	if f.ArrivalTime.Before(f.DepartureTime) {
		return fmt.Errorf("flight %s arrives before it departs", f.Airline)
	}
	if f.Price.IsNegative() {
		return fmt.Errorf("flight %s has negative price %s", f.Airline, f.Price)
	}
	if f.Stops < 0 {
		return fmt.Errorf("flight %s has negative stops", f.Airline)
	}
	if len(f.StopLocations) != 0 && len(f.StopLocations) != f.Stops {
		return fmt.Errorf("flight %s lists %d stop locations for %d stops", f.Airline, len(f.StopLocations), f.Stops)
	}
	if strings.TrimSpace(f.Source) == "" {
		return fmt.Errorf("flight %s missing source", f.Airline)
	}
	return nil
}

// NormalizeAirportCode trims and upper-cases a code. US ICAO codes such as
// "KJFK" are reduced to their IATA form.
func NormalizeAirportCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) == 4 && strings.HasPrefix(code, "K") {
		return code[1:]
	}
	return code
}

// IsAirportCode reports whether code is three upper-case ASCII letters.
func IsAirportCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
