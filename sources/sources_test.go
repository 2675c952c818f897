package sources

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/browser"
	"github.com/Jonatas020918/myflyticketsearcher/parser"
	"github.com/shopspring/decimal"
)

var searchDate = time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)

func query() Query {
	return Query{From: "jfk", To: "LAX", Date: searchDate}
}

func firstResult(t *testing.T, a Adapter, html string) browser.Element {
	t.Helper()
	doc := browser.MustDocument(html)
	if !doc.Has(a.ContainerSelector()) {
		t.Fatalf("%s: container %q not found", a.Name(), a.ContainerSelector())
	}
	els := doc.Elements(a.ResultSelector())
	if len(els) == 0 {
		t.Fatalf("%s: no results for %q", a.Name(), a.ResultSelector())
	}
	return els[0]
}

func TestKayakExtractNonstop(t *testing.T) {
	a := NewKayak()
	el := firstResult(t, a, `<div class="flight-result">
		<span class="airline-name">Delta</span>
		<span class="price-text">$245.00</span>
		<span class="time">6:05 AM</span><span class="time">11:40 PM</span>
		<span class="duration">5h 35m</span>
		<span class="stops-text">Nonstop</span>
		<span class="flight-number">DL 402</span>
	</div>`)

	f, err := a.Extract(el, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.Airline != "Delta" {
		t.Errorf("airline = %q, want %q", f.Airline, "Delta")
	}
	if !f.Price.Equal(decimal.RequireFromString("245.00")) {
		t.Errorf("price = %s, want 245.00", f.Price)
	}
	if f.Stops != 0 {
		t.Errorf("stops = %d, want 0", f.Stops)
	}
	if f.Duration != "5h 35m" {
		t.Errorf("duration = %q, want %q", f.Duration, "5h 35m")
	}
	if f.Source != "Kayak" {
		t.Errorf("source = %q, want %q", f.Source, "Kayak")
	}
	if f.FromLocation != "JFK" || f.ToLocation != "LAX" {
		t.Errorf("route = %s-%s, want JFK-LAX", f.FromLocation, f.ToLocation)
	}
	wantDep := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	wantArr := time.Date(2026, 11, 20, 23, 40, 0, 0, time.UTC)
	if !f.DepartureTime.Equal(wantDep) || !f.ArrivalTime.Equal(wantArr) {
		t.Errorf("times = %v -> %v, want %v -> %v", f.DepartureTime, f.ArrivalTime, wantDep, wantArr)
	}
	if f.FlightNumber != "DL 402" {
		t.Errorf("flight number = %q, want %q", f.FlightNumber, "DL 402")
	}
	if f.AircraftType != "" {
		t.Errorf("aircraft = %q, want empty", f.AircraftType)
	}
	if f.Currency != "USD" || f.CabinClass != "Economy" || !f.CarryOnIncluded || f.CheckedBagsIncluded != 0 {
		t.Errorf("defaults not applied: %+v", f)
	}
	if err := parser.ValidateFlight(f); err != nil {
		t.Errorf("extracted flight invalid: %v", err)
	}
}

func TestExtractOvernightRollsArrival(t *testing.T) {
	a := NewSkyscanner()
	el := firstResult(t, a, `<div class="flight-card">
		<span class="airline-name">JetBlue</span>
		<span class="price">$1,020</span>
		<span class="time">22:15</span><span class="time">06:50</span>
		<span class="stops">1 stop</span>
	</div>`)

	f, err := a.Extract(el, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := time.Date(2026, 11, 21, 6, 50, 0, 0, time.UTC)
	if !f.ArrivalTime.Equal(want) {
		t.Errorf("arrival = %v, want %v", f.ArrivalTime, want)
	}
	if f.ArrivalTime.Before(f.DepartureTime) {
		t.Errorf("arrival %v before departure %v", f.ArrivalTime, f.DepartureTime)
	}
	if f.Duration != "8h 35m" {
		t.Errorf("derived duration = %q, want %q", f.Duration, "8h 35m")
	}
	if f.Stops != 1 {
		t.Errorf("stops = %d, want 1", f.Stops)
	}
}

func TestExpediaExtractCard(t *testing.T) {
	a := NewExpedia()
	el := firstResult(t, a, `<ul>
		<li class="uitk-card">
			<div><span class="uitk-text">Alaska Airlines</span></div>
			<span class="uitk-price">$1,189.99</span>
			<span class="uitk-time">9:45 PM</span><span class="uitk-time">6:20 AM</span>
			<span class="uitk-duration">5 h 35 m</span>
			<span class="uitk-stops">Indirect, 1 stop</span>
			<span class="uitk-flight-number">AS 1221</span>
			<span class="uitk-aircraft">Boeing 737-900</span>
			<span class="uitk-text">Refundable</span>
		</li>
		<li class="uitk-card"><span class="uitk-text">Spirit</span></li>
	</ul>`)

	f, err := a.Extract(el, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.Airline != "Alaska Airlines" {
		t.Errorf("airline = %q, want %q", f.Airline, "Alaska Airlines")
	}
	if !f.Price.Equal(decimal.RequireFromString("1189.99")) {
		t.Errorf("price = %s, want 1189.99", f.Price)
	}
	wantDep := time.Date(2026, 11, 20, 21, 45, 0, 0, time.UTC)
	wantArr := time.Date(2026, 11, 21, 6, 20, 0, 0, time.UTC)
	if !f.DepartureTime.Equal(wantDep) || !f.ArrivalTime.Equal(wantArr) {
		t.Errorf("times = %v -> %v, want %v -> %v", f.DepartureTime, f.ArrivalTime, wantDep, wantArr)
	}
	if f.Stops != 1 {
		t.Errorf("stops = %d, want 1", f.Stops)
	}
	if f.FlightNumber != "AS 1221" || f.AircraftType != "Boeing 737-900" {
		t.Errorf("optional fields = %q/%q, want AS 1221/Boeing 737-900", f.FlightNumber, f.AircraftType)
	}
	if f.Source != "Expedia" {
		t.Errorf("source = %q, want %q", f.Source, "Expedia")
	}
	if f.FromLocation != "JFK" || f.ToLocation != "LAX" {
		t.Errorf("route = %s-%s, want JFK-LAX", f.FromLocation, f.ToLocation)
	}
	if err := parser.ValidateFlight(f); err != nil {
		t.Errorf("extracted flight invalid: %v", err)
	}
}

func TestExtractUsesFirstTwoTimes(t *testing.T) {
	a := NewExpedia()
	el := firstResult(t, a, `<div class="uitk-card">
		<span class="uitk-text">United</span>
		<span class="uitk-price">$310.40</span>
		<span class="uitk-time">7:00 AM</span><span class="uitk-time">1:15 PM</span>
		<span class="uitk-time">9:30 AM</span><span class="uitk-time">10:05 AM</span>
		<span class="uitk-stops">1 stop</span>
	</div>`)

	f, err := a.Extract(el, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.DepartureTime.Hour() != 7 || f.ArrivalTime.Hour() != 13 {
		t.Errorf("times = %v -> %v, want 07:00 -> 13:15", f.DepartureTime, f.ArrivalTime)
	}
}

func TestGoogleFlightsDurationFromSummary(t *testing.T) {
	a := NewGoogleFlights()
	el := firstResult(t, a, `<div role="list"><div role="listitem">
		<div role="link">Alaska</div>
		<span aria-label="$189 round trip">$189</span>
		<div role="text">8:10 AM</div><div role="text">11:25 AM</div>
		<div class="gf-duration">6h 15m JFK–LAX</div>
		<div class="gf-stops">Nonstop</div>
	</div></div>`)

	f, err := a.Extract(el, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.Duration != "6h 15m" {
		t.Errorf("duration = %q, want %q", f.Duration, "6h 15m")
	}
	if f.Airline != "Alaska" || f.Source != "Google Flights" {
		t.Errorf("airline/source = %q/%q", f.Airline, f.Source)
	}
}

func TestAirlineUsesCarrierName(t *testing.T) {
	a := NewAirline("Southwest Airlines", "southwest.com")
	el := firstResult(t, a, `<div class="flight-results"><div class="flight-result">
		<span class="price">$99</span>
		<span class="time">5:30 PM</span><span class="time">8:45 PM</span>
		<span class="duration">3h  15m</span>
		<span class="aircraft-type">737-800</span>
	</div></div>`)

	f, err := a.Extract(el, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.Airline != "Southwest Airlines" || f.Source != "Southwest Airlines" {
		t.Errorf("airline/source = %q/%q, want carrier name", f.Airline, f.Source)
	}
	if f.Duration != "3h 15m" {
		t.Errorf("duration = %q, want %q", f.Duration, "3h 15m")
	}
	if f.AircraftType != "737-800" {
		t.Errorf("aircraft = %q, want %q", f.AircraftType, "737-800")
	}
}

func TestExtractSkipsIncompleteElements(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantParse bool
	}{
		{
			name: "missing airline",
			html: `<div class="flight-result"><span class="price-text">$10</span><span class="time">1:00 PM</span><span class="time">2:00 PM</span></div>`,
		},
		{
			name: "missing price",
			html: `<div class="flight-result"><span class="airline-name">Delta</span><span class="time">1:00 PM</span><span class="time">2:00 PM</span></div>`,
		},
		{
			name: "single time",
			html: `<div class="flight-result"><span class="airline-name">Delta</span><span class="price-text">$10</span><span class="time">1:00 PM</span></div>`,
		},
		{
			name:      "unparseable price",
			html:      `<div class="flight-result"><span class="airline-name">Delta</span><span class="price-text">Sold out</span><span class="time">1:00 PM</span><span class="time">2:00 PM</span></div>`,
			wantParse: true,
		},
		{
			name:      "unparseable time",
			html:      `<div class="flight-result"><span class="airline-name">Delta</span><span class="price-text">$10</span><span class="time">noon</span><span class="time">2:00 PM</span></div>`,
			wantParse: true,
		},
	}

	a := NewKayak()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := a.Extract(firstResult(t, a, tt.html), query())
			if f != nil {
				t.Fatalf("extract returned %+v, want nil", f)
			}
			var parseErr *parser.ParseError
			if tt.wantParse && !errors.As(err, &parseErr) {
				t.Fatalf("error = %v, want *parser.ParseError", err)
			}
			if !tt.wantParse && !errors.Is(err, ErrMissingField) {
				t.Fatalf("error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestExtractDegradesOptionalFields(t *testing.T) {
	a := NewKayak()
	el := firstResult(t, a, `<div class="flight-result">
		<span class="airline-name">Delta</span><span class="price-text">$120</span>
		<span class="time">1:00 PM</span><span class="time">3:30 PM</span>
		<span class="stops-text">see itinerary</span>
	</div>`)

	f, err := a.Extract(el, query())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.Stops != 0 || len(f.StopLocations) != 0 {
		t.Errorf("stops = %d %v, want 0 []", f.Stops, f.StopLocations)
	}
	if f.Duration != "2h 30m" {
		t.Errorf("duration = %q, want derived %q", f.Duration, "2h 30m")
	}
	if f.FlightNumber != "" || f.AircraftType != "" {
		t.Errorf("optional fields = %q/%q, want empty", f.FlightNumber, f.AircraftType)
	}
}

func TestSearchURLs(t *testing.T) {
	tests := []struct {
		adapter Adapter
		want    string
	}{
		{adapter: NewGoogleFlights(), want: "https://www.google.com/travel/flights?q=Flights%20to%20LAX%20from%20JFK%20on%202026-11-20"},
		{adapter: NewKayak(), want: "https://www.kayak.com/flights/JFK-LAX/2026-11-20"},
		{adapter: NewExpedia(), want: "https://www.expedia.com/search/flights?date=2026-11-20&from=JFK&to=LAX"},
		{adapter: NewSkyscanner(), want: "https://www.skyscanner.com/transport/flights/JFK/LAX/2026-11-20"},
		{adapter: NewAirline("Delta Air Lines", "delta.com"), want: "https://www.delta.com/flights/search?date=2026-11-20&from=JFK&to=LAX"},
	}

	for _, tt := range tests {
		t.Run(tt.adapter.Name(), func(t *testing.T) {
			if got := tt.adapter.SearchURL("JFK", "LAX", searchDate); got != tt.want {
				t.Errorf("SearchURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultOrder(t *testing.T) {
	got := strings.Join(Names(Default()), ",")
	want := "Google Flights,Kayak,Expedia,Skyscanner,American Airlines,United Airlines,Delta Air Lines,Southwest Airlines,JetBlue"
	if got != want {
		t.Fatalf("Default() = %s, want %s", got, want)
	}
}

func TestSelect(t *testing.T) {
	selected, err := Select([]string{"jetblue", " Kayak "})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if got := strings.Join(Names(selected), ","); got != "Kayak,JetBlue" {
		t.Fatalf("Select() = %s, want Kayak,JetBlue", got)
	}

	if _, err := Select([]string{"Orbitz"}); err == nil || !strings.Contains(err.Error(), "orbitz") {
		t.Fatalf("Select(unknown) error = %v, want unknown source", err)
	}
}
