package sources

import (
	"fmt"
	"strings"
)

// Default returns every supported source in visiting order: the four
// aggregator sites, then the carriers.
func Default() []Adapter {
	return []Adapter{
		NewGoogleFlights(),
		NewKayak(),
		NewExpedia(),
		NewSkyscanner(),
		NewAirline("American Airlines", "aa.com"),
		NewAirline("United Airlines", "united.com"),
		NewAirline("Delta Air Lines", "delta.com"),
		NewAirline("Southwest Airlines", "southwest.com"),
		NewAirline("JetBlue", "jetblue.com"),
	}
}

// Names lists the names of adapters.
func Names(adapters []Adapter) []string {
	out := make([]string, len(adapters))
	for i, a := range adapters {
		out[i] = a.Name()
	}
	return out
}

// Select keeps the default sources whose names appear in names, preserving
// the default order. An empty names list selects everything.
func Select(names []string) ([]Adapter, error) {
	all := Default()
	if len(names) == 0 {
		return all, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}

	var out []Adapter
	for _, a := range all {
		key := strings.ToLower(a.Name())
		if wanted[key] {
			out = append(out, a)
			delete(wanted, key)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for n := range wanted {
			unknown = append(unknown, n)
		}
		return nil, fmt.Errorf("unknown sources: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
