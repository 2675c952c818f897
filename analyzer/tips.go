package analyzer

import (
	"fmt"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/shopspring/decimal"
)

// Tip texts.
const (
	TipNoData        = "No historical data available for this route"
	TipCheckDates    = "Consider checking multiple dates for better prices"
	TipAdvance       = "Booking 3 weeks in advance often yields better prices"
	TipLastMinute    = "Last-minute bookings may be more expensive"
	TipWeekday       = "Weekday flights are typically cheaper than weekend flights"
	TipWeekend       = "Weekend flights might offer better value for this route"
	tipWideRange     = "Prices vary significantly ($%s - $%s). Consider flexible dates."
	tipBestAirline   = "%s typically offers the best prices"
	advanceLeadDays  = 21
	lastMinuteDays   = 7
	wideRangeDollars = 200
)

// Tips is the price advice for one route. Prices are nil when there is no data.
type Tips struct {
	AveragePrice    *decimal.Decimal `json:"average_price"`
	MinPrice        *decimal.Decimal `json:"min_price"`
	MaxPrice        *decimal.Decimal `json:"max_price"`
	Recommendations []string         `json:"recommendations"`
}

// PriceTips summarises records and lists the heuristics that apply. Lead
// time is measured from when each offer was observed; records without an
// observation time use now.
func PriceTips(records []*models.Flight, now time.Time) Tips {
	valid := priced(records)
	if len(valid) == 0 {
		return Tips{Recommendations: []string{TipNoData, TipCheckDates}}
	}

	s := describe(sortedPrices(valid))
	avg, lo, hi := s.mean.Round(2), s.min.Round(2), s.max.Round(2)
	tips := Tips{
		AveragePrice:    &avg,
		MinPrice:        &lo,
		MaxPrice:        &hi,
		Recommendations: []string{},
	}

	if s.max.Sub(s.min).GreaterThan(decimal.NewFromInt(wideRangeDollars)) {
		tips.Recommendations = append(tips.Recommendations, fmt.Sprintf(tipWideRange, lo.StringFixed(2), hi.StringFixed(2)))
	}

	var advance, lastMinute bool
	for _, r := range valid {
		observed := r.ScrapedAt
		if observed.IsZero() {
			observed = now
		}
		days := daysBetween(observed, r.DepartureTime)
		advance = advance || days >= advanceLeadDays
		lastMinute = lastMinute || days <= lastMinuteDays
	}
	if advance {
		tips.Recommendations = append(tips.Recommendations, TipAdvance)
	}
	if lastMinute {
		tips.Recommendations = append(tips.Recommendations, TipLastMinute)
	}

	var weekday, weekend []decimal.Decimal
	for _, r := range valid {
		switch r.DepartureTime.Weekday() {
		case time.Saturday, time.Sunday:
			weekend = append(weekend, r.Price)
		default:
			weekday = append(weekday, r.Price)
		}
	}
	if len(weekday) > 0 && len(weekend) > 0 {
		if mean(weekday).LessThan(mean(weekend)) {
			tips.Recommendations = append(tips.Recommendations, TipWeekday)
		} else {
			tips.Recommendations = append(tips.Recommendations, TipWeekend)
		}
	}

	if airline, ok := cheapestAirline(valid); ok {
		tips.Recommendations = append(tips.Recommendations, fmt.Sprintf(tipBestAirline, airline))
	}
	return tips
}

// cheapestAirline returns the airline with the lowest average price when at
// least two airlines are present. Ties go to the airline seen first.
func cheapestAirline(valid []*models.Flight) (string, bool) {
	var order []string
	groups := make(map[string][]decimal.Decimal)
	for _, r := range valid {
		if r.Airline == "" {
			continue
		}
		if _, ok := groups[r.Airline]; !ok {
			order = append(order, r.Airline)
		}
		groups[r.Airline] = append(groups[r.Airline], r.Price)
	}
	if len(order) < 2 {
		return "", false
	}

	best, bestAvg := order[0], mean(groups[order[0]])
	for _, airline := range order[1:] {
		if avg := mean(groups[airline]); avg.LessThan(bestAvg) {
			best, bestAvg = airline, avg
		}
	}
	return best, true
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
