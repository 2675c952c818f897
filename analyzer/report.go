package analyzer

import (
	"fmt"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/shopspring/decimal"
)

// Recommendation severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Recommendation is one typed piece of advice.
type Recommendation struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Report is the full analysis of a set of offers.
type Report struct {
	Statistics      *Statistics                 `json:"statistics"`
	Outliers        []*models.Flight            `json:"outliers"`
	BestValue       []*models.Flight            `json:"best_value"`
	BySource        map[string]SourceStatistics `json:"by_source"`
	Recommendations []Recommendation            `json:"recommendations"`
}

// BestValueCount is how many offers Analyze lists as best value.
const BestValueCount = 3

// Analyze computes the distribution, outliers, best offers and per-source
// breakdown of records along with typed recommendations.
func Analyze(records []*models.Flight) Report {
	valid := priced(records)
	report := Report{
		Outliers:        []*models.Flight{},
		BestValue:       BestValue(valid, BestValueCount),
		BySource:        BySourceStatistics(valid),
		Recommendations: []Recommendation{},
	}
	if len(valid) == 0 {
		return report
	}

	s := describe(sortedPrices(valid))
	report.Statistics = s.rounded()
	report.Outliers = outside(valid, s)

	if s.max.Sub(s.min).GreaterThan(s.mean.Mul(decimal.NewFromFloat(SignificantVariation))) {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:     "price_range",
			Message:  "There is significant price variation. Consider booking during off-peak times.",
			Severity: SeverityHigh,
		})
	}
	if n := len(report.Outliers); n > 0 {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:     "outliers",
			Message:  fmt.Sprintf("Found %d unusually priced flights. These might be special deals or pricing errors.", n),
			Severity: SeverityMedium,
		})
	}
	if best := report.BestValue[0]; best.Price.LessThan(s.q1) {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:     "best_value",
			Message:  fmt.Sprintf("Found a great deal with %s at $%s.", best.Airline, best.Price.StringFixed(2)),
			Severity: SeverityLow,
		})
	}
	if s.iqr.GreaterThan(s.mean.Mul(decimal.NewFromFloat(TrendThreshold))) {
		report.Recommendations = append(report.Recommendations, Recommendation{
			Type:     "price_trend",
			Message:  "Prices show significant variation. Consider monitoring prices for a few days.",
			Severity: SeverityMedium,
		})
	}
	return report
}
