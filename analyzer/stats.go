// Package analyzer computes price statistics over flight records and turns
// them into booking advice. Every function accepts nil records and skips
// them along with negative prices.
package analyzer

import (
	"slices"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/shopspring/decimal"
)

const (
	// OutlierMultiplier scales the IQR to form the outlier fences.
	OutlierMultiplier = 1.5
	// SignificantVariation is the share of the mean a price range must
	// exceed to be called significant.
	SignificantVariation = 0.5
	// TrendThreshold is the share of the mean the IQR must exceed to
	// suggest monitoring prices.
	TrendThreshold = 0.3
)

var (
	two     = decimal.NewFromInt(2)
	quarter = decimal.NewFromFloat(0.25)
	threeQ  = decimal.NewFromFloat(0.75)
)

// Statistics describes a price distribution. Values are rounded to cents.
type Statistics struct {
	Count  int             `json:"count"`
	Mean   decimal.Decimal `json:"mean"`
	Median decimal.Decimal `json:"median"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Q1     decimal.Decimal `json:"q1"`
	Q3     decimal.Decimal `json:"q3"`
	IQR    decimal.Decimal `json:"iqr"`
}

// SourceStatistics summarises the prices one source returned.
type SourceStatistics struct {
	AveragePrice decimal.Decimal `json:"average_price"`
	MinimumPrice decimal.Decimal `json:"minimum_price"`
	MaximumPrice decimal.Decimal `json:"maximum_price"`
	FlightCount  int             `json:"flight_count"`
}

// priced drops nil records and negative prices, keeping order.
func priced(records []*models.Flight) []*models.Flight {
	out := make([]*models.Flight, 0, len(records))
	for _, r := range records {
		if r == nil || r.Price.IsNegative() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func sortedPrices(records []*models.Flight) []decimal.Decimal {
	prices := make([]decimal.Decimal, len(records))
	for i, r := range records {
		prices[i] = r.Price
	}
	slices.SortFunc(prices, decimal.Decimal.Cmp)
	return prices
}

func mean(prices []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(prices[0], prices[1:]...).Div(decimal.NewFromInt(int64(len(prices))))
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []decimal.Decimal, p decimal.Decimal) decimal.Decimal {
	pos := decimal.NewFromInt(int64(len(sorted) - 1)).Mul(p)
	lower := pos.Floor()
	i := int(lower.IntPart())
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos.Sub(lower)
	return sorted[i].Add(sorted[i+1].Sub(sorted[i]).Mul(frac))
}

func describe(prices []decimal.Decimal) rawStats {
	s := rawStats{
		count: len(prices),
		mean:  mean(prices),
		min:   prices[0],
		max:   prices[len(prices)-1],
		q1:    quantile(prices, quarter),
		q3:    quantile(prices, threeQ),
	}
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		s.median = prices[mid]
	} else {
		s.median = prices[mid-1].Add(prices[mid]).Div(two)
	}
	s.iqr = s.q3.Sub(s.q1)
	return s
}

// rawStats keeps full precision for the heuristics.
type rawStats struct {
	count  int
	mean   decimal.Decimal
	median decimal.Decimal
	min    decimal.Decimal
	max    decimal.Decimal
	q1     decimal.Decimal
	q3     decimal.Decimal
	iqr    decimal.Decimal
}

func (s rawStats) rounded() *Statistics {
	return &Statistics{
		Count:  s.count,
		Mean:   s.mean.Round(2),
		Median: s.median.Round(2),
		Min:    s.min.Round(2),
		Max:    s.max.Round(2),
		Q1:     s.q1.Round(2),
		Q3:     s.q3.Round(2),
		IQR:    s.iqr.Round(2),
	}
}

// Describe returns the price distribution of records, or nil when none
// carries a usable price.
func Describe(records []*models.Flight) *Statistics {
	valid := priced(records)
	if len(valid) == 0 {
		return nil
	}
	return describe(sortedPrices(valid)).rounded()
}

// BestValue returns the k cheapest records. Records with equal prices keep
// their input order.
func BestValue(records []*models.Flight, k int) []*models.Flight {
	valid := priced(records)
	slices.SortStableFunc(valid, func(a, b *models.Flight) int {
		return a.Price.Cmp(b.Price)
	})
	if k < 0 {
		k = 0
	}
	if k < len(valid) {
		valid = valid[:k]
	}
	return valid
}

// Outliers returns the records priced outside the 1.5×IQR fences, in input
// order.
func Outliers(records []*models.Flight) []*models.Flight {
	valid := priced(records)
	if len(valid) == 0 {
		return []*models.Flight{}
	}
	s := describe(sortedPrices(valid))
	return outside(valid, s)
}

func outside(valid []*models.Flight, s rawStats) []*models.Flight {
	margin := s.iqr.Mul(decimal.NewFromFloat(OutlierMultiplier))
	low, high := s.q1.Sub(margin), s.q3.Add(margin)

	out := []*models.Flight{}
	for _, r := range valid {
		if r.Price.LessThan(low) || r.Price.GreaterThan(high) {
			out = append(out, r)
		}
	}
	return out
}

// BySourceStatistics groups prices by source.
func BySourceStatistics(records []*models.Flight) map[string]SourceStatistics {
	groups := make(map[string][]decimal.Decimal)
	for _, r := range priced(records) {
		groups[r.Source] = append(groups[r.Source], r.Price)
	}

	out := make(map[string]SourceStatistics, len(groups))
	for source, prices := range groups {
		slices.SortFunc(prices, decimal.Decimal.Cmp)
		out[source] = SourceStatistics{
			AveragePrice: mean(prices).Round(2),
			MinimumPrice: prices[0].Round(2),
			MaximumPrice: prices[len(prices)-1].Round(2),
			FlightCount:  len(prices),
		}
	}
	return out
}
