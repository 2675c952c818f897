// Package parser converts scraped text into typed flight fields.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	clock12Pattern   = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*([AP])\.?M\.?`)
	clock24Pattern   = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	pricePattern     = regexp.MustCompile(`\$\s*(\d+(?:,\d+)*(?:\.\d+)?)`)
	nonstopPattern   = regexp.MustCompile(`(?i)\b(?:non-?stop|direct)\b`)
	durationPattern  = regexp.MustCompile(`(?i)(\d+)\s*h(?:ours?|rs|r)?(?:\s*(\d+)\s*m(?:inutes?|ins|in)?)?|(\d+)\s*m(?:inutes?|ins|in)?\b`)
	integerPattern   = regexp.MustCompile(`\d+`)
	whitespaceRegexp = regexp.MustCompile(`\s+`)
)

// ParseTime reads a 12-hour ("6:05 PM") or 24-hour ("18:05") clock time and
// places it on ref's calendar date in ref's location.
func ParseTime(text string, ref time.Time) (time.Time, error) {
	if m := clock12Pattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return time.Time{}, newParseError("time", text)
		}
		pm := strings.EqualFold(m[3], "P")
		switch {
		case pm && hour != 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return onDate(ref, hour, minute), nil
	}

	if m := clock24Pattern.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return time.Time{}, newParseError("time", text)
		}
		return onDate(ref, hour, minute), nil
	}

	return time.Time{}, newParseError("time", text)
}

func onDate(ref time.Time, hour, minute int) time.Time {
	y, m, d := ref.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, ref.Location())
}

// RollOvernight moves an arrival that reads earlier than the departure onto
// the following day.
func RollOvernight(departure, arrival time.Time) time.Time {
	if arrival.Before(departure) {
		return arrival.AddDate(0, 0, 1)
	}
	return arrival
}

// ParsePrice extracts the first dollar amount from text.
func ParsePrice(text string) (decimal.Decimal, error) {
	m := pricePattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, newParseError("price", text)
	}
	value, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, newParseError("price", text)
	}
	return value, nil
}

// NormalizeDuration collapses whitespace and returns the duration token when
// one is present. Text without a token is returned collapsed.
func NormalizeDuration(text string) string {
	collapsed := collapseSpace(text)
	if token := durationPattern.FindString(collapsed); token != "" {
		return strings.TrimSpace(token)
	}
	return collapsed
}

// ParseDuration converts "5h 35m", "2 hr 10 min" or "45m" into a duration.
func ParseDuration(text string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(collapseSpace(text))
	if m == nil {
		return 0, false
	}
	if m[3] != "" {
		minutes, _ := strconv.Atoi(m[3])
		return time.Duration(minutes) * time.Minute, true
	}
	hours, _ := strconv.Atoi(m[1])
	minutes := 0
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, true
}

// FormatDuration renders d in the "5h 35m" form sources use.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int(d.Round(time.Minute) / time.Minute)
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// ParseStops returns 0 for nonstop flights or the first integer in text.
func ParseStops(text string) (int, error) {
	if nonstopPattern.MatchString(text) {
		return 0, nil
	}
	m := integerPattern.FindString(text)
	if m == "" {
		return 0, newParseError("stops", text)
	}
	stops, err := strconv.Atoi(m)
	if err != nil {
		return 0, newParseError("stops", text)
	}
	return stops, nil
}

func collapseSpace(text string) string {
	return strings.TrimSpace(whitespaceRegexp.ReplaceAllString(text, " "))
}
