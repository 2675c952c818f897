package search

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/parser"
)

// Field messages reported in a ValidationError.
const (
	MsgRequired     = "This field is required"
	MsgAirportCode  = "Must be a 3-letter airport code"
	MsgInvalidDate  = "Enter a valid date (YYYY-MM-DD)"
	MsgPastDate     = "Initial date cannot be in the past"
	MsgReturnBefore = "Return date must be after initial date"
)

// SearchRequest is the body of a flight search.
type SearchRequest struct {
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
	InitialDate  string `json:"initial_date"`
	ReturnDate   string `json:"return_date,omitempty"`
}

// Query is a validated search request.
type Query struct {
	From        string
	To          string
	InitialDate models.Date
	ReturnDate  models.Date
}

// CacheKey identifies responses that can be served for q.
func (q Query) CacheKey() string {
	return strings.Join([]string{"search", q.From, q.To, q.InitialDate.String(), q.ReturnDate.String()}, ":")
}

// ValidationError lists every rejected field with its messages.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "invalid search request: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Validate checks r against the calendar day of now and returns the
// normalized query. All violations are reported together.
func (r SearchRequest) Validate(now time.Time) (Query, error) {
	var (
		q    Query
		verr ValidationError
	)

	q.From = airportCode(&verr, "from_location", r.FromLocation)
	q.To = airportCode(&verr, "to_location", r.ToLocation)

	today := models.NewDate(now.UTC())
	initialOK := false
	if strings.TrimSpace(r.InitialDate) == "" {
		verr.add("initial_date", MsgRequired)
	} else if d, err := models.ParseDate(r.InitialDate); err != nil {
		verr.add("initial_date", MsgInvalidDate)
	} else if d.Before(today.Time) {
		verr.add("initial_date", MsgPastDate)
	} else {
		q.InitialDate = d
		initialOK = true
	}

	if strings.TrimSpace(r.ReturnDate) != "" {
		d, err := models.ParseDate(r.ReturnDate)
		switch {
		case err != nil:
			verr.add("return_date", MsgInvalidDate)
		case initialOK && d.Before(q.InitialDate.Time):
			verr.add("return_date", MsgReturnBefore)
		default:
			q.ReturnDate = d
		}
	}

	if len(verr.Fields) > 0 {
		return Query{}, &verr
	}
	return q, nil
}

func airportCode(verr *ValidationError, field, raw string) string {
	if strings.TrimSpace(raw) == "" {
		verr.add(field, MsgRequired)
		return ""
	}
	code := parser.NormalizeAirportCode(raw)
	if !parser.IsAirportCode(code) {
		verr.add(field, MsgAirportCode)
		return ""
	}
	return code
}
