package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/analyzer"
	"github.com/Jonatas020918/myflyticketsearcher/cache"
	"github.com/Jonatas020918/myflyticketsearcher/events"
	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/Jonatas020918/myflyticketsearcher/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) ScrapeAll(ctx context.Context, from, to string, date time.Time) *models.ScraperResult {
	args := m.Called(ctx, from, to, date)
	return args.Get(0).(*models.ScraperResult)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishObservations(ctx context.Context, evts []events.FlightObserved) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func offer(source, airline, price string, dep time.Time) *models.Flight {
	f := models.NewFlight(source)
	f.Airline = airline
	f.FromLocation = "JFK"
	f.ToLocation = "LAX"
	f.DepartureTime = dep
	f.ArrivalTime = dep.Add(5*time.Hour + 35*time.Minute)
	f.Duration = "5h 35m"
	f.Price = decimal.RequireFromString(price)
	f.SearchDate = models.NewDate(dep)
	f.ScrapedAt = now
	return f
}

func scrapeResult(flights ...*models.Flight) *models.ScraperResult {
	return &models.ScraperResult{
		RunID:   "run-1",
		From:    "JFK",
		To:      "LAX",
		Flights: flights,
		Sources: []models.SourceReport{
			{Source: "Kayak", State: "done", Flights: len(flights)},
			{Source: "Google Flights", State: "failed", ErrorType: "timeout", Error: "timed out"},
		},
	}
}

func validRequest() SearchRequest {
	return SearchRequest{FromLocation: "jfk", ToLocation: "LAX", InitialDate: "2026-11-20"}
}

func newService(scraper Scraper, store storage.Store, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewService(scraper, store, nil, opts...)
}

func TestSearchPersistsAndResponds(t *testing.T) {
	dep := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	delta := offer("Kayak", "Delta", "245.00", dep)
	again := offer("Expedia", "Delta", "239.99", dep)
	jetblue := offer("Kayak", "JetBlue", "199", dep.Add(3*time.Hour))

	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, "JFK", "LAX", time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC)).
		Return(scrapeResult(delta, again, jetblue)).Once()

	publisher := new(mockPublisher)
	publisher.On("PublishObservations", mock.Anything, mock.MatchedBy(func(evts []events.FlightObserved) bool {
		return len(evts) == 3 && evts[0].RunID == "run-1" && evts[0].RouteKey() == "JFK-LAX"
	})).Return(nil).Once()

	store := storage.NewMemoryStore()
	svc := newService(scraper, store, WithPublisher(publisher))

	resp, err := svc.Search(context.Background(), validRequest())
	require.NoError(t, err)

	// the same offer seen on two sources is one flight with two observations
	require.Len(t, resp.Flights, 2)
	assert.Equal(t, "Delta", resp.Flights[0].Airline)
	assert.Len(t, resp.Flights[0].PriceHistory, 2)
	assert.True(t, resp.Flights[0].Price.Equal(decimal.RequireFromString("239.99")))
	assert.Equal(t, "JetBlue", resp.Flights[1].Airline)

	md := resp.Metadata
	assert.Equal(t, "JFK", md.FromLocation)
	assert.Equal(t, "LAX", md.ToLocation)
	assert.Equal(t, "2026-11-20", md.InitialDate.String())
	assert.True(t, md.ReturnDate.IsZero())
	assert.Equal(t, 2, md.TotalResults)
	assert.Equal(t, "run-1", md.RunID)
	assert.Len(t, md.Sources, 2)

	require.NotNil(t, resp.PriceTips.MinPrice)
	assert.Equal(t, "199", resp.PriceTips.MinPrice.String())
	assert.Contains(t, resp.PriceTips.Recommendations, analyzer.TipAdvance)

	scraper.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSearchAllSourcesFailed(t *testing.T) {
	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, "JFK", "LAX", mock.Anything).Return(scrapeResult()).Once()

	resp, err := newService(scraper, storage.NewMemoryStore()).Search(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Empty(t, resp.Flights)
	assert.NotNil(t, resp.Flights)
	assert.Equal(t, 0, resp.Metadata.TotalResults)
	assert.Nil(t, resp.PriceTips.AveragePrice)
	assert.Equal(t, []string{analyzer.TipNoData, analyzer.TipCheckDates}, resp.PriceTips.Recommendations)
}

func TestSearchServedFromCache(t *testing.T) {
	dep := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, "JFK", "LAX", mock.Anything).
		Return(scrapeResult(offer("Kayak", "Delta", "245", dep))).Once()

	lru := cache.NewLRU[*SearchResponse](8, time.Minute)
	svc := newService(scraper, storage.NewMemoryStore(), WithCache(lru))

	first, err := svc.Search(context.Background(), validRequest())
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), SearchRequest{FromLocation: "JFK", ToLocation: "lax", InitialDate: "2026-11-20"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, lru.Len())
	scraper.AssertNumberOfCalls(t, "ScrapeAll", 1)
}

func TestSearchPublishFailureIsNotFatal(t *testing.T) {
	dep := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, "JFK", "LAX", mock.Anything).
		Return(scrapeResult(offer("Kayak", "Delta", "245", dep)))
	publisher := new(mockPublisher)
	publisher.On("PublishObservations", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	resp, err := newService(scraper, storage.NewMemoryStore(), WithPublisher(publisher)).
		Search(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Len(t, resp.Flights, 1)
}

func TestSearchDropsInvalidFlights(t *testing.T) {
	dep := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	bad := offer("Kayak", "", "245", dep)
	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, "JFK", "LAX", mock.Anything).
		Return(scrapeResult(bad, offer("Kayak", "United", "300", dep)))

	resp, err := newService(scraper, storage.NewMemoryStore()).Search(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, resp.Flights, 1)
	assert.Equal(t, "United", resp.Flights[0].Airline)
}

type failingStore struct {
	storage.Store
}

func (failingStore) UpsertFlight(context.Context, *models.Flight) (int64, error) {
	return 0, &storage.PersistenceError{Op: "upsert flight", Err: errors.New("connection refused")}
}

func TestSearchPersistenceError(t *testing.T) {
	dep := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	scraper := new(mockScraper)
	scraper.On("ScrapeAll", mock.Anything, "JFK", "LAX", mock.Anything).
		Return(scrapeResult(offer("Kayak", "Delta", "245", dep)))

	_, err := newService(scraper, failingStore{}).Search(context.Background(), validRequest())
	var perr *storage.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "upsert flight", perr.Op)
}

func TestSearchValidation(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
		want map[string][]string
	}{
		{
			name: "missing fields",
			req:  SearchRequest{},
			want: map[string][]string{
				"from_location": {MsgRequired},
				"to_location":   {MsgRequired},
				"initial_date":  {MsgRequired},
			},
		},
		{
			name: "bad codes and date",
			req:  SearchRequest{FromLocation: "NYC1", ToLocation: "LA", InitialDate: "20/11/2026"},
			want: map[string][]string{
				"from_location": {MsgAirportCode},
				"to_location":   {MsgAirportCode},
				"initial_date":  {MsgInvalidDate},
			},
		},
		{
			name: "past date",
			req:  SearchRequest{FromLocation: "JFK", ToLocation: "LAX", InitialDate: "2026-10-14"},
			want: map[string][]string{"initial_date": {MsgPastDate}},
		},
		{
			name: "return before initial",
			req:  SearchRequest{FromLocation: "JFK", ToLocation: "LAX", InitialDate: "2026-11-20", ReturnDate: "2026-11-19"},
			want: map[string][]string{"return_date": {MsgReturnBefore}},
		},
		{
			name: "invalid return",
			req:  SearchRequest{FromLocation: "JFK", ToLocation: "LAX", InitialDate: "2026-11-20", ReturnDate: "soon"},
			want: map[string][]string{"return_date": {MsgInvalidDate}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scraper := new(mockScraper)
			_, err := newService(scraper, storage.NewMemoryStore()).Search(context.Background(), tt.req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Fields)
			scraper.AssertNotCalled(t, "ScrapeAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestValidateAcceptsTodayAndICAO(t *testing.T) {
	q, err := SearchRequest{FromLocation: "KJFK", ToLocation: "lax", InitialDate: "2026-10-15", ReturnDate: "2026-10-15"}.Validate(now)
	require.NoError(t, err)
	assert.Equal(t, "JFK", q.From)
	assert.Equal(t, "LAX", q.To)
	assert.Equal(t, "search:JFK:LAX:2026-10-15:2026-10-15", q.CacheKey())
}

func TestPriceHistoryAndAnalysis(t *testing.T) {
	store := storage.NewMemoryStore()
	dep := time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	ctx := context.Background()

	var id int64
	for _, price := range []string{"10", "12", "11", "13", "500"} {
		f := offer("Kayak", "Delta", price, dep)
		f.Airline = "Airline " + price
		got, err := store.UpsertFlight(ctx, f)
		require.NoError(t, err)
		id = got
	}
	require.NoError(t, store.AppendPriceHistory(ctx, id, models.PriceHistoryEntry{
		Price: decimal.NewFromInt(500), Currency: "USD", RecordedAt: now,
	}))

	svc := newService(new(mockScraper), store)

	history, err := svc.PriceHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = svc.PriceHistory(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	report, err := svc.RouteAnalysis(ctx, "jfk", "lax")
	require.NoError(t, err)
	require.Len(t, report.Outliers, 1)
	assert.Equal(t, "Airline 500", report.Outliers[0].Airline)
}
