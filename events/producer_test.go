package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(w messageWriter) *Producer {
	return &Producer{writer: w, topic: "flight-observations", logger: slog.New(slog.DiscardHandler)}
}

func observation(from, to string) FlightObserved {
	f := models.NewFlight("Kayak")
	f.Airline = "Delta"
	f.FromLocation = from
	f.ToLocation = to
	f.DepartureTime = time.Date(2026, 11, 20, 6, 5, 0, 0, time.UTC)
	f.ArrivalTime = f.DepartureTime.Add(5 * time.Hour)
	f.Price = decimal.RequireFromString("245.00")
	f.SearchDate = models.NewDate(f.DepartureTime)
	return NewFlightObserved("run-1", 7, f, time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
}

func TestPublishObservations(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	err := p.PublishObservations(context.Background(), []FlightObserved{observation("JFK", "LAX"), observation("SFO", "SEA")})
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "JFK-LAX", string(w.msgs[0].Key))
	assert.Equal(t, "SFO-SEA", string(w.msgs[1].Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, float64(7), got["flight_id"])
	assert.Equal(t, "245", got["price"])
	assert.Equal(t, "2026-11-20", got["search_date"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishObservationsEmpty(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	require.NoError(t, newTestProducer(w).PublishObservations(context.Background(), nil))
}

func TestPublishObservationsError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	err := newTestProducer(w).PublishObservations(context.Background(), []FlightObserved{observation("JFK", "LAX")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flight-observations")
	assert.Contains(t, err.Error(), "leader not available")
}
