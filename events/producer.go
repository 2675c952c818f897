// Package events publishes flight observations to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// FlightObserved is emitted once per persisted price observation.
type FlightObserved struct {
	RunID         string          `json:"run_id"`
	FlightID      int64           `json:"flight_id"`
	Source        string          `json:"source"`
	Airline       string          `json:"airline"`
	FlightNumber  string          `json:"flight_number,omitempty"`
	FromLocation  string          `json:"from_location"`
	ToLocation    string          `json:"to_location"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	SearchDate    models.Date     `json:"search_date"`
	ObservedAt    time.Time       `json:"observed_at"`
}

// NewFlightObserved builds the event for flight f stored under id.
func NewFlightObserved(runID string, id int64, f *models.Flight, observedAt time.Time) FlightObserved {
	return FlightObserved{
		RunID:         runID,
		FlightID:      id,
		Source:        f.Source,
		Airline:       f.Airline,
		FlightNumber:  f.FlightNumber,
		FromLocation:  f.FromLocation,
		ToLocation:    f.ToLocation,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		Price:         f.Price,
		Currency:      f.Currency,
		SearchDate:    f.SearchDate,
		ObservedAt:    observedAt,
	}
}

// RouteKey partitions events so one route's observations stay ordered.
func (e FlightObserved) RouteKey() string {
	return e.FromLocation + "-" + e.ToLocation
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes observation events to one topic.
type Producer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewProducer returns a producer for topic on brokers.
func NewProducer(brokers []string, topic string, logger *slog.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		topic:  topic,
		logger: logger,
	}
}

// PublishObservations writes events in one batch.
func (p *Producer) PublishObservations(ctx context.Context, events []FlightObserved) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode observation: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.RouteKey()),
			Value: payload,
			Time:  e.ObservedAt,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debug("observations published", slog.String("topic", p.topic), slog.Int("messages", len(msgs)))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
