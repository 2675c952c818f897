// Package storage persists flights and their price history.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jonatas020918/myflyticketsearcher/config"
	"github.com/Jonatas020918/myflyticketsearcher/models"
)

// ErrNotFound is returned for unknown flight IDs.
var ErrNotFound = errors.New("flight not found")

// PersistenceError wraps a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Store is the flight repository used by the search service.
type Store interface {
	// UpsertFlight inserts f or updates the record sharing its key and
	// returns the record ID.
	UpsertFlight(ctx context.Context, f *models.Flight) (int64, error)
	// AppendPriceHistory records one price observation for a flight.
	AppendPriceHistory(ctx context.Context, flightID int64, entry models.PriceHistoryEntry) error
	// PriceHistory lists a flight's observations, newest first.
	PriceHistory(ctx context.Context, flightID int64) ([]models.PriceHistoryEntry, error)
	// RouteFlights lists every stored flight on a route ordered by price,
	// then departure. History is not loaded.
	RouteFlights(ctx context.Context, from, to string) ([]models.FlightRecord, error)
	// GetFlight loads one flight with its history.
	GetFlight(ctx context.Context, id int64) (*models.FlightRecord, error)
	Close() error
}

// Open returns the store selected by cfg.StoreDriver. SQL stores are
// migrated before they are returned.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "memory", "":
		return NewMemoryStore(), nil
	case "postgres":
		s, err := NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
