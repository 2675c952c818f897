package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	flights map[int64]*models.FlightRecord
	keys    map[string]int64
	history map[int64][]models.PriceHistoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights: make(map[int64]*models.FlightRecord),
		keys:    make(map[string]int64),
		history: make(map[int64][]models.PriceHistoryEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) UpsertFlight(_ context.Context, f *models.Flight) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := *f
	stored.Price = f.Price.Round(2)
	stored.StopLocations = slices.Clone(f.StopLocations)

	key := f.Key().String()
	if id, ok := s.keys[key]; ok {
		rec := s.flights[id]
		rec.Flight = stored
		rec.UpdatedAt = now
		return id, nil
	}

	s.nextID++
	id := s.nextID
	s.keys[key] = id
	s.flights[id] = &models.FlightRecord{ID: id, Flight: stored, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (s *MemoryStore) AppendPriceHistory(_ context.Context, flightID int64, entry models.PriceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flights[flightID]; !ok {
		return fmt.Errorf("flight %d: %w", flightID, ErrNotFound)
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.now()
	}
	entry.Price = entry.Price.Round(2)
	s.history[flightID] = append(s.history[flightID], entry)
	return nil
}

func (s *MemoryStore) PriceHistory(_ context.Context, flightID int64) ([]models.PriceHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.flights[flightID]; !ok {
		return nil, fmt.Errorf("flight %d: %w", flightID, ErrNotFound)
	}
	return s.historyLocked(flightID), nil
}

func (s *MemoryStore) historyLocked(flightID int64) []models.PriceHistoryEntry {
	entries := s.history[flightID]
	out := make([]models.PriceHistoryEntry, len(entries))
	// stored oldest first
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	slices.SortStableFunc(out, func(a, b models.PriceHistoryEntry) int {
		return b.RecordedAt.Compare(a.RecordedAt)
	})
	return out
}

func (s *MemoryStore) RouteFlights(_ context.Context, from, to string) ([]models.FlightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.FlightRecord{}
	for _, rec := range s.flights {
		if rec.FromLocation == from && rec.ToLocation == to {
			cp := *rec
			cp.StopLocations = slices.Clone(rec.StopLocations)
			out = append(out, cp)
		}
	}
	slices.SortFunc(out, func(a, b models.FlightRecord) int {
		return cmp.Or(
			a.Price.Cmp(b.Price),
			a.DepartureTime.Compare(b.DepartureTime),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func (s *MemoryStore) GetFlight(_ context.Context, id int64) (*models.FlightRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.flights[id]
	if !ok {
		return nil, fmt.Errorf("flight %d: %w", id, ErrNotFound)
	}
	cp := *rec
	cp.StopLocations = slices.Clone(rec.StopLocations)
	cp.PriceHistory = s.historyLocked(id)
	return &cp, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
