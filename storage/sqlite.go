package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// sqliteTime keeps stored timestamps fixed-width so text order is time order.
const sqliteTime = "2006-01-02 15:04:05.000000000"

const sqliteFlightColumns = `id, airline, flight_number, from_location, to_location, departure_time,
	arrival_time, duration, price, currency, stops, stop_locations, cabin_class, aircraft_type,
	carry_on_included, checked_bags_included, refundable, source, search_date, scraped_at,
	created_at, updated_at`

// SQLiteStore persists flights in an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens the database at path (":memory:" for a private
// in-memory database) and applies the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, persistErr("open", err)
	}
	// one connection: :memory: databases are per connection and writes serialize anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, persistErr("open", err)
	}
	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables and indexes when missing.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return persistErr("migrate", err)
}

func (s *SQLiteStore) UpsertFlight(ctx context.Context, f *models.Flight) (int64, error) {
	stops := f.StopLocations
	if stops == nil {
		stops = []string{}
	}
	stopsJSON, err := json.Marshal(stops)
	if err != nil {
		return 0, persistErr("upsert flight", err)
	}
	now := formatTime(s.now())

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO flights (airline, flight_number, from_location, to_location, departure_time,
			arrival_time, duration, price, currency, stops, stop_locations, cabin_class, aircraft_type,
			carry_on_included, checked_bags_included, refundable, source, search_date, scraped_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (airline, from_location, to_location, departure_time, arrival_time) DO UPDATE SET
			flight_number = excluded.flight_number,
			duration = excluded.duration,
			price = excluded.price,
			currency = excluded.currency,
			stops = excluded.stops,
			stop_locations = excluded.stop_locations,
			cabin_class = excluded.cabin_class,
			aircraft_type = excluded.aircraft_type,
			carry_on_included = excluded.carry_on_included,
			checked_bags_included = excluded.checked_bags_included,
			refundable = excluded.refundable,
			source = excluded.source,
			search_date = excluded.search_date,
			scraped_at = excluded.scraped_at,
			updated_at = excluded.updated_at
		RETURNING id`,
		f.Airline, f.FlightNumber, f.FromLocation, f.ToLocation, formatTime(f.DepartureTime),
		formatTime(f.ArrivalTime), f.Duration, f.Price.StringFixed(2), f.Currency, f.Stops, string(stopsJSON), f.CabinClass, f.AircraftType,
		f.CarryOnIncluded, f.CheckedBagsIncluded, f.Refundable, f.Source, f.SearchDate.String(), formatTime(f.ScrapedAt),
		now, now,
	).Scan(&id)
	if err != nil {
		return 0, persistErr("upsert flight", err)
	}
	return id, nil
}

func (s *SQLiteStore) AppendPriceHistory(ctx context.Context, flightID int64, entry models.PriceHistoryEntry) error {
	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO price_history (flight_id, price, currency, recorded_at, search_date)
		SELECT ?1, ?2, ?3, ?4, ?5
		WHERE EXISTS (SELECT 1 FROM flights WHERE id = ?1)`,
		flightID, entry.Price.StringFixed(2), entry.Currency, formatTime(recordedAt), entry.SearchDate.String(),
	)
	if err != nil {
		return persistErr("append price history", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("append price history", err)
	}
	if n == 0 {
		return fmt.Errorf("flight %d: %w", flightID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) PriceHistory(ctx context.Context, flightID int64) ([]models.PriceHistoryEntry, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id = ?)`, flightID).Scan(&exists); err != nil {
		return nil, persistErr("price history", err)
	}
	if !exists {
		return nil, fmt.Errorf("flight %d: %w", flightID, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT price, currency, recorded_at, search_date
		FROM price_history
		WHERE flight_id = ?
		ORDER BY recorded_at DESC, id DESC`, flightID)
	if err != nil {
		return nil, persistErr("price history", err)
	}
	defer rows.Close()

	entries := make([]models.PriceHistoryEntry, 0)
	for rows.Next() {
		var e models.PriceHistoryEntry
		var price, recordedAt, searchDate string
		if err := rows.Scan(&price, &e.Currency, &recordedAt, &searchDate); err != nil {
			return nil, persistErr("price history", err)
		}
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return nil, persistErr("price history", err)
		}
		if e.RecordedAt, err = parseTime(recordedAt); err != nil {
			return nil, persistErr("price history", err)
		}
		if e.SearchDate, err = parseDate(searchDate); err != nil {
			return nil, persistErr("price history", err)
		}
		entries = append(entries, e)
	}
	return entries, persistErr("price history", rows.Err())
}

func (s *SQLiteStore) RouteFlights(ctx context.Context, from, to string) ([]models.FlightRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteFlightColumns+`
		FROM flights
		WHERE from_location = ? AND to_location = ?
		ORDER BY CAST(price AS REAL), departure_time, id`, from, to)
	if err != nil {
		return nil, persistErr("route flights", err)
	}
	defer rows.Close()

	records := make([]models.FlightRecord, 0)
	for rows.Next() {
		rec, err := scanSQLiteFlight(rows)
		if err != nil {
			return nil, persistErr("route flights", err)
		}
		records = append(records, *rec)
	}
	return records, persistErr("route flights", rows.Err())
}

func (s *SQLiteStore) GetFlight(ctx context.Context, id int64) (*models.FlightRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteFlightColumns+` FROM flights WHERE id = ?`, id)
	rec, err := scanSQLiteFlight(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("flight %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, persistErr("get flight", err)
	}
	if rec.PriceHistory, err = s.PriceHistory(ctx, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteFlight(row rowScanner) (*models.FlightRecord, error) {
	var rec models.FlightRecord
	var departure, arrival, price, stops, searchDate, scraped, created, upd string
	err := row.Scan(
		&rec.ID, &rec.Airline, &rec.FlightNumber, &rec.FromLocation, &rec.ToLocation, &departure,
		&arrival, &rec.Duration, &price, &rec.Currency, &rec.Stops, &stops, &rec.CabinClass, &rec.AircraftType,
		&rec.CarryOnIncluded, &rec.CheckedBagsIncluded, &rec.Refundable, &rec.Source, &searchDate, &scraped,
		&created, &upd,
	)
	if err != nil {
		return nil, err
	}

	if rec.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stops), &rec.StopLocations); err != nil {
		return nil, fmt.Errorf("decode stop locations: %w", err)
	}
	if rec.SearchDate, err = parseDate(searchDate); err != nil {
		return nil, err
	}
	for _, field := range []struct {
		dst *time.Time
		src string
	}{
		{&rec.DepartureTime, departure},
		{&rec.ArrivalTime, arrival},
		{&rec.ScrapedAt, scraped},
		{&rec.CreatedAt, created},
		{&rec.UpdatedAt, upd},
	} {
		if *field.dst, err = parseTime(field.src); err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(sqliteTime, s, time.UTC)
}

func parseDate(s string) (models.Date, error) {
	if s == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(s)
}

var _ Store = (*SQLiteStore)(nil)
