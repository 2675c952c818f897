package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jonatas020918/myflyticketsearcher/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const pgFlightColumns = `id, airline, flight_number, from_location, to_location, departure_time,
	arrival_time, duration, price::text, currency, stops, stop_locations, cabin_class, aircraft_type,
	carry_on_included, checked_bags_included, refundable, source, search_date, scraped_at,
	created_at, updated_at`

// PostgresStore persists flights in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to dsn and applies the schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, persistErr("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, persistErr("ping", err)
	}
	s := &PostgresStore{db: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool. The schema is not applied.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// Migrate creates the tables and indexes when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, postgresSchema)
	return persistErr("migrate", err)
}

func (s *PostgresStore) UpsertFlight(ctx context.Context, f *models.Flight) (int64, error) {
	stops := f.StopLocations
	if stops == nil {
		stops = []string{}
	}

	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO flights (airline, flight_number, from_location, to_location, departure_time,
			arrival_time, duration, price, currency, stops, stop_locations, cabin_class, aircraft_type,
			carry_on_included, checked_bags_included, refundable, source, search_date, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::numeric, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (airline, from_location, to_location, departure_time, arrival_time) DO UPDATE SET
			flight_number = EXCLUDED.flight_number,
			duration = EXCLUDED.duration,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			stops = EXCLUDED.stops,
			stop_locations = EXCLUDED.stop_locations,
			cabin_class = EXCLUDED.cabin_class,
			aircraft_type = EXCLUDED.aircraft_type,
			carry_on_included = EXCLUDED.carry_on_included,
			checked_bags_included = EXCLUDED.checked_bags_included,
			refundable = EXCLUDED.refundable,
			source = EXCLUDED.source,
			search_date = EXCLUDED.search_date,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = now()
		RETURNING id`,
		f.Airline, f.FlightNumber, f.FromLocation, f.ToLocation, f.DepartureTime,
		f.ArrivalTime, f.Duration, f.Price.StringFixed(2), f.Currency, f.Stops, stops, f.CabinClass, f.AircraftType,
		f.CarryOnIncluded, f.CheckedBagsIncluded, f.Refundable, f.Source, f.SearchDate.Time, f.ScrapedAt,
	).Scan(&id)
	if err != nil {
		return 0, persistErr("upsert flight", err)
	}
	return id, nil
}

func (s *PostgresStore) AppendPriceHistory(ctx context.Context, flightID int64, entry models.PriceHistoryEntry) error {
	recordedAt := entry.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO price_history (flight_id, price, currency, recorded_at, search_date)
		SELECT $1, $2::text::numeric, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM flights WHERE id = $1)`,
		flightID, entry.Price.StringFixed(2), entry.Currency, recordedAt, entry.SearchDate.Time,
	)
	if err != nil {
		return persistErr("append price history", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("flight %d: %w", flightID, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) PriceHistory(ctx context.Context, flightID int64) ([]models.PriceHistoryEntry, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id = $1)`, flightID).Scan(&exists); err != nil {
		return nil, persistErr("price history", err)
	}
	if !exists {
		return nil, fmt.Errorf("flight %d: %w", flightID, ErrNotFound)
	}

	rows, err := s.db.Query(ctx, `
		SELECT price::text, currency, recorded_at, search_date
		FROM price_history
		WHERE flight_id = $1
		ORDER BY recorded_at DESC, id DESC`, flightID)
	if err != nil {
		return nil, persistErr("price history", err)
	}
	defer rows.Close()

	entries := make([]models.PriceHistoryEntry, 0)
	for rows.Next() {
		var (
			e          models.PriceHistoryEntry
			price      string
			searchDate time.Time
		)
		if err := rows.Scan(&price, &e.Currency, &e.RecordedAt, &searchDate); err != nil {
			return nil, persistErr("price history", err)
		}
		if e.Price, err = decimal.NewFromString(price); err != nil {
			return nil, persistErr("price history", err)
		}
		e.SearchDate = models.NewDate(searchDate)
		entries = append(entries, e)
	}
	return entries, persistErr("price history", rows.Err())
}

func (s *PostgresStore) RouteFlights(ctx context.Context, from, to string) ([]models.FlightRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT `+pgFlightColumns+`
		FROM flights
		WHERE from_location = $1 AND to_location = $2
		ORDER BY price, departure_time, id`, from, to)
	if err != nil {
		return nil, persistErr("route flights", err)
	}
	defer rows.Close()

	records := make([]models.FlightRecord, 0)
	for rows.Next() {
		rec, err := scanPGFlight(rows)
		if err != nil {
			return nil, persistErr("route flights", err)
		}
		records = append(records, *rec)
	}
	return records, persistErr("route flights", rows.Err())
}

func (s *PostgresStore) GetFlight(ctx context.Context, id int64) (*models.FlightRecord, error) {
	row := s.db.QueryRow(ctx, `SELECT `+pgFlightColumns+` FROM flights WHERE id = $1`, id)
	rec, err := scanPGFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func scanPGFlight(row pgx.Row) (*models.FlightRecord, error) {
	var (
		rec        models.FlightRecord
		price      string
		searchDate time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.Airline, &rec.FlightNumber, &rec.FromLocation, &rec.ToLocation, &rec.DepartureTime,
		&rec.ArrivalTime, &rec.Duration, &price, &rec.Currency, &rec.Stops, &rec.StopLocations, &rec.CabinClass, &rec.AircraftType,
		&rec.CarryOnIncluded, &rec.CheckedBagsIncluded, &rec.Refundable, &rec.Source, &searchDate, &rec.ScrapedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rec.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	rec.SearchDate = models.NewDate(searchDate)
	return &rec, nil
}

var _ Store = (*PostgresStore)(nil)
