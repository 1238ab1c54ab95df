package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/lib/pq"

	"github.com/example/ride-sharing/internal/models"
)

const createEventsTable = `CREATE TABLE IF NOT EXISTS ride_events (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	ride_id     INTEGER,
	driver_id   INTEGER,
	rider_id    INTEGER,
	fare        DOUBLE PRECISION,
	payload     JSONB NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL
)`

const insertEvent = `INSERT INTO ride_events(id, kind, ride_id, driver_id, rider_id, fare, payload, occurred_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (id) DO NOTHING`

type PostgresJournal struct {
	db *sql.DB
}

func NewPostgresJournal(ctx context.Context, dsn string) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresJournal{db: db}, nil
}

func (p *PostgresJournal) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, createEventsTable)
	return err
}

// Append relies on ON CONFLICT DO NOTHING; a redelivered id affects no rows.
func (p *PostgresJournal) Append(ctx context.Context, e models.Event) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	var rideID sql.NullInt64
	var fare sql.NullFloat64
	if e.Ride != nil {
		rideID = sql.NullInt64{Int64: int64(e.Ride.ID), Valid: true}
		fare = sql.NullFloat64{Float64: e.Ride.Fare, Valid: true}
	}
	res, err := p.db.ExecContext(ctx, insertEvent,
		e.ID, string(e.Kind), rideID, nullID(e.DriverID), nullID(e.RiderID), fare, payload, e.At)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p *PostgresJournal) Close() error {
	return p.db.Close()
}

func nullID(id int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(id), Valid: id != 0}
}
