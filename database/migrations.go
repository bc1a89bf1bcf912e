package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the catalog and the shared seat table. A train's pool is
// the set of seat rows carrying its number; the foreign key drops the pool
// together with the train, and the check keeps the booked flag and the
// passenger columns in step.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS trains (
		train_number      TEXT PRIMARY KEY,
		train_name        TEXT NOT NULL,
		start_destination TEXT NOT NULL,
		end_destination   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		train_number     TEXT    NOT NULL REFERENCES trains (train_number) ON DELETE CASCADE,
		seat_number      INTEGER NOT NULL CHECK (seat_number > 0),
		seat_type        TEXT    NOT NULL CHECK (seat_type IN ('Window', 'Aisle', 'Middle')),
		booked           BOOLEAN NOT NULL DEFAULT FALSE,
		passenger_name   TEXT,
		passenger_age    INTEGER CHECK (passenger_age > 0),
		passenger_gender TEXT,
		PRIMARY KEY (train_number, seat_number),
		CONSTRAINT seats_passenger_iff_booked CHECK (
			booked = (passenger_name IS NOT NULL AND passenger_age IS NOT NULL AND passenger_gender IS NOT NULL)
			AND (booked OR (passenger_name IS NULL AND passenger_age IS NULL AND passenger_gender IS NULL))
		)
	)`,
	`CREATE INDEX IF NOT EXISTS seats_free_by_type
		ON seats (train_number, seat_type, seat_number)
		WHERE NOT booked`,
}

// RunMigrations ensures all required tables exist
func RunMigrations(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
