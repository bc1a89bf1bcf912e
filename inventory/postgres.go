package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"railway-reservation/models"
)

// PostgresBackend stores all pools in the shared seats table, keyed by
// train number. Seat rows reference the trains table, so deleting a train
// cascades to its pool.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend creates a backend over an open database handle
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Name implements Backend
func (b *PostgresBackend) Name() string {
	return "postgres"
}

// Open implements Backend
func (b *PostgresBackend) Open(trainNumber string) Pool {
	return &PostgresPool{db: b.db, trainNumber: trainNumber}
}

// Exists implements Backend
func (b *PostgresBackend) Exists(ctx context.Context, trainNumber string) (bool, error) {
	return poolExists(ctx, b.db, trainNumber)
}

// Drop implements Backend
func (b *PostgresBackend) Drop(ctx context.Context, trainNumber string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM seats WHERE train_number = $1`, trainNumber)
	if err != nil {
		return models.StorageFailure("drop seat pool", err)
	}
	return nil
}

// PostgresPool is the seat pool of one train in Postgres
type PostgresPool struct {
	db          *sql.DB
	trainNumber string
}

// TrainNumber implements Pool
func (p *PostgresPool) TrainNumber() string {
	return p.trainNumber
}

// Initialize implements Pool. The train row is locked for the duration so
// concurrent initializers of the same pool run one after the other.
func (p *PostgresPool) Initialize(ctx context.Context, capacity int, layout []models.SeatCategory) error {
	if err := validateLayout(capacity, layout); err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return models.StorageFailure("begin pool init", err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx, `
		SELECT train_number
		FROM trains
		WHERE train_number = $1
		FOR UPDATE
	`, p.trainNumber).Scan(&locked)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", models.ErrTrainNotFound, p.trainNumber)
	}
	if err != nil {
		return models.StorageFailure("lock train", err)
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM seats
		WHERE train_number = $1
	`, p.trainNumber).Scan(&count)
	if err != nil {
		return models.StorageFailure("count seats", err)
	}
	if count > 0 {
		return nil
	}

	categories := make([]string, len(layout))
	for i, c := range layout {
		categories[i] = string(c)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO seats (train_number, seat_number, seat_type, booked)
		SELECT $1, n, ($2::text[])[((n - 1) % array_length($2::text[], 1)) + 1], FALSE
		FROM generate_series(1, $3) AS n
		ON CONFLICT DO NOTHING
	`, p.trainNumber, pq.Array(categories), capacity)
	if err != nil {
		return models.StorageFailure("insert seats", err)
	}

	if err = tx.Commit(); err != nil {
		return models.StorageFailure("commit pool init", err)
	}
	return nil
}

// Allocate implements Pool. Selection and update happen in one statement;
// the row lock taken by the subquery keeps a concurrent allocator off the
// chosen seat.
func (p *PostgresPool) Allocate(ctx context.Context, category models.SeatCategory, passenger models.Passenger) (int, error) {
	if err := validateAllocation(category, passenger); err != nil {
		return 0, err
	}

	var seatNumber int
	err := p.db.QueryRowContext(ctx, `
		UPDATE seats
		SET booked = TRUE,
			passenger_name = $3,
			passenger_age = $4,
			passenger_gender = $5
		WHERE train_number = $1
			AND NOT booked
			AND seat_number = (
				SELECT seat_number
				FROM seats
				WHERE train_number = $1
					AND seat_type = $2
					AND NOT booked
				ORDER BY seat_number
				LIMIT 1
				FOR UPDATE SKIP LOCKED
			)
		RETURNING seat_number
	`, p.trainNumber, string(category), passenger.Name, passenger.Age, string(passenger.Gender)).Scan(&seatNumber)

	if err == nil {
		return seatNumber, nil
	}
	if err != sql.ErrNoRows {
		return 0, models.StorageFailure("allocate seat", err)
	}

	exists, err := poolExists(ctx, p.db, p.trainNumber)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, p.notFound()
	}
	return 0, fmt.Errorf("%w: no free %s seat on train %s", models.ErrNoSeatAvailable, category, p.trainNumber)
}

// Release implements Pool
func (p *PostgresPool) Release(ctx context.Context, seatNumber int) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE seats
		SET booked = FALSE,
			passenger_name = NULL,
			passenger_age = NULL,
			passenger_gender = NULL
		WHERE train_number = $1
			AND seat_number = $2
			AND booked
	`, p.trainNumber, seatNumber)
	if err != nil {
		return models.StorageFailure("release seat", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.StorageFailure("release seat", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing was released; find out why
	var booked bool
	err = p.db.QueryRowContext(ctx, `
		SELECT booked
		FROM seats
		WHERE train_number = $1 AND seat_number = $2
	`, p.trainNumber, seatNumber).Scan(&booked)

	switch {
	case err == sql.ErrNoRows:
		exists, err := poolExists(ctx, p.db, p.trainNumber)
		if err != nil {
			return err
		}
		if !exists {
			return p.notFound()
		}
		return fmt.Errorf("%w: seat %d on train %s", models.ErrSeatNotFound, seatNumber, p.trainNumber)
	case err != nil:
		return models.StorageFailure("read seat", err)
	default:
		return fmt.Errorf("%w: seat %d on train %s", models.ErrSeatAlreadyFree, seatNumber, p.trainNumber)
	}
}

// Seats implements Pool
func (p *PostgresPool) Seats(ctx context.Context) ([]models.Seat, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT seat_number, seat_type, booked, passenger_name, passenger_age, passenger_gender
		FROM seats
		WHERE train_number = $1
		ORDER BY seat_number
	`, p.trainNumber)
	if err != nil {
		return nil, models.StorageFailure("list seats", err)
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		var category string
		var name, gender sql.NullString
		var age sql.NullInt64

		err := rows.Scan(&seat.SeatNumber, &category, &seat.Booked, &name, &age, &gender)
		if err != nil {
			return nil, models.StorageFailure("scan seat", err)
		}

		seat.Category = models.SeatCategory(category)
		if name.Valid || age.Valid || gender.Valid {
			seat.Passenger = &models.Passenger{
				Name:   name.String,
				Age:    int(age.Int64),
				Gender: models.Gender(gender.String),
			}
		}
		if !seat.Consistent() {
			return nil, fmt.Errorf("%w: seat %d on train %s has inconsistent passenger data",
				models.ErrStorageFailure, seat.SeatNumber, p.trainNumber)
		}

		seats = append(seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("list seats", err)
	}

	if len(seats) == 0 {
		return nil, p.notFound()
	}
	return seats, nil
}

func (p *PostgresPool) notFound() error {
	return fmt.Errorf("%w: train %s", models.ErrPoolNotFound, p.trainNumber)
}

func poolExists(ctx context.Context, db *sql.DB, trainNumber string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM seats WHERE train_number = $1)
	`, trainNumber).Scan(&exists)
	if err != nil {
		return false, models.StorageFailure("check seat pool", err)
	}
	return exists, nil
}
