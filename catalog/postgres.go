package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"railway-reservation/models"
)

// uniqueViolation is the Postgres SQLSTATE for a duplicate key
const uniqueViolation = "23505"

// PostgresCatalog implements Catalog over the trains table
type PostgresCatalog struct {
	db *sql.DB
}

// NewPostgresCatalog creates a catalog over an open database handle
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Add implements Catalog
func (c *PostgresCatalog) Add(ctx context.Context, train models.Train) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO trains (train_number, train_name, start_destination, end_destination)
		VALUES ($1, $2, $3, $4)
	`, train.Number, train.Name, train.Origin, train.Destination)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", models.ErrTrainExists, train.Number)
		}
		return models.StorageFailure("insert train", err)
	}
	return nil
}

// Get implements Catalog
func (c *PostgresCatalog) Get(ctx context.Context, number string) (*models.Train, error) {
	var train models.Train
	err := c.db.QueryRowContext(ctx, `
		SELECT train_number, train_name, start_destination, end_destination
		FROM trains
		WHERE train_number = $1
	`, number).Scan(&train.Number, &train.Name, &train.Origin, &train.Destination)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", models.ErrTrainNotFound, number)
		}
		return nil, models.StorageFailure("get train", err)
	}
	return &train, nil
}

// List implements Catalog
func (c *PostgresCatalog) List(ctx context.Context) ([]models.Train, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT train_number, train_name, start_destination, end_destination
		FROM trains
		ORDER BY train_number
	`)
	if err != nil {
		return nil, models.StorageFailure("list trains", err)
	}
	defer rows.Close()

	trains := []models.Train{}
	for rows.Next() {
		var train models.Train
		if err := rows.Scan(&train.Number, &train.Name, &train.Origin, &train.Destination); err != nil {
			return nil, models.StorageFailure("scan train", err)
		}
		trains = append(trains, train)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageFailure("list trains", err)
	}
	return trains, nil
}

// Delete implements Catalog. Seat rows of the train go with it through
// the ON DELETE CASCADE foreign key.
func (c *PostgresCatalog) Delete(ctx context.Context, number string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM trains WHERE train_number = $1`, number)
	if err != nil {
		return models.StorageFailure("delete train", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.StorageFailure("delete train", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrTrainNotFound, number)
	}
	return nil
}

// Exists implements Catalog
func (c *PostgresCatalog) Exists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM trains WHERE train_number = $1)
	`, number).Scan(&exists)
	if err != nil {
		return false, models.StorageFailure("check train", err)
	}
	return exists, nil
}
