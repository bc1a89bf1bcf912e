// Package catalog stores train identity records
package catalog

import (
	"context"

	"railway-reservation/models"
)

// Catalog is the train registry consulted by the reservation service
type Catalog interface {
	// Add stores a new train. Returns models.ErrTrainExists on a duplicate number.
	Add(ctx context.Context, train models.Train) error

	// Get returns a train by number or models.ErrTrainNotFound
	Get(ctx context.Context, number string) (*models.Train, error)

	// List returns all trains ordered by number
	List(ctx context.Context) ([]models.Train, error)

	// Delete removes a train. Returns models.ErrTrainNotFound if absent.
	Delete(ctx context.Context, number string) error

	// Exists reports whether a train is in the catalog
	Exists(ctx context.Context, number string) (bool, error)
}
