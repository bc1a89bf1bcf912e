package inventory

import (
	"context"

	"railway-reservation/models"
)

// Pool is the seat pool of a single train
type Pool interface {
	// TrainNumber returns the train this pool belongs to
	TrainNumber() string

	// Initialize populates seats 1..capacity cycling through layout.
	// No-op if the pool already has seats.
	Initialize(ctx context.Context, capacity int, layout []models.SeatCategory) error

	// Allocate books the lowest-numbered free seat of category for passenger
	// and returns its number. Returns models.ErrNoSeatAvailable if none is free.
	Allocate(ctx context.Context, category models.SeatCategory, passenger models.Passenger) (int, error)

	// Release frees a booked seat and clears its passenger data.
	// Returns models.ErrSeatNotFound or models.ErrSeatAlreadyFree.
	Release(ctx context.Context, seatNumber int) error

	// Seats returns a snapshot of all seats ordered by seat number
	Seats(ctx context.Context) ([]models.Seat, error)
}

// Backend stores pools in a storage engine
type Backend interface {
	// Name identifies the backend in logs
	Name() string

	// Open returns a handle on the pool of trainNumber. It does no I/O and
	// the pool may not exist yet.
	Open(trainNumber string) Pool

	// Exists reports whether the pool of trainNumber has been initialized
	Exists(ctx context.Context, trainNumber string) (bool, error)

	// Drop removes the pool and all its seats. No error if it does not exist.
	Drop(ctx context.Context, trainNumber string) error
}

// FreeByCategory counts the unbooked seats of each category
func FreeByCategory(seats []models.Seat) map[models.SeatCategory]int {
	free := make(map[models.SeatCategory]int, len(models.DefaultLayout))
	for _, c := range models.DefaultLayout {
		free[c] = 0
	}
	for _, s := range seats {
		if !s.Booked {
			free[s.Category]++
		}
	}
	return free
}

func validateLayout(capacity int, layout []models.SeatCategory) error {
	if capacity <= 0 {
		return models.InvalidRequest("pool capacity must be positive, got %d", capacity)
	}
	if len(layout) == 0 {
		return models.InvalidRequest("seat layout is empty")
	}
	for _, c := range layout {
		if !c.Valid() {
			return models.InvalidRequest("unknown seat category %q in layout", c)
		}
	}
	return nil
}

func validateAllocation(category models.SeatCategory, passenger models.Passenger) error {
	if !category.Valid() {
		return models.InvalidRequest("unknown seat category %q", category)
	}
	return passenger.Validate()
}
