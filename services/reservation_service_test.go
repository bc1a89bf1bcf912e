package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"railway-reservation/catalog"
	"railway-reservation/inventory"
	"railway-reservation/models"
)

type testEnv struct {
	catalog      *catalog.MemoryCatalog
	registry     *inventory.Registry
	reservations *ReservationService
	trains       *TrainService
}

func newTestEnv(t *testing.T) *testEnv {
	log := zaptest.NewLogger(t)
	trains := catalog.NewMemoryCatalog()
	registry := inventory.NewRegistry(inventory.NewMemoryBackend(), inventory.WithLogger(log))
	reservations := NewReservationService(trains, registry, log)

	return &testEnv{
		catalog:      trains,
		registry:     registry,
		reservations: reservations,
		trains:       NewTrainService(trains, reservations, log),
	}
}

// addTrainRecord puts a train in the catalog without creating its pool
func (e *testEnv) addTrainRecord(t *testing.T, number string) {
	t.Helper()
	require.NoError(t, e.catalog.Add(context.Background(), models.Train{
		Number:      number,
		Name:        "Express " + number,
		Origin:      "Chennai",
		Destination: "Bengaluru",
	}))
}

func booking(train, category string) models.BookingRequest {
	return models.BookingRequest{
		TrainNumber: train,
		Category:    category,
		Name:        "Priya",
		Age:         28,
		Gender:      "Female",
	}
}

func TestReservationService_Book(t *testing.T) {
	ctx := context.Background()

	t.Run("aisle scenario", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "12007")

		for _, want := range []int{2, 5, 8} {
			res, err := env.reservations.Book(ctx, booking("12007", "Aisle"))
			require.NoError(t, err)
			assert.Equal(t, want, res.SeatNumber)
			assert.Equal(t, models.Aisle, res.Category)
			assert.NotEmpty(t, res.BookingRef)
		}

		_, err := env.reservations.Book(ctx, booking("12007", "Aisle"))
		assert.ErrorIs(t, err, models.ErrNoSeatAvailable)

		require.NoError(t, env.reservations.Cancel(ctx, "12007", 5))

		res, err := env.reservations.Book(ctx, booking("12007", "Aisle"))
		require.NoError(t, err)
		assert.Equal(t, 5, res.SeatNumber)
	})

	t.Run("unknown train creates no pool", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.reservations.Book(ctx, booking("99999", "Window"))
		assert.ErrorIs(t, err, models.ErrTrainNotFound)

		exists, err := env.registry.Exists(ctx, "99999")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("invalid input is rejected before the pool is touched", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(r *models.BookingRequest)
		}{
			{"unknown category", func(r *models.BookingRequest) { r.Category = "Sleeper" }},
			{"zero age", func(r *models.BookingRequest) { r.Age = 0 }},
			{"negative age", func(r *models.BookingRequest) { r.Age = -4 }},
			{"blank name", func(r *models.BookingRequest) { r.Name = "   " }},
			{"unknown gender", func(r *models.BookingRequest) { r.Gender = "Robot" }},
			{"blank train", func(r *models.BookingRequest) { r.TrainNumber = "" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				env := newTestEnv(t)
				env.addTrainRecord(t, "12627")

				req := booking("12627", "Window")
				tt.mutate(&req)

				_, err := env.reservations.Book(ctx, req)
				assert.ErrorIs(t, err, models.ErrInvalidRequest)
				assert.Equal(t, 0, env.registry.Cached())
			})
		}
	})

	t.Run("category and gender are case-insensitive", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "12627")

		req := booking("12627", "middle")
		req.Gender = "MALE"

		res, err := env.reservations.Book(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 3, res.SeatNumber)
		assert.Equal(t, models.Male, res.Passenger.Gender)
	})

	t.Run("bookings on one train leave another untouched", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "A")
		env.addTrainRecord(t, "B")

		for i := 0; i < 4; i++ {
			_, err := env.reservations.Book(ctx, booking("A", "Window"))
			require.NoError(t, err)
		}

		free, total, err := env.reservations.Availability(ctx, "B")
		require.NoError(t, err)
		assert.Equal(t, 10, total)
		assert.Equal(t, 4, free[models.Window])

		free, _, err = env.reservations.Availability(ctx, "A")
		require.NoError(t, err)
		assert.Equal(t, 0, free[models.Window])
		assert.Equal(t, 3, free[models.Aisle])
	})

	t.Run("concurrent bookings get distinct seats", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "22691")

		const callers = 30
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			seats  []int
			denied int
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := booking("22691", "Middle")
				req.Name = fmt.Sprintf("Passenger %d", i)

				res, err := env.reservations.Book(ctx, req)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					assert.ErrorIs(t, err, models.ErrNoSeatAvailable)
					denied++
					return
				}
				seats = append(seats, res.SeatNumber)
			}(i)
		}
		wg.Wait()

		sort.Ints(seats)
		assert.Equal(t, []int{3, 6, 9}, seats)
		assert.Equal(t, callers-3, denied)

		all, err := env.reservations.ViewSeats(ctx, "22691")
		require.NoError(t, err)
		for _, s := range all {
			assert.True(t, s.Consistent(), "seat %d", s.SeatNumber)
		}
	})
}

func TestReservationService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("no pool", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "12345")

		err := env.reservations.Cancel(ctx, "12345", 1)
		assert.ErrorIs(t, err, models.ErrPoolNotFound)

		err = env.reservations.Cancel(ctx, "unknown", 1)
		assert.ErrorIs(t, err, models.ErrPoolNotFound)
	})

	t.Run("seat never issued", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "12345")
		_, err := env.reservations.ViewSeats(ctx, "12345")
		require.NoError(t, err)

		for _, n := range []int{0, 11, 400} {
			assert.ErrorIs(t, env.reservations.Cancel(ctx, "12345", n), models.ErrSeatNotFound)
		}
	})

	t.Run("seat already free", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "12345")

		res, err := env.reservations.Book(ctx, booking("12345", "Window"))
		require.NoError(t, err)

		require.NoError(t, env.reservations.Cancel(ctx, "12345", res.SeatNumber))
		assert.ErrorIs(t, env.reservations.Cancel(ctx, "12345", res.SeatNumber), models.ErrSeatAlreadyFree)
		assert.ErrorIs(t, env.reservations.Cancel(ctx, "12345", 2), models.ErrSeatAlreadyFree)
	})

	t.Run("cancel clears passenger data", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "12345")

		res, err := env.reservations.Book(ctx, booking("12345", "Window"))
		require.NoError(t, err)
		require.NoError(t, env.reservations.Cancel(ctx, " 12345 ", res.SeatNumber))

		seats, err := env.reservations.ViewSeats(ctx, "12345")
		require.NoError(t, err)
		assert.False(t, seats[res.SeatNumber-1].Booked)
		assert.Nil(t, seats[res.SeatNumber-1].Passenger)
	})

	t.Run("blank train", func(t *testing.T) {
		env := newTestEnv(t)
		assert.ErrorIs(t, env.reservations.Cancel(ctx, "", 1), models.ErrInvalidRequest)
	})
}

func TestReservationService_ViewSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the pool on first view", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "16526")

		exists, err := env.registry.Exists(ctx, "16526")
		require.NoError(t, err)
		require.False(t, exists)

		seats, err := env.reservations.ViewSeats(ctx, "16526")
		require.NoError(t, err)
		require.Len(t, seats, 10)
		assert.Equal(t, models.Window, seats[0].Category)
		assert.Equal(t, models.Window, seats[9].Category)

		exists, err = env.registry.Exists(ctx, "16526")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("returns copies", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "16526")

		seats, err := env.reservations.ViewSeats(ctx, "16526")
		require.NoError(t, err)
		seats[0].Booked = true

		seats, err = env.reservations.ViewSeats(ctx, "16526")
		require.NoError(t, err)
		assert.False(t, seats[0].Booked)
	})

	t.Run("unknown train", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.reservations.ViewSeats(ctx, "00000")
		assert.ErrorIs(t, err, models.ErrTrainNotFound)
		assert.Equal(t, 0, env.registry.Cached())
	})
}

func TestReservationService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("hooks create and destroy the pool", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "12951")

		exists, err := env.reservations.TrainExists(ctx, "12951")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, env.reservations.OnTrainCreated(ctx, "12951"))
		exists, err = env.registry.Exists(ctx, "12951")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, env.catalog.Delete(ctx, "12951"))
		require.NoError(t, env.reservations.OnTrainDeleted(ctx, "12951"))
		require.NoError(t, env.reservations.OnTrainDeleted(ctx, "12951"))
		exists, err = env.registry.Exists(ctx, "12951")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("deleted hook keeps the pool of a listed train", func(t *testing.T) {
		env := newTestEnv(t)
		env.addTrainRecord(t, "L1")

		res, err := env.reservations.Book(ctx, booking("L1", "Window"))
		require.NoError(t, err)
		require.Equal(t, 1, res.SeatNumber)

		err = env.reservations.OnTrainDeleted(ctx, "L1")
		assert.ErrorIs(t, err, models.ErrTrainExists)

		seats, err := env.reservations.ViewSeats(ctx, "L1")
		require.NoError(t, err)
		assert.True(t, seats[0].Booked)
		require.NotNil(t, seats[0].Passenger)
		assert.Equal(t, "Priya", seats[0].Passenger.Name)
	})

	t.Run("created hook refuses unknown trains", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.reservations.OnTrainCreated(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrTrainNotFound)
		assert.Equal(t, 0, env.registry.Cached())
	})

	t.Run("deleting trains while booking leaves no orphan pools", func(t *testing.T) {
		env := newTestEnv(t)
		trains := []string{"T1", "T2", "T3", "T4", "T5"}
		for _, number := range trains {
			env.addTrainRecord(t, number)
		}

		var g errgroup.Group
		for _, number := range trains {
			number := number
			for i := 0; i < 10; i++ {
				g.Go(func() error {
					_, err := env.reservations.Book(ctx, booking(number, "Window"))
					if err == nil || errors.Is(err, models.ErrTrainNotFound) || errors.Is(err, models.ErrNoSeatAvailable) {
						return nil
					}
					return err
				})
			}
			g.Go(func() error {
				return env.trains.DeleteTrain(ctx, number)
			})
		}
		require.NoError(t, g.Wait())

		for _, number := range trains {
			exists, err := env.registry.Exists(ctx, number)
			require.NoError(t, err)
			assert.False(t, exists, "pool of deleted train %s survived", number)
		}
	})
}

// dropFailingBackend fails Drop while failDrop is set
type dropFailingBackend struct {
	inventory.Backend

	mu       sync.Mutex
	failDrop bool
}

func (b *dropFailingBackend) setFailDrop(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failDrop = fail
}

func (b *dropFailingBackend) Drop(ctx context.Context, trainNumber string) error {
	b.mu.Lock()
	fail := b.failDrop
	b.mu.Unlock()

	if fail {
		return models.StorageFailure("drop seat pool", errors.New("connection reset"))
	}
	return b.Backend.Drop(ctx, trainNumber)
}

func TestReservationService_StalePool(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	backend := &dropFailingBackend{Backend: inventory.NewMemoryBackend()}
	trains := catalog.NewMemoryCatalog()
	registry := inventory.NewRegistry(backend, inventory.WithLogger(log))
	reservations := NewReservationService(trains, registry, log)
	trainService := NewTrainService(trains, reservations, log)

	req := models.TrainRequest{Number: "12601", Name: "Mail", Origin: "Chennai", Destination: "Mangaluru"}
	_, err := trainService.AddTrain(ctx, req)
	require.NoError(t, err)
	_, err = reservations.Book(ctx, booking("12601", "Window"))
	require.NoError(t, err)

	backend.setFailDrop(true)
	err = trainService.DeleteTrain(ctx, "12601")
	require.ErrorIs(t, err, models.ErrStorageFailure)

	// The record is gone but its pool survived
	exists, err := trains.Exists(ctx, "12601")
	require.NoError(t, err)
	require.False(t, exists)
	exists, err = registry.Exists(ctx, "12601")
	require.NoError(t, err)
	require.True(t, exists)

	t.Run("re-add fails while the pool cannot be removed", func(t *testing.T) {
		_, err := trainService.AddTrain(ctx, req)
		assert.ErrorIs(t, err, models.ErrStorageFailure)

		exists, err := trains.Exists(ctx, "12601")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("re-add starts from an empty pool", func(t *testing.T) {
		backend.setFailDrop(false)

		_, err := trainService.AddTrain(ctx, req)
		require.NoError(t, err)

		seats, err := reservations.ViewSeats(ctx, "12601")
		require.NoError(t, err)
		for _, s := range seats {
			assert.False(t, s.Booked, "seat %d", s.SeatNumber)
		}
	})

	t.Run("duplicate add keeps the live pool", func(t *testing.T) {
		res, err := reservations.Book(ctx, booking("12601", "Aisle"))
		require.NoError(t, err)

		_, err = trainService.AddTrain(ctx, req)
		assert.ErrorIs(t, err, models.ErrTrainExists)

		seats, err := reservations.ViewSeats(ctx, "12601")
		require.NoError(t, err)
		assert.True(t, seats[res.SeatNumber-1].Booked)
	})
}

// failingCatalog reports a storage failure for every call
type failingCatalog struct {
	catalog.Catalog
}

func (failingCatalog) Exists(context.Context, string) (bool, error) {
	return false, models.StorageFailure("check train", errors.New("connection reset"))
}

func TestReservationService_StorageFailure(t *testing.T) {
	log := zaptest.NewLogger(t)
	registry := inventory.NewRegistry(inventory.NewMemoryBackend())
	reservations := NewReservationService(failingCatalog{}, registry, log)

	_, err := reservations.Book(context.Background(), booking("12345", "Window"))
	require.ErrorIs(t, err, models.ErrStorageFailure)
	assert.True(t, models.IsRetryable(err))
	assert.Equal(t, "STORAGE_FAILURE", models.ErrorCode(err))
	assert.Equal(t, 0, registry.Cached())
}
