package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"railway-reservation/catalog"
	"railway-reservation/inventory"
	"railway-reservation/models"
)

// ReservationService books and cancels seats.
//
// Book, Cancel and ViewSeats hold the read side of lifecycle, so they run
// in parallel and only contend on the seat pool they touch. Train creation
// and deletion hold the write side, which guarantees that a pool is never
// dropped under an in-flight booking and never recreated for a train that
// has just been deleted.
type ReservationService struct {
	catalog  catalog.Catalog
	registry *inventory.Registry
	logger   *zap.Logger

	lifecycle sync.RWMutex
}

// NewReservationService creates a reservation service
func NewReservationService(trains catalog.Catalog, registry *inventory.Registry, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		catalog:  trains,
		registry: registry,
		logger:   logger,
	}
}

// Book allocates a seat of the requested category to a passenger
func (s *ReservationService) Book(ctx context.Context, req models.BookingRequest) (*models.BookingResult, error) {
	trainNumber, category, passenger, err := req.Parse()
	if err != nil {
		return nil, err
	}

	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()

	if err := s.requireTrain(ctx, trainNumber); err != nil {
		return nil, err
	}

	pool, err := s.registry.GetOrCreate(ctx, trainNumber)
	if err != nil {
		return nil, s.storageError("resolve seat pool", trainNumber, err)
	}

	seatNumber, err := pool.Allocate(ctx, category, passenger)
	if err != nil {
		return nil, s.storageError("allocate seat", trainNumber, err)
	}

	result := &models.BookingResult{
		BookingRef:  uuid.NewString(),
		TrainNumber: trainNumber,
		SeatNumber:  seatNumber,
		Category:    category,
		Passenger:   passenger,
	}

	s.logger.Info("Seat booked",
		zap.String("booking_ref", result.BookingRef),
		zap.String("train", trainNumber),
		zap.Int("seat", seatNumber),
		zap.String("category", string(category)),
	)
	return result, nil
}

// Cancel releases a booked seat
func (s *ReservationService) Cancel(ctx context.Context, trainNumber string, seatNumber int) error {
	trainNumber = strings.TrimSpace(trainNumber)
	if trainNumber == "" {
		return models.InvalidRequest("train number is required")
	}

	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()

	pool, err := s.registry.Get(ctx, trainNumber)
	if err != nil {
		return s.storageError("resolve seat pool", trainNumber, err)
	}

	if err := pool.Release(ctx, seatNumber); err != nil {
		return s.storageError("release seat", trainNumber, err)
	}

	s.logger.Info("Seat released",
		zap.String("train", trainNumber),
		zap.Int("seat", seatNumber),
	)
	return nil
}

// ViewSeats returns the seats of a train ordered by seat number, creating
// the pool first if the train has none yet
func (s *ReservationService) ViewSeats(ctx context.Context, trainNumber string) ([]models.Seat, error) {
	trainNumber = strings.TrimSpace(trainNumber)
	if trainNumber == "" {
		return nil, models.InvalidRequest("train number is required")
	}

	s.lifecycle.RLock()
	defer s.lifecycle.RUnlock()

	if err := s.requireTrain(ctx, trainNumber); err != nil {
		return nil, err
	}

	pool, err := s.registry.GetOrCreate(ctx, trainNumber)
	if err != nil {
		return nil, s.storageError("resolve seat pool", trainNumber, err)
	}

	seats, err := pool.Seats(ctx)
	if err != nil {
		return nil, s.storageError("list seats", trainNumber, err)
	}
	return seats, nil
}

// Availability returns the number of free seats per category
func (s *ReservationService) Availability(ctx context.Context, trainNumber string) (map[models.SeatCategory]int, int, error) {
	seats, err := s.ViewSeats(ctx, trainNumber)
	if err != nil {
		return nil, 0, err
	}
	return inventory.FreeByCategory(seats), len(seats), nil
}

// TrainExists reports whether the catalog knows trainNumber
func (s *ReservationService) TrainExists(ctx context.Context, trainNumber string) (bool, error) {
	return s.catalog.Exists(ctx, trainNumber)
}

// OnTrainCreated eagerly initializes the seat pool of a new train.
// The train must still be in the catalog.
func (s *ReservationService) OnTrainCreated(ctx context.Context, trainNumber string) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if err := s.requireTrain(ctx, trainNumber); err != nil {
		return err
	}
	if _, err := s.registry.GetOrCreate(ctx, trainNumber); err != nil {
		return s.storageError("create seat pool", trainNumber, err)
	}
	return nil
}

// OnTrainDeleted destroys the seat pool of a deleted train. The pool of a
// train still in the catalog is kept and ErrTrainExists is returned.
func (s *ReservationService) OnTrainDeleted(ctx context.Context, trainNumber string) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	exists, err := s.catalog.Exists(ctx, trainNumber)
	if err != nil {
		return s.storageError("check train", trainNumber, err)
	}
	if exists {
		return fmt.Errorf("%w: %s is still in the catalog", models.ErrTrainExists, trainNumber)
	}
	return s.destroyPool(ctx, trainNumber)
}

// addTrain stores a new catalog record. A pool left behind under the same
// number by an earlier train is destroyed first, so the new train never
// inherits old bookings.
func (s *ReservationService) addTrain(ctx context.Context, train models.Train) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	exists, err := s.catalog.Exists(ctx, train.Number)
	if err != nil {
		return s.storageError("check train", train.Number, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", models.ErrTrainExists, train.Number)
	}

	stale, err := s.registry.Exists(ctx, train.Number)
	if err != nil {
		return s.storageError("check seat pool", train.Number, err)
	}
	if stale {
		s.logger.Warn("Removing stale seat pool", zap.String("train", train.Number))
		if err := s.destroyPool(ctx, train.Number); err != nil {
			return err
		}
	}

	return s.catalog.Add(ctx, train)
}

// deleteTrain removes the catalog record and the pool as one unit with
// respect to bookings
func (s *ReservationService) deleteTrain(ctx context.Context, trainNumber string) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if err := s.catalog.Delete(ctx, trainNumber); err != nil {
		return err
	}
	return s.destroyPool(ctx, trainNumber)
}

func (s *ReservationService) destroyPool(ctx context.Context, trainNumber string) error {
	if err := s.registry.Destroy(ctx, trainNumber); err != nil {
		return s.storageError("destroy seat pool", trainNumber, err)
	}
	return nil
}

func (s *ReservationService) requireTrain(ctx context.Context, trainNumber string) error {
	exists, err := s.catalog.Exists(ctx, trainNumber)
	if err != nil {
		return s.storageError("check train", trainNumber, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", models.ErrTrainNotFound, trainNumber)
	}
	return nil
}

// storageError logs storage failures and passes every error through unchanged
func (s *ReservationService) storageError(op, trainNumber string, err error) error {
	if models.IsRetryable(err) {
		s.logger.Error("Storage failure",
			zap.String("op", op),
			zap.String("train", trainNumber),
			zap.Error(err),
		)
	}
	return err
}
