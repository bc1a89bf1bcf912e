package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"railway-reservation/catalog"
	"railway-reservation/models"
)

// TrainService manages catalog records and keeps seat pools in step with them
type TrainService struct {
	catalog      catalog.Catalog
	reservations *ReservationService
	logger       *zap.Logger
}

// NewTrainService creates a train service
func NewTrainService(trains catalog.Catalog, reservations *ReservationService, logger *zap.Logger) *TrainService {
	return &TrainService{
		catalog:      trains,
		reservations: reservations,
		logger:       logger,
	}
}

// AddTrain stores a new train and initializes its seat pool
func (s *TrainService) AddTrain(ctx context.Context, req models.TrainRequest) (*models.Train, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	train := req.Train()
	if err := s.reservations.addTrain(ctx, train); err != nil {
		return nil, err
	}

	// The train is usable without its pool; ViewSeats and Book create it lazily
	if err := s.reservations.OnTrainCreated(ctx, train.Number); err != nil {
		s.logger.Warn("Seat pool not initialized, will be created on first use",
			zap.String("train", train.Number),
			zap.Error(err),
		)
	}

	s.logger.Info("Train added",
		zap.String("train", train.Number),
		zap.String("name", train.Name),
		zap.String("route", fmt.Sprintf("%s -> %s", train.Origin, train.Destination)),
	)
	return &train, nil
}

// GetTrain finds a train by number
func (s *TrainService) GetTrain(ctx context.Context, number string) (*models.Train, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, models.InvalidRequest("train number is required")
	}
	return s.catalog.Get(ctx, number)
}

// ListTrains returns all trains ordered by number
func (s *TrainService) ListTrains(ctx context.Context) ([]models.Train, error) {
	return s.catalog.List(ctx)
}

// DeleteTrain removes a train and its seat pool
func (s *TrainService) DeleteTrain(ctx context.Context, number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return models.InvalidRequest("train number is required")
	}

	if err := s.reservations.deleteTrain(ctx, number); err != nil {
		return err
	}

	s.logger.Info("Train deleted", zap.String("train", number))
	return nil
}
