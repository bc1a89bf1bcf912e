package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"railway-reservation/middleware"
	"railway-reservation/models"
	"railway-reservation/services"
)

// HealthCheck reports whether the storage behind the service is reachable
type HealthCheck func(ctx context.Context) error

// Handler serves the reservation HTTP API
type Handler struct {
	trains       *services.TrainService
	reservations *services.ReservationService
	health       HealthCheck
	logger       *zap.Logger
}

// New creates a handler. A nil health check always reports healthy.
func New(trains *services.TrainService, reservations *services.ReservationService, health HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		trains:       trains,
		reservations: reservations,
		health:       health,
		logger:       logger,
	}
}

// Register mounts all routes on the router
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/health", h.Health)

	api := router.Group("/api")
	{
		api.GET("/trains", h.ListTrains)
		api.POST("/trains", h.AddTrain)
		api.GET("/trains/:number", h.GetTrain)
		api.DELETE("/trains/:number", h.DeleteTrain)

		api.GET("/trains/:number/seats", h.ViewSeats)
		api.GET("/trains/:number/availability", h.Availability)

		api.POST("/trains/:number/bookings", h.BookSeat)
		api.DELETE("/trains/:number/seats/:seat", h.CancelSeat)
	}
}

// Health reports service and storage status
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrTrainNotFound),
		errors.Is(err, models.ErrPoolNotFound),
		errors.Is(err, models.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrTrainExists),
		errors.Is(err, models.ErrNoSeatAvailable),
		errors.Is(err, models.ErrSeatAlreadyFree):
		return http.StatusConflict
	case errors.Is(err, models.ErrStorageFailure):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body and attaches err to the context for the access log
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("Unhandled error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		msg = "internal server error"
	}

	c.JSON(status, gin.H{"error": msg, "code": models.ErrorCode(err)})
}
