package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"railway-reservation/models"
)

// ViewSeats lists every seat of a train with its booking state
func (h *Handler) ViewSeats(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))

	seats, err := h.reservations.ViewSeats(c.Request.Context(), number)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SeatsResponse{
		TrainNumber: number,
		Seats:       seats,
	})
}

// Availability returns free seat counts per category
func (h *Handler) Availability(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))

	free, total, err := h.reservations.Availability(c.Request.Context(), number)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AvailabilityResponse{
		TrainNumber: number,
		Free:        free,
		Total:       total,
	})
}
