package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"railway-reservation/models"
)

// BookSeat books a seat of the requested category
func (h *Handler) BookSeat(c *gin.Context) {
	var req models.BookingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.InvalidRequest("%v", err))
		return
	}
	req.TrainNumber = c.Param("number")

	booking, err := h.reservations.Book(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.BookingResponse{
		Success: true,
		Message: fmt.Sprintf("Seat %d booked successfully", booking.SeatNumber),
		Booking: booking,
	})
}

// CancelSeat frees a booked seat
func (h *Handler) CancelSeat(c *gin.Context) {
	number := c.Param("number")

	seat, err := strconv.Atoi(c.Param("seat"))
	if err != nil {
		h.respondError(c, models.InvalidRequest("seat number must be an integer, got %q", c.Param("seat")))
		return
	}

	if err := h.reservations.Cancel(c.Request.Context(), number, seat); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Seat %d on train %s cancelled successfully", seat, number),
	})
}
