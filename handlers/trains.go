package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"railway-reservation/models"
)

// ListTrains returns all trains in the catalog
func (h *Handler) ListTrains(c *gin.Context) {
	trains, err := h.trains.ListTrains(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trains)
}

// AddTrain adds a train and initializes its seats
func (h *Handler) AddTrain(c *gin.Context) {
	var req models.TrainRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.InvalidRequest("%v", err))
		return
	}

	train, err := h.trains.AddTrain(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, train)
}

// GetTrain returns a train by number
func (h *Handler) GetTrain(c *gin.Context) {
	train, err := h.trains.GetTrain(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, train)
}

// DeleteTrain removes a train together with all of its seats
func (h *Handler) DeleteTrain(c *gin.Context) {
	number := c.Param("number")

	if err := h.trains.DeleteTrain(c.Request.Context(), number); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Train %s deleted successfully", number),
	})
}
