package models

import "strings"

// BookingRequest represents a seat booking request
type BookingRequest struct {
	TrainNumber string `json:"-"`
	Category    string `json:"category" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Age         int    `json:"age" binding:"required"`
	Gender      string `json:"gender" binding:"required"`
}

// Parse validates the request and returns its typed parts
func (r BookingRequest) Parse() (string, SeatCategory, Passenger, error) {
	train := strings.TrimSpace(r.TrainNumber)
	if train == "" {
		return "", "", Passenger{}, InvalidRequest("train number is required")
	}

	category, err := ParseSeatCategory(r.Category)
	if err != nil {
		return "", "", Passenger{}, err
	}

	gender, err := ParseGender(r.Gender)
	if err != nil {
		return "", "", Passenger{}, err
	}

	passenger := Passenger{
		Name:   strings.TrimSpace(r.Name),
		Age:    r.Age,
		Gender: gender,
	}
	if err := passenger.Validate(); err != nil {
		return "", "", Passenger{}, err
	}

	return train, category, passenger, nil
}

// BookingResult is returned for a successful booking
type BookingResult struct {
	BookingRef  string       `json:"booking_ref"`
	TrainNumber string       `json:"train_number"`
	SeatNumber  int          `json:"seat_number"`
	Category    SeatCategory `json:"category"`
	Passenger   Passenger    `json:"passenger"`
}

// BookingResponse represents a booking creation response
type BookingResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Booking *BookingResult `json:"booking,omitempty"`
}

// SeatsResponse is the seat listing of one train
type SeatsResponse struct {
	TrainNumber string `json:"train_number"`
	Seats       []Seat `json:"seats"`
}

// AvailabilityResponse lists free seats per category
type AvailabilityResponse struct {
	TrainNumber string               `json:"train_number"`
	Free        map[SeatCategory]int `json:"free"`
	Total       int                  `json:"total"`
}
