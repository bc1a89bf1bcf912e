package models

import "strings"

// Train represents a train record in the catalog
type Train struct {
	Number      string `json:"number"`
	Name        string `json:"name"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// TrainRequest represents a train creation request
type TrainRequest struct {
	Number      string `json:"number" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

// Normalize trims surrounding whitespace from every field
func (r TrainRequest) Normalize() TrainRequest {
	return TrainRequest{
		Number:      strings.TrimSpace(r.Number),
		Name:        strings.TrimSpace(r.Name),
		Origin:      strings.TrimSpace(r.Origin),
		Destination: strings.TrimSpace(r.Destination),
	}
}

// Validate checks that all fields are present
func (r TrainRequest) Validate() error {
	switch {
	case r.Number == "":
		return InvalidRequest("train number is required")
	case r.Name == "":
		return InvalidRequest("train name is required")
	case r.Origin == "":
		return InvalidRequest("origin is required")
	case r.Destination == "":
		return InvalidRequest("destination is required")
	}
	return nil
}

// Train converts the request into a catalog record
func (r TrainRequest) Train() Train {
	return Train{
		Number:      r.Number,
		Name:        r.Name,
		Origin:      r.Origin,
		Destination: r.Destination,
	}
}
