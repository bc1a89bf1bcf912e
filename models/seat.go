package models

import "strings"

// SeatCategory is the fixed class label of a seat
type SeatCategory string

const (
	Window SeatCategory = "Window"
	Aisle  SeatCategory = "Aisle"
	Middle SeatCategory = "Middle"
)

// DefaultLayout is the round-robin category order used to populate a pool
var DefaultLayout = []SeatCategory{Window, Aisle, Middle}

// DefaultCapacity is the number of seats a new pool gets
const DefaultCapacity = 10

// ParseSeatCategory parses a category name case-insensitively
func ParseSeatCategory(s string) (SeatCategory, error) {
	for _, c := range DefaultLayout {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, nil
		}
	}
	return "", InvalidRequest("unknown seat category %q", s)
}

// Valid reports whether c is one of the recognised categories
func (c SeatCategory) Valid() bool {
	switch c {
	case Window, Aisle, Middle:
		return true
	}
	return false
}

// CategoryAt returns the category of seat n (1-based) for the given layout
func CategoryAt(layout []SeatCategory, n int) SeatCategory {
	return layout[(n-1)%len(layout)]
}

// Gender of a passenger
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// ParseGender parses a gender case-insensitively
func ParseGender(s string) (Gender, error) {
	for _, g := range []Gender{Male, Female} {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", InvalidRequest("unknown gender %q", s)
}

// Passenger holds the traveller data attached to a booked seat
type Passenger struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender Gender `json:"gender"`
}

// Validate checks the passenger fields
func (p Passenger) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return InvalidRequest("passenger name is required")
	}
	if p.Age <= 0 {
		return InvalidRequest("passenger age must be positive, got %d", p.Age)
	}
	if _, err := ParseGender(string(p.Gender)); err != nil {
		return err
	}
	return nil
}

// Seat is one slot in a train's seat pool.
// Passenger is non-nil if and only if Booked is true.
type Seat struct {
	SeatNumber int          `json:"seat_number"`
	Category   SeatCategory `json:"category"`
	Booked     bool         `json:"booked"`
	Passenger  *Passenger   `json:"passenger,omitempty"`
}

// Consistent reports whether the booked flag and passenger data agree
func (s Seat) Consistent() bool {
	if !s.Booked {
		return s.Passenger == nil
	}
	return s.Passenger != nil && s.Passenger.Name != "" && s.Passenger.Age > 0 && s.Passenger.Gender != ""
}

// Clone returns a deep copy of the seat
func (s Seat) Clone() Seat {
	if s.Passenger != nil {
		p := *s.Passenger
		s.Passenger = &p
	}
	return s
}
