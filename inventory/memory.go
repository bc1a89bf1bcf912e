package inventory

import (
	"context"
	"fmt"
	"sync"

	"railway-reservation/models"
)

// MemoryBackend keeps every pool in process memory
type MemoryBackend struct {
	mu    sync.Mutex
	pools map[string]*MemoryPool
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		pools: make(map[string]*MemoryPool),
	}
}

// Name implements Backend
func (b *MemoryBackend) Name() string {
	return "memory"
}

// Open returns the stored pool of trainNumber, adding an empty one if needed
func (b *MemoryBackend) Open(trainNumber string) Pool {
	b.mu.Lock()
	defer b.mu.Unlock()

	pool, ok := b.pools[trainNumber]
	if !ok {
		pool = NewMemoryPool(trainNumber)
		b.pools[trainNumber] = pool
	}
	return pool
}

// Exists implements Backend
func (b *MemoryBackend) Exists(_ context.Context, trainNumber string) (bool, error) {
	b.mu.Lock()
	pool, ok := b.pools[trainNumber]
	b.mu.Unlock()

	if !ok {
		return false, nil
	}
	return pool.initialized(), nil
}

// Drop implements Backend. Handles still held on the dropped pool fail
// with models.ErrPoolNotFound from then on.
func (b *MemoryBackend) Drop(_ context.Context, trainNumber string) error {
	b.mu.Lock()
	pool, ok := b.pools[trainNumber]
	delete(b.pools, trainNumber)
	b.mu.Unlock()

	if ok {
		pool.drop()
	}
	return nil
}

// MemoryPool is a Pool held in memory. A single mutex serializes every
// mutation so find-and-mark in Allocate cannot interleave with another
// Allocate or Release on the same pool.
type MemoryPool struct {
	trainNumber string

	mu      sync.Mutex
	seats   []models.Seat // seats[i] is seat number i+1
	dropped bool
}

// NewMemoryPool creates an empty, uninitialized pool
func NewMemoryPool(trainNumber string) *MemoryPool {
	return &MemoryPool{trainNumber: trainNumber}
}

// TrainNumber implements Pool
func (p *MemoryPool) TrainNumber() string {
	return p.trainNumber
}

// Initialize implements Pool
func (p *MemoryPool) Initialize(_ context.Context, capacity int, layout []models.SeatCategory) error {
	if err := validateLayout(capacity, layout); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dropped {
		return p.notFound()
	}
	if len(p.seats) > 0 {
		return nil
	}

	seats := make([]models.Seat, capacity)
	for i := range seats {
		seats[i] = models.Seat{
			SeatNumber: i + 1,
			Category:   models.CategoryAt(layout, i+1),
		}
	}
	p.seats = seats
	return nil
}

// Allocate implements Pool
func (p *MemoryPool) Allocate(_ context.Context, category models.SeatCategory, passenger models.Passenger) (int, error) {
	if err := validateAllocation(category, passenger); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.seats) == 0 {
		return 0, p.notFound()
	}

	for i := range p.seats {
		seat := &p.seats[i]
		if seat.Booked || seat.Category != category {
			continue
		}
		booked := passenger
		seat.Booked = true
		seat.Passenger = &booked
		return seat.SeatNumber, nil
	}

	return 0, fmt.Errorf("%w: no free %s seat on train %s", models.ErrNoSeatAvailable, category, p.trainNumber)
}

// Release implements Pool
func (p *MemoryPool) Release(_ context.Context, seatNumber int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.seats) == 0 {
		return p.notFound()
	}
	if seatNumber < 1 || seatNumber > len(p.seats) {
		return fmt.Errorf("%w: seat %d on train %s", models.ErrSeatNotFound, seatNumber, p.trainNumber)
	}

	seat := &p.seats[seatNumber-1]
	if !seat.Booked {
		return fmt.Errorf("%w: seat %d on train %s", models.ErrSeatAlreadyFree, seatNumber, p.trainNumber)
	}
	seat.Booked = false
	seat.Passenger = nil
	return nil
}

// Seats implements Pool. The returned seats are copies.
func (p *MemoryPool) Seats(_ context.Context) ([]models.Seat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.seats) == 0 {
		return nil, p.notFound()
	}

	seats := make([]models.Seat, len(p.seats))
	for i, s := range p.seats {
		seats[i] = s.Clone()
	}
	return seats, nil
}

func (p *MemoryPool) initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seats) > 0
}

func (p *MemoryPool) drop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seats = nil
	p.dropped = true
}

func (p *MemoryPool) notFound() error {
	return fmt.Errorf("%w: train %s", models.ErrPoolNotFound, p.trainNumber)
}
