package inventory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"railway-reservation/models"
)

// Registry maps train numbers to their seat pools.
//
// Concurrency Model:
//   - the mutex guards only the handle map; it is never held across I/O
//     or seat operations, so pools of different trains never block each other
//   - first-time creation of a pool is coalesced per train with singleflight,
//     so concurrent GetOrCreate calls run a single initialization
//   - backends make initialization idempotent, which covers other processes
//     sharing the same storage
type Registry struct {
	backend  Backend
	capacity int
	layout   []models.SeatCategory
	logger   *zap.Logger

	mu    sync.RWMutex
	pools map[string]Pool

	creating singleflight.Group
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithCapacity sets the number of seats of new pools
func WithCapacity(capacity int) RegistryOption {
	return func(r *Registry) {
		r.capacity = capacity
	}
}

// WithLayout sets the round-robin category order of new pools
func WithLayout(layout []models.SeatCategory) RegistryOption {
	return func(r *Registry) {
		r.layout = append([]models.SeatCategory(nil), layout...)
	}
}

// WithLogger sets the registry logger
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry over backend. New pools get
// models.DefaultCapacity seats in models.DefaultLayout order unless
// overridden by options.
func NewRegistry(backend Backend, opts ...RegistryOption) *Registry {
	r := &Registry{
		backend:  backend,
		capacity: models.DefaultCapacity,
		layout:   models.DefaultLayout,
		logger:   zap.NewNop(),
		pools:    make(map[string]Pool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend returns the storage backend
func (r *Registry) Backend() Backend {
	return r.backend
}

// GetOrCreate returns the pool of trainNumber, creating and initializing
// it first if it does not exist
func (r *Registry) GetOrCreate(ctx context.Context, trainNumber string) (Pool, error) {
	if pool, ok := r.cached(trainNumber); ok {
		return pool, nil
	}

	v, err, _ := r.creating.Do(trainNumber, func() (interface{}, error) {
		if pool, ok := r.cached(trainNumber); ok {
			return pool, nil
		}

		pool := r.backend.Open(trainNumber)
		if err := pool.Initialize(ctx, r.capacity, r.layout); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.pools[trainNumber] = pool
		r.mu.Unlock()

		r.logger.Info("Seat pool ready",
			zap.String("train", trainNumber),
			zap.String("backend", r.backend.Name()),
			zap.Int("capacity", r.capacity),
		)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Pool), nil
}

// Get returns the pool of trainNumber without creating it.
// Returns models.ErrPoolNotFound if the pool does not exist.
func (r *Registry) Get(ctx context.Context, trainNumber string) (Pool, error) {
	if pool, ok := r.cached(trainNumber); ok {
		return pool, nil
	}

	exists, err := r.backend.Exists(ctx, trainNumber)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: train %s", models.ErrPoolNotFound, trainNumber)
	}

	// Initialized by an earlier run or another instance
	pool := r.backend.Open(trainNumber)

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.pools[trainNumber]; ok {
		return cached, nil
	}
	r.pools[trainNumber] = pool
	return pool, nil
}

// Exists reports whether trainNumber has a pool
func (r *Registry) Exists(ctx context.Context, trainNumber string) (bool, error) {
	if _, ok := r.cached(trainNumber); ok {
		return true, nil
	}
	return r.backend.Exists(ctx, trainNumber)
}

// Destroy removes the pool of trainNumber and all its seats.
// No error if the pool does not exist.
func (r *Registry) Destroy(ctx context.Context, trainNumber string) error {
	r.mu.Lock()
	delete(r.pools, trainNumber)
	r.mu.Unlock()

	if err := r.backend.Drop(ctx, trainNumber); err != nil {
		return err
	}

	r.logger.Info("Seat pool destroyed",
		zap.String("train", trainNumber),
		zap.String("backend", r.backend.Name()),
	)
	return nil
}

// Cached returns the number of pool handles held in memory
func (r *Registry) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

func (r *Registry) cached(trainNumber string) (Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[trainNumber]
	return pool, ok
}
