package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"railway-reservation/models"
)

// MemoryCatalog implements Catalog in process memory
type MemoryCatalog struct {
	mu     sync.RWMutex
	trains map[string]models.Train
}

// NewMemoryCatalog creates an empty catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		trains: make(map[string]models.Train),
	}
}

// Add implements Catalog
func (c *MemoryCatalog) Add(_ context.Context, train models.Train) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.trains[train.Number]; exists {
		return fmt.Errorf("%w: %s", models.ErrTrainExists, train.Number)
	}
	c.trains[train.Number] = train
	return nil
}

// Get implements Catalog
func (c *MemoryCatalog) Get(_ context.Context, number string) (*models.Train, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	train, exists := c.trains[number]
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrTrainNotFound, number)
	}
	return &train, nil
}

// List implements Catalog
func (c *MemoryCatalog) List(_ context.Context) ([]models.Train, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	trains := make([]models.Train, 0, len(c.trains))
	for _, train := range c.trains {
		trains = append(trains, train)
	}
	sort.Slice(trains, func(i, j int) bool {
		return trains[i].Number < trains[j].Number
	})
	return trains, nil
}

// Delete implements Catalog
func (c *MemoryCatalog) Delete(_ context.Context, number string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.trains[number]; !exists {
		return fmt.Errorf("%w: %s", models.ErrTrainNotFound, number)
	}
	delete(c.trains, number)
	return nil
}

// Exists implements Catalog
func (c *MemoryCatalog) Exists(_ context.Context, number string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.trains[number]
	return exists, nil
}
