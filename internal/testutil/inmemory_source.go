package testutil

import (
	"context"
	"sync"

	"github.com/retailpulse/retailpulse/internal/domain/snapshot"
)

// InMemorySource is a snapshot.Source serving a fixed dataset
type InMemorySource struct {
	mu      sync.RWMutex
	dataset *snapshot.Dataset
	err     error
	loads   int
}

func NewInMemorySource(ds *snapshot.Dataset) *InMemorySource {
	return &InMemorySource{dataset: ds}
}

func (s *InMemorySource) Load(ctx context.Context) (*snapshot.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.dataset, nil
}

// Set replaces the dataset served by the source
func (s *InMemorySource) Set(ds *snapshot.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
}

// SetError makes every following Load fail with err
func (s *InMemorySource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Loads returns how many times Load was called
func (s *InMemorySource) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

func (s *InMemorySource) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = nil
	s.err = nil
	s.loads = 0
}
