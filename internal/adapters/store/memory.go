package store

import (
	"context"
	"sync"

	"github.com/okian/torque/internal/domain/model"
)

// MemoryStore implements Store with process-local maps. Used in tests and
// when no store path is configured.
type MemoryStore struct {
	mu         sync.RWMutex
	aggregates map[string]Entry
	outputs    map[string]model.VehicleIntelligenceOutput
	statuses   map[string]model.GenerationStatus
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		aggregates: make(map[string]Entry),
		outputs:    make(map[string]model.VehicleIntelligenceOutput),
		statuses:   make(map[string]model.GenerationStatus),
	}
}

func (s *MemoryStore) GetAggregate(_ context.Context, vehicleID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.aggregates[vehicleID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *MemoryStore) SetAggregate(_ context.Context, vehicleID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates[vehicleID] = e
	return nil
}

func (s *MemoryStore) DeleteAggregate(_ context.Context, vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.aggregates, vehicleID)
	return nil
}

func (s *MemoryStore) GetOutput(_ context.Context, vehicleID string) (model.VehicleIntelligenceOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.outputs[vehicleID]
	if !ok {
		return model.VehicleIntelligenceOutput{}, ErrNotFound
	}
	return v, nil
}

func (s *MemoryStore) SetOutput(_ context.Context, vio model.VehicleIntelligenceOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[vio.VehicleID] = vio
	return nil
}

func (s *MemoryStore) GetStatus(_ context.Context, vehicleID string) (model.GenerationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[vehicleID]
	if !ok {
		return model.GenerationStatus{}, ErrNotFound
	}
	return st, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, st model.GenerationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.VehicleID] = st
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregates = make(map[string]Entry)
	s.outputs = make(map[string]model.VehicleIntelligenceOutput)
	s.statuses = make(map[string]model.GenerationStatus)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
