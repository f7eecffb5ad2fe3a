package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory keeps estimates in-process and guards access with a RWMutex.
// It backs the service when no database path is configured.
type Memory struct {
	mu        sync.RWMutex
	estimates map[string]Record
}

// NewMemory returns an empty in-memory estimate store.
func NewMemory() *Memory {
	return &Memory{estimates: make(map[string]Record)}
}

// SaveEstimate stores a copy of rec, keeping the original creation time on updates.
func (m *Memory) SaveEstimate(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("estimate id is required")
	}
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.estimates[rec.ID]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.estimates[rec.ID] = cloneRecord(rec)
	return nil
}

// GetEstimate returns a copy of the stored estimate.
func (m *Memory) GetEstimate(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.estimates[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneRecord(rec), nil
}

func cloneRecord(rec Record) Record {
	out := rec
	out.Trucks = append([]string(nil), rec.Trucks...)
	out.Payload = append([]byte(nil), rec.Payload...)
	out.Sections = make([]Section, len(rec.Sections))
	for i, s := range rec.Sections {
		s.Lines = append([]Line(nil), s.Lines...)
		out.Sections[i] = s
	}
	return out
}
