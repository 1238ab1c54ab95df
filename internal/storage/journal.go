package storage

import (
	"context"
	"sync"

	"github.com/example/ride-sharing/internal/models"
)

// EventJournal is an append-only record of registry events. It is an audit
// trail only; registry state is never rebuilt from it.
type EventJournal interface {
	// Append reports false when an event with the same id is already stored.
	Append(ctx context.Context, e models.Event) (bool, error)
}

// MemoryJournal keeps the most recent events for local runs and tests.
// Ids older than the window are forgotten, so a very late redelivery is
// stored again.
type MemoryJournal struct {
	mu       sync.RWMutex
	capacity int
	events   []models.Event
	seen     map[string]struct{}
}

func NewMemoryJournal(capacity int) *MemoryJournal {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryJournal{capacity: capacity, seen: make(map[string]struct{})}
}

func (m *MemoryJournal) Append(ctx context.Context, e models.Event) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[e.ID]; ok {
		return false, nil
	}
	if len(m.events) == m.capacity {
		delete(m.seen, m.events[0].ID)
		m.events[0] = models.Event{}
		m.events = m.events[1:]
	}
	m.seen[e.ID] = struct{}{}
	m.events = append(m.events, e)
	return true, nil
}

// Events returns the retained events, oldest first.
func (m *MemoryJournal) Events() []models.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Event, len(m.events))
	copy(out, m.events)
	return out
}
