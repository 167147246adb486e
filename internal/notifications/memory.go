package notifications

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type eventKey struct {
	eventID uuid.UUID
	rc      RecipientClass
}

// MemoryStore is an in-memory Store used by tests. MarkDelivered applies the
// same delivered-once guard as the SQL store.
type MemoryStore struct {
	mu     sync.Mutex
	events map[eventKey]Event
}

// NewMemory creates an empty in-memory notification store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		events: make(map[eventKey]Event),
	}
}

func (m *MemoryStore) Ensure(_ context.Context, e *Event) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := eventKey{e.EventID, e.RecipientClass}
	if stored, ok := m.events[key]; ok {
		out := stored
		return &out, nil
	}

	stored := *e
	stored.CreatedAt = time.Now()
	m.events[key] = stored
	out := stored
	return &out, nil
}

func (m *MemoryStore) MarkDelivered(_ context.Context, eventID uuid.UUID, rc RecipientClass) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := eventKey{eventID, rc}
	stored, ok := m.events[key]
	if !ok || stored.Delivered {
		return false, nil
	}

	now := time.Now()
	stored.Delivered = true
	stored.DeliveredAt = &now
	m.events[key] = stored
	return true, nil
}

func (m *MemoryStore) RecordAttempt(_ context.Context, eventID uuid.UUID, rc RecipientClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := eventKey{eventID, rc}
	if stored, ok := m.events[key]; ok && !stored.Delivered {
		stored.Attempts++
		m.events[key] = stored
	}
	return nil
}

func (m *MemoryStore) ListUndelivered(_ context.Context, limit int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, e := range m.events {
		if !e.Delivered {
			out = append(out, e)
		}
	}
	sortByCreated(out, false)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListByRecipient(_ context.Context, rc RecipientClass, recipientRef string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, e := range m.events {
		if e.RecipientClass == rc && e.RecipientRef == recipientRef {
			out = append(out, e)
		}
	}
	sortByCreated(out, true)
	return out, nil
}

func sortByCreated(events []Event, descending bool) {
	slices.SortFunc(events, func(a, b Event) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if descending {
			return -c
		}
		return c
	})
}
