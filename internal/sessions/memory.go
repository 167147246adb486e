package sessions

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and by callers that need a
// persistence double with no shared process state. It enforces the same
// archived-write guard as the SQL store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]Session
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]Session),
	}
}

func (m *MemoryStore) Insert(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.sessions[s.ID] = clone(s)
	return nil
}

func (m *MemoryStore) Find(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(&stored)
	return &out, nil
}

func (m *MemoryStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != StatusCollecting {
		return ErrArchived
	}

	s.UpdatedAt = time.Now()
	m.sessions[s.ID] = clone(s)
	return nil
}

func (m *MemoryStore) ListIdleBefore(_ context.Context, cutoff time.Time, limit int) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Session
	for _, s := range m.sessions {
		if s.Status == StatusCollecting && !s.UpdatedAt.After(cutoff) {
			out = append(out, clone(&s))
		}
	}

	slices.SortFunc(out, func(a, b Session) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func clone(s *Session) Session {
	out := *s
	out.Turns = append(out.Turns[:0:0], s.Turns...)
	out.Collected = make(map[string]string, len(s.Collected))
	for k, v := range s.Collected {
		out.Collected[k] = v
	}
	return out
}
