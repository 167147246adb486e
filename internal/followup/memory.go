package followup

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests.
type MemoryStore struct {
	mu     sync.Mutex
	cycles map[uuid.UUID]Followup
}

// NewMemory creates an empty in-memory follow-up store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		cycles: make(map[uuid.UUID]Followup),
	}
}

func (m *MemoryStore) Request(_ context.Context, caseID uuid.UUID) (*Followup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.cycles[caseID]; ok && existing.Open() {
		out := existing
		return &out, nil
	}

	f := Followup{
		CaseID:      caseID,
		State:       StatePending,
		RequestedAt: time.Now(),
	}
	m.cycles[caseID] = f
	out := f
	return &out, nil
}

func (m *MemoryStore) Find(_ context.Context, caseID uuid.UUID) (*Followup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.cycles[caseID]
	if !ok {
		return nil, ErrNotFound
	}
	out := f
	return &out, nil
}

func (m *MemoryStore) MarkReminded(_ context.Context, caseID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.cycles[caseID]
	if !ok || f.State != StatePending {
		return false, nil
	}

	now := time.Now()
	f.State = StateReminded
	f.RemindedAt = &now
	m.cycles[caseID] = f
	return true, nil
}

func (m *MemoryStore) Close(_ context.Context, caseID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.cycles[caseID]; ok && f.State != StateClosed {
		f.State = StateClosed
		m.cycles[caseID] = f
	}
	return nil
}

func (m *MemoryStore) ListPendingBefore(_ context.Context, cutoff time.Time, limit int) ([]Followup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Followup
	for _, f := range m.cycles {
		if f.State == StatePending && !f.RequestedAt.After(cutoff) {
			out = append(out, f)
		}
	}

	slices.SortFunc(out, func(a, b Followup) int {
		return a.RequestedAt.Compare(b.RequestedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
