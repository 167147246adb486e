package cases

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/pkg/pagination"
)

// MemoryStore is an in-memory Store with the same serialization guarantees as
// the SQL store: CompareAndSwap runs under a single lock, so racing writers
// observe exactly one winner. Used by tests as the persistence double.
type MemoryStore struct {
	mu    sync.Mutex
	cases map[uuid.UUID]Case
}

// NewMemory creates an empty in-memory case store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		cases: make(map[uuid.UUID]Case),
	}
}

func (m *MemoryStore) Insert(_ context.Context, c *Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	m.cases[c.ID] = cloneCase(c)
	return nil
}

func (m *MemoryStore) Find(_ context.Context, id uuid.UUID) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(id)
}

func (m *MemoryStore) FindRecentDuplicate(
	_ context.Context,
	citizenRef, digest string,
	window time.Duration,
) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-window)
	for _, c := range m.cases {
		if c.CitizenRef != citizenRef || c.CreatedAt.Before(cutoff) {
			continue
		}
		if reportDigest(c.Category, c.Report) == digest {
			out := cloneCase(&c)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CompareAndSwap(
	_ context.Context,
	id uuid.UUID,
	expected Status,
	change Change,
	entry HistoryEntry,
) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.find(id)
	if err != nil {
		return nil, err
	}
	if stored.Status != expected {
		return nil, ErrStale
	}

	stored.Status = change.Status
	stored.History = append(stored.History, entry)
	if change.ClearAuthRef {
		stored.AssignedAuthorityRef = nil
	} else if change.AuthorityRef != nil {
		ref := *change.AuthorityRef
		stored.AssignedAuthorityRef = &ref
	}
	stored.UpdatedAt = time.Now()

	m.cases[id] = cloneCase(stored)
	out := cloneCase(stored)
	return &out, nil
}

func (m *MemoryStore) List(
	_ context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Case], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Case
	for _, c := range m.cases {
		if filters.Category != nil && string(c.Category) != *filters.Category {
			continue
		}
		if filters.Status != nil && string(c.Status) != *filters.Status {
			continue
		}
		if filters.CitizenRef != nil && c.CitizenRef != *filters.CitizenRef {
			continue
		}
		matched = append(matched, cloneCase(&c))
	}

	slices.SortFunc(matched, func(a, b Case) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PageSize, total)

	result := pagination.NewPageResult(matched[start:end], total, page.Page, page.PageSize)
	return &result, nil
}

func (m *MemoryStore) find(id uuid.UUID) (*Case, error) {
	stored, ok := m.cases[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCase(&stored)
	return &out, nil
}

func cloneCase(c *Case) Case {
	out := *c
	out.History = append(out.History[:0:0], c.History...)
	out.Report = make(map[string]string, len(c.Report))
	for k, v := range c.Report {
		out.Report[k] = v
	}
	if c.AssignedAuthorityRef != nil {
		ref := *c.AssignedAuthorityRef
		out.AssignedAuthorityRef = &ref
	}
	return out
}
