package cases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/pkg/pagination"
)

// Config holds case lifecycle tuning.
type Config struct {
	// DedupWindow bounds how far back an identical report from the same
	// citizen counts as a duplicate submission.
	DedupWindow time.Duration
}

type manager struct {
	store      Store
	notifier   Notifier
	cfg        Config
	logger     *slog.Logger
	pagination pagination.Config
}

// NewManager creates the case lifecycle manager over the given store.
func NewManager(
	store Store,
	notifier Notifier,
	cfg Config,
	logger *slog.Logger,
	pageCfg pagination.Config,
) System {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 10 * time.Minute
	}
	return &manager{
		store:      store,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger.With("system", "cases"),
		pagination: pageCfg,
	}
}

func (m *manager) Handler() *Handler {
	return NewHandler(m, m.logger, m.pagination)
}

// Create allocates a new case in status open with its initial history entry.
// An identical report from the same citizen inside the dedup window fails
// with a DuplicateError carrying the existing case id.
func (m *manager) Create(
	ctx context.Context,
	category schemas.Category,
	report map[string]string,
	citizenRef string,
) (*Case, error) {
	digest := reportDigest(category, report)

	existing, err := m.store.FindRecentDuplicate(ctx, citizenRef, digest, m.cfg.DedupWindow)
	if err == nil {
		return nil, &DuplicateError{CaseID: existing.ID}
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check duplicate submission: %w", err)
	}

	c := &Case{
		ID:         uuid.New(),
		Category:   category,
		Report:     report,
		Status:     StatusOpen,
		CitizenRef: citizenRef,
		History: []HistoryEntry{{
			Status:    StatusOpen,
			Actor:     citizenRef,
			Timestamp: time.Now().UTC(),
		}},
	}

	if err := m.store.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	m.logger.Info("case created",
		"id", c.ID,
		"category", c.Category,
		"citizen_ref", c.CitizenRef,
	)
	m.notifier.CaseCreated(ctx, c)
	return c, nil
}

// Assign moves an open case to assigned and records the authority.
func (m *manager) Assign(ctx context.Context, id uuid.UUID, authorityRef string) (*Case, error) {
	current, err := m.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusOpen {
		return nil, fmt.Errorf("%w: assign from %s", ErrInvalidTransition, current.Status)
	}

	return m.swap(ctx, current, Change{
		Status:       StatusAssigned,
		Actor:        authorityRef,
		AuthorityRef: &authorityRef,
	})
}

// SetStatus validates new status against the transition table and applies it
// atomically with its history append. Racing callers serialize on the stored
// status: the first valid transition wins, the loser gets
// ErrConcurrentModification and must re-read.
func (m *manager) SetStatus(ctx context.Context, id uuid.UUID, status Status, actor string) (*Case, error) {
	current, err := m.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	change := Change{Status: status, Actor: actor}
	if current.Status == StatusAssigned && status == StatusOpen {
		// Reopen releases the authority; the case is eligible for reassignment.
		change.ClearAuthRef = true
	}

	return m.swap(ctx, current, change)
}

func (m *manager) Find(ctx context.Context, id uuid.UUID) (*Case, error) {
	return m.store.Find(ctx, id)
}

func (m *manager) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Case], error) {
	page.Normalize(m.pagination)
	return m.store.List(ctx, page, filters)
}

func (m *manager) swap(ctx context.Context, current *Case, change Change) (*Case, error) {
	entry := HistoryEntry{
		Status:    change.Status,
		Actor:     change.Actor,
		Timestamp: time.Now().UTC(),
	}

	updated, err := m.store.CompareAndSwap(ctx, current.ID, current.Status, change, entry)
	if err != nil {
		if errors.Is(err, ErrStale) {
			return nil, fmt.Errorf("%w: %s", ErrConcurrentModification, current.ID)
		}
		return nil, fmt.Errorf("transition case %s: %w", current.ID, err)
	}

	m.logger.Info("case transitioned",
		"id", updated.ID,
		"from", current.Status,
		"to", updated.Status,
		"actor", change.Actor,
	)
	m.notifier.CaseTransitioned(ctx, updated, current.Status, updated.Status)
	return updated, nil
}

// reportDigest produces a stable digest of a structured report for duplicate
// detection. Keys are sorted so field insertion order never matters.
func reportDigest(category schemas.Category, report map[string]string) string {
	keys := make([]string, 0, len(report))
	for k := range report {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	sb.WriteString(string(category))
	for _, k := range keys {
		sb.WriteString("\x1f")
		sb.WriteString(k)
		sb.WriteString("\x1e")
		sb.WriteString(report[k])
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
