package followup

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists follow-up cycles.
type Store interface {
	// Request creates a pending cycle for the case, or restarts a closed one.
	// An open cycle is returned unchanged, so repeated requests are idempotent.
	Request(ctx context.Context, caseID uuid.UUID) (*Followup, error)

	// Find returns the case's cycle, ErrNotFound when none exists.
	Find(ctx context.Context, caseID uuid.UUID) (*Followup, error)

	// MarkReminded moves a pending cycle to reminded. Returns false without
	// error when the cycle is no longer pending.
	MarkReminded(ctx context.Context, caseID uuid.UUID) (bool, error)

	// Close concludes the cycle. Closing an already closed cycle is a no-op.
	Close(ctx context.Context, caseID uuid.UUID) error

	// ListPendingBefore returns pending cycles requested at or before the
	// cutoff, oldest first, capped at limit.
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]Followup, error)
}
