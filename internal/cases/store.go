package cases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/pkg/pagination"
)

// ErrStale is returned by CompareAndSwap when the stored status no longer
// matches the expected status. The manager translates it into
// ErrConcurrentModification.
var ErrStale = errors.New("case status changed since read")

// Store is the persistence collaborator for cases. Implementations must make
// CompareAndSwap atomic: the status write and its history append become
// visible together or not at all, and a swap against a stale expected status
// fails with ErrStale.
type Store interface {
	Insert(ctx context.Context, c *Case) error
	Find(ctx context.Context, id uuid.UUID) (*Case, error)
	// FindRecentDuplicate returns a case created by citizenRef with the same
	// report digest inside the window, or ErrNotFound.
	FindRecentDuplicate(ctx context.Context, citizenRef, digest string, window time.Duration) (*Case, error)
	CompareAndSwap(ctx context.Context, id uuid.UUID, expected Status, change Change, entry HistoryEntry) (*Case, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Case], error)
}
