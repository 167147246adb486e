package cases

import (
	"context"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/pkg/pagination"
)

// System defines the public contract for case lifecycle operations.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, category schemas.Category, report map[string]string, citizenRef string) (*Case, error)
	Assign(ctx context.Context, id uuid.UUID, authorityRef string) (*Case, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, actor string) (*Case, error)
	Find(ctx context.Context, id uuid.UUID) (*Case, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Case], error)
}

// Notifier receives lifecycle events after a case mutation commits.
// The notification dispatcher implements it; tests use a recording double.
type Notifier interface {
	CaseCreated(ctx context.Context, c *Case)
	CaseTransitioned(ctx context.Context, c *Case, from, to Status)
}

// NoopNotifier discards lifecycle events.
type NoopNotifier struct{}

func (NoopNotifier) CaseCreated(context.Context, *Case)                   {}
func (NoopNotifier) CaseTransitioned(context.Context, *Case, Status, Status) {}
