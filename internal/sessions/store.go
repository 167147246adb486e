package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence collaborator for sessions. Implementations must
// guarantee that Update writes only while the stored status is still
// collecting, so a racing write against an archived session fails with
// ErrArchived instead of resurrecting it.
type Store interface {
	Insert(ctx context.Context, s *Session) error
	Find(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, s *Session) error

	// ListIdleBefore returns collecting sessions whose last activity is at or
	// before the cutoff, oldest first, capped at limit.
	ListIdleBefore(ctx context.Context, cutoff time.Time, limit int) ([]Session, error)
}
