package cases

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// Domain errors for case operations.
var (
	ErrNotFound      = errors.New("case not found")
	ErrInvalidStatus = errors.New("invalid case status")
	// ErrInvalidTransition rejects an edge outside the state machine table.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConcurrentModification rejects the loser of a transition race;
	// the caller must re-read current state before retrying.
	ErrConcurrentModification = errors.New("case modified concurrently")
	// ErrDuplicateSubmission rejects an identical report from the same citizen
	// inside the dedup window.
	ErrDuplicateSubmission = errors.New("duplicate submission")
)

// DuplicateError wraps ErrDuplicateSubmission and carries the id of the
// existing case so callers can return it instead of creating a second one.
type DuplicateError struct {
	CaseID uuid.UUID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate submission of case %s", e.CaseID)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateSubmission
}

// MapHTTPStatus maps case domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConcurrentModification):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
