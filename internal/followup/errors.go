package followup

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates no follow-up cycle exists for the case.
	ErrNotFound = errors.New("follow-up not found")

	// ErrNotRequestable indicates the case is not in a state where resolution
	// confirmation makes sense.
	ErrNotRequestable = errors.New("case is not awaiting resolution confirmation")

	// ErrClosed indicates the follow-up cycle already concluded.
	ErrClosed = errors.New("follow-up already closed")
)

// MapHTTPStatus maps follow-up errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotRequestable), errors.Is(err, ErrClosed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
