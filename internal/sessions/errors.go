package sessions

import (
	"errors"
	"net/http"
)

// Domain errors for session operations.
var (
	ErrNotFound = errors.New("session not found")
	// ErrArchived indicates a write against a complete or abandoned session.
	// Late results from in-flight gateway calls land here and are discarded.
	ErrArchived = errors.New("session archived")
)

// MapHTTPStatus maps session domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrArchived) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
