package intake

import (
	"errors"
	"net/http"

	"github.com/danishmustafa86/aidlink/internal/sessions"
)

// ErrInvalidTurn indicates a turn command missing required fields.
var ErrInvalidTurn = errors.New("invalid turn")

// MapHTTPStatus maps intake errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidTurn):
		return http.StatusBadRequest
	case errors.Is(err, sessions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrArchived):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
