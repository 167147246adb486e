package notifications

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danishmustafa86/aidlink/pkg/handlers"
	"github.com/danishmustafa86/aidlink/pkg/routes"
)

// Handler provides HTTP endpoints for the citizen notification feed.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "notifications"),
	}
}

// Routes returns the route group definition for notification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/notifications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Feed},
		},
	}
}

// Feed returns the citizen's notification events, newest first.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	citizenRef := r.URL.Query().Get("citizen_ref")
	if citizenRef == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("citizen_ref required"))
		return
	}

	events, err := h.sys.Feed(r.Context(), citizenRef)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []Event{}
	}

	handlers.RespondJSON(w, http.StatusOK, events)
}
