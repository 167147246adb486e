package followup

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/pkg/handlers"
	"github.com/danishmustafa86/aidlink/pkg/routes"
)

// Handler provides HTTP endpoints for follow-up operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// RequestCommand carries the authority's completion signal.
type RequestCommand struct {
	AuthorityRef string `json:"authority_ref"`
}

// ReplyCommand carries the citizen's confirmation turn.
type ReplyCommand struct {
	CitizenRef string `json:"citizen_ref"`
	Text       string `json:"text"`
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "followup"),
	}
}

// Routes returns the route group definition for follow-up endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/followups",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{id}/request", Handler: h.Request},
			{Method: "POST", Pattern: "/{id}/reply", Handler: h.Reply},
		},
	}
}

// Request starts the resolution confirmation cycle for a case.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, cases.ErrNotFound)
		return
	}

	var cmd RequestCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.AuthorityRef == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("authority_ref required"))
		return
	}

	f, err := h.sys.RequestResolution(r.Context(), id, cmd.AuthorityRef)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, f)
}

// Reply processes the citizen's confirmation reply.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, cases.ErrNotFound)
		return
	}

	var cmd ReplyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.CitizenRef == "" || cmd.Text == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("citizen_ref and text required"))
		return
	}

	reply, err := h.sys.HandleReply(r.Context(), id, cmd.CitizenRef, cmd.Text)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, reply)
}

// mapStatus tries case error mapping first since resolver operations surface
// case lifecycle errors directly.
func mapStatus(err error) int {
	if status := cases.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return MapHTTPStatus(err)
}
