package cases

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/pkg/handlers"
	"github.com/danishmustafa86/aidlink/pkg/pagination"
	"github.com/danishmustafa86/aidlink/pkg/routes"
)

// Handler provides HTTP endpoints for case operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// AssignCommand carries the data needed to assign a case to an authority.
type AssignCommand struct {
	AuthorityRef string `json:"authority_ref"`
}

// StatusCommand carries the data needed to transition a case.
type StatusCommand struct {
	Status Status `json:"status"`
	Actor  string `json:"actor"`
}

// StatusSummary is the citizen-facing view of a case: current status plus a
// human-readable audit trail, without the full structured report.
type StatusSummary struct {
	CaseID  uuid.UUID `json:"case_id"`
	Status  Status    `json:"status"`
	History []string  `json:"history"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pageCfg pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "cases"),
		pagination: pageCfg,
	}
}

// Routes returns the route group definition for case endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/cases",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/status", Handler: h.CitizenStatus},
			{Method: "POST", Pattern: "/{id}/assign", Handler: h.Assign},
			{Method: "PUT", Pattern: "/{id}/status", Handler: h.UpdateStatus},
		},
	}
}

// List returns a paginated list of cases with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single case by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// CitizenStatus returns the status summary for the citizen who filed the case.
// A citizen_ref mismatch reads as not found rather than leaking the case.
func (h *Handler) CitizenStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if c.CitizenRef != r.URL.Query().Get("citizen_ref") {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, Summarize(c))
}

// Assign moves an open case to assigned for the requesting authority.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd AssignCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil || cmd.AuthorityRef == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("authority_ref required"))
		return
	}

	c, err := h.sys.Assign(r.Context(), id, cmd.AuthorityRef)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// UpdateStatus applies a status transition on behalf of the given actor.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	var cmd StatusCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if cmd.Actor == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("actor required"))
		return
	}

	c, err := h.sys.SetStatus(r.Context(), id, cmd.Status, cmd.Actor)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Summarize renders a case's audit trail as citizen-readable lines.
func Summarize(c *Case) StatusSummary {
	history := make([]string, len(c.History))
	for i, e := range c.History {
		history[i] = fmt.Sprintf(
			"%s: %s (by %s)",
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			e.Status,
			e.Actor,
		)
	}

	return StatusSummary{
		CaseID:  c.ID,
		Status:  c.Status,
		History: history,
	}
}
