package intake

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danishmustafa86/aidlink/pkg/handlers"
	"github.com/danishmustafa86/aidlink/pkg/routes"
)

// Handler provides HTTP endpoints for intake operations.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "intake"),
	}
}

// Routes returns the route group definition for intake endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/intake",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/turns", Handler: h.SubmitTurn},
		},
	}
}

// SubmitTurn processes one citizen turn and returns the session's next state.
func (h *Handler) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	var cmd TurnCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.SubmitTurn(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
