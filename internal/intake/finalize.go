package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/sessions"
)

// FinalizeNode returns a state node that records the assistant's reply and
// persists the session. A completed session hands its report to the case
// lifecycle manager exactly once: a duplicate submission inside the dedup
// window resolves to the existing case id, and the session archives either
// way.
func FinalizeNode(e *engine) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		session, err := extractSession(s)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		if session.Status == sessions.StatusComplete {
			caseID, err := e.fileCase(ctx, session)
			if err != nil {
				return s, fmt.Errorf("finalize: %w", err)
			}
			s = s.Set(KeyCaseID, caseID)
			s = s.Set(KeyReply, fmt.Sprintf(
				"Thank you. Your %s report has been filed as case %s. Responders have been notified.",
				session.Category, caseID,
			))
		}

		if val, ok := s.Get(KeyReply); ok {
			if reply, ok := val.(string); ok && reply != "" {
				session.AppendTurn(gateway.RoleAssistant, reply)
			}
		}

		if err := e.store.Update(ctx, session); err != nil {
			// A write racing an archive is discarded, not an error.
			if errors.Is(err, sessions.ErrArchived) {
				e.logger.Info("late session write discarded", "id", session.ID)
				return s, nil
			}
			return s, fmt.Errorf("finalize: %w", err)
		}

		return s, nil
	})
}

func (e *engine) fileCase(ctx context.Context, session *sessions.Session) (caseID uuid.UUID, err error) {
	c, err := e.cases.Create(ctx, session.Category, session.Collected, session.CitizenRef)
	if err != nil {
		var dup *cases.DuplicateError
		if errors.As(err, &dup) {
			e.logger.Info("duplicate submission resolved",
				"session_id", session.ID,
				"case_id", dup.CaseID,
			)
			return dup.CaseID, nil
		}
		return uuid.Nil, err
	}

	e.logger.Info("case filed",
		"session_id", session.ID,
		"case_id", c.ID,
		"category", c.Category,
	)
	return c.ID, nil
}
