package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/schemas"
)

// ClassifyNode returns a state node that assigns the session's category. An
// explicit valid hint wins without a gateway call. Low confidence earns one
// menu re-prompt; the next undecided classification defaults to the model's
// best guess. Gateway failure answers the turn with a retry prompt instead of
// failing the session.
func ClassifyNode(e *engine) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		session, err := extractSession(s)
		if err != nil {
			return s, fmt.Errorf("classify: %w", err)
		}

		if session.Classified() {
			return s, nil
		}

		if c, ok := hintCategory(s); ok {
			session.Category = c
			e.logger.Info("session classified", "id", session.ID, "category", c, "source", "hint")
			return s, nil
		}

		resp, err := completeWithReask[classifyResponse](ctx, e.gateway, classifyInstructions(), session.Turns)
		if err != nil {
			if errors.Is(err, gateway.ErrUpstreamUnavailable) {
				s = s.Set(KeyReply, tryAgainPrompt)
				return s, nil
			}
			e.logger.Warn("classification unparseable", "id", session.ID, "error", err)
			s = s.Set(KeyReply, clarifyPrompt)
			return s, nil
		}

		guess, decided := decideCategory(resp, e.cfg.ConfidenceThreshold)

		if !decided && session.UnclearPrompts == 0 {
			session.UnclearPrompts++
			s = s.Set(KeyReply, menuPrompt())
			return s, nil
		}

		// The one menu re-prompt is spent; take the best guess.
		if guess == schemas.CategoryUnclassified {
			s = s.Set(KeyReply, clarifyPrompt)
			return s, nil
		}

		session.Category = guess
		e.logger.Info("session classified",
			"id", session.ID,
			"category", guess,
			"confidence", resp.Confidence,
			"decided", decided,
		)
		return s, nil
	})
}
