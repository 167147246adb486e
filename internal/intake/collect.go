package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/internal/sessions"
)

// CollectNode returns a state node that runs one slot-filling exchange:
// extract schema fields from the latest utterance, merge what validates,
// and ask for the highest-priority missing field. Consecutive turns yielding
// nothing extractable count toward the abandonment bound; completion is
// declared the first turn every required field passes validation.
func CollectNode(e *engine) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		session, err := extractSession(s)
		if err != nil {
			return s, fmt.Errorf("collect: %w", err)
		}

		schema, err := schemas.For(session.Category)
		if err != nil {
			return s, fmt.Errorf("collect: %w", err)
		}

		instructions := collectInstructions(schema, session.Collected)
		resp, err := completeWithReask[extractResponse](ctx, e.gateway, instructions, session.Turns)
		if err != nil {
			// Gateway trouble never charges the citizen an idle turn.
			if errors.Is(err, gateway.ErrUpstreamUnavailable) {
				s = s.Set(KeyReply, tryAgainPrompt)
				return s, nil
			}
			e.logger.Warn("extraction unparseable", "id", session.ID, "error", err)
			s = s.Set(KeyReply, askFor(schema, session.Collected))
			return s, nil
		}

		accepted, rejected := session.Merge(schema, resp.Fields)
		if len(rejected) > 0 {
			e.logger.Info("extracted values rejected",
				"id", session.ID,
				"fields", rejected,
			)
		}

		if len(accepted) == 0 {
			session.IdleTurns++
		} else {
			session.IdleTurns = 0
		}

		if session.IdleTurns >= e.cfg.MaxIdleTurns {
			session.Status = sessions.StatusAbandoned
			s = s.Set(KeyReply, abandonedReply)
			return s, nil
		}

		if schema.Complete(session.Collected) {
			session.Status = sessions.StatusComplete
			return s, nil
		}

		reply := resp.Reply
		if reply == "" {
			reply = askFor(schema, session.Collected)
		}
		s = s.Set(KeyReply, reply)
		return s, nil
	})
}
