// Package intake implements the triage conversation engine: classify the
// citizen's emergency, interview for the category's schema fields one turn at
// a time, and hand the completed report to the case lifecycle manager. Each
// turn executes as a state graph pass (classify, collect, finalize) over the
// session loaded for that turn.
package intake

import (
	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/schemas"
	"github.com/danishmustafa86/aidlink/internal/sessions"
)

// State graph keys.
const (
	KeySession = "session"
	KeyText    = "text"
	KeyHint    = "hint"
	KeyReply   = "reply"
	KeyCaseID  = "case_id"
)

// TurnCommand is one inbound citizen turn. A nil SessionID starts a new
// session; CategoryHint short-circuits classification when it names a valid
// category.
type TurnCommand struct {
	SessionID    *uuid.UUID `json:"session_id"`
	CitizenRef   string     `json:"citizen_ref"`
	CategoryHint string     `json:"category_hint"`
	Text         string     `json:"text"`
}

// TurnResult is the engine's answer to one turn. CaseID is set only when the
// session completed and produced (or deduplicated into) a case.
type TurnResult struct {
	SessionID  uuid.UUID        `json:"session_id"`
	Status     sessions.Status  `json:"status"`
	Category   schemas.Category `json:"category"`
	NextPrompt string           `json:"next_prompt,omitempty"`
	CaseID     *uuid.UUID       `json:"case_id,omitempty"`
}

// classifyResponse is the gateway contract for category triage.
type classifyResponse struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// extractResponse is the gateway contract for slot filling: any schema fields
// found in the utterance plus the next question to ask.
type extractResponse struct {
	Fields map[string]string `json:"fields"`
	Reply  string            `json:"reply"`
}

// decideCategory maps a classifier response to a category. Pure: identical
// inputs always produce the same decision. An unknown token or confidence
// below the threshold is undecided; the guess is still returned so the
// caller can default to it after the one menu re-prompt.
func decideCategory(resp classifyResponse, threshold float64) (guess schemas.Category, decided bool) {
	c, err := schemas.ParseCategory(resp.Category)
	if err != nil {
		return schemas.CategoryUnclassified, false
	}
	return c, resp.Confidence >= threshold
}
