// Package sessions implements the conversation session record for AidLink.
// A session is one citizen's in-progress intake conversation: an append-only
// turn history plus the validated fields collected so far. Sessions are owned
// exclusively by the intake engine; once complete or abandoned they are
// archived and refuse further writes.
package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/gateway"
	"github.com/danishmustafa86/aidlink/internal/schemas"
)

// Status is the session lifecycle state.
type Status string

// Session lifecycle states. Complete and Abandoned are archive states.
const (
	StatusCollecting Status = "collecting"
	StatusComplete   Status = "complete"
	StatusAbandoned  Status = "abandoned"
)

// Session is one intake conversation. Turns is append-only; Collected holds
// only values that passed their field validators and is always a subset of
// the category's declared schema.
type Session struct {
	ID             uuid.UUID         `json:"id"`
	CitizenRef     string            `json:"citizen_ref"`
	Category       schemas.Category  `json:"category"`
	Status         Status            `json:"status"`
	Turns          []gateway.Turn    `json:"turns"`
	Collected      map[string]string `json:"collected"`
	IdleTurns      int               `json:"idle_turns"`
	UnclearPrompts int               `json:"unclear_prompts"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewSession creates an unclassified collecting session for a citizen.
func NewSession(citizenRef string) *Session {
	return &Session{
		ID:         uuid.New(),
		CitizenRef: citizenRef,
		Category:   schemas.CategoryUnclassified,
		Status:     StatusCollecting,
		Collected:  make(map[string]string),
	}
}

// AppendTurn records one exchange at the end of the turn history.
func (s *Session) AppendTurn(role, text string) {
	s.Turns = append(s.Turns, gateway.Turn{Role: role, Text: text})
}

// Merge applies extracted field values against the schema. A value is stored
// only when the field exists in the schema and passes its validator; invalid
// or unknown values are discarded and reported back so the field stays
// outstanding. Returns the names of accepted and rejected fields.
func (s *Session) Merge(schema *schemas.Schema, extracted map[string]string) (accepted, rejected []string) {
	for name, value := range extracted {
		if err := schema.Validate(name, value); err != nil {
			rejected = append(rejected, name)
			continue
		}
		s.Collected[name] = value
		accepted = append(accepted, name)
	}
	return accepted, rejected
}

// Classified reports whether triage has assigned a category.
func (s *Session) Classified() bool {
	return s.Category != schemas.CategoryUnclassified
}

// Archived reports whether the session no longer accepts turns.
func (s *Session) Archived() bool {
	return s.Status != StatusCollecting
}
