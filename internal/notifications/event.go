// Package notifications implements lifecycle event fan-out for AidLink cases.
// Delivery is at-least-once: an event id is a deterministic function of the
// case and its status transition, so replaying a transition can never mark a
// second delivery, while an undelivered event stays eligible for the retry
// sweep until a send is confirmed.
package notifications

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/cases"
	"github.com/danishmustafa86/aidlink/internal/schemas"
)

// RecipientClass selects the delivery channel for an event.
type RecipientClass string

// Recipient classes.
const (
	RecipientCitizen   RecipientClass = "citizen"
	RecipientAuthority RecipientClass = "authority"
)

// eventNamespace seeds deterministic event ids. Changing it would re-deliver
// every historical transition, so it is fixed.
var eventNamespace = uuid.MustParse("8f3c1a2e-5b7d-4e90-9c41-d2a6f0b8e317")

// Transition describes one status edge. From is empty for case creation.
type Transition struct {
	From cases.Status
	To   cases.Status
}

func (t Transition) String() string {
	if t.From == "" {
		return fmt.Sprintf("created->%s", t.To)
	}
	return fmt.Sprintf("%s->%s", t.From, t.To)
}

// EventID derives the deduplication key for a case transition. Identical
// inputs always produce the same id.
func EventID(caseID uuid.UUID, tr Transition) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(caseID.String()+"|"+tr.String()))
}

// PromptEventID derives the deduplication key for a one-off case prompt,
// keyed by a caller-chosen kind rather than a status transition.
func PromptEventID(caseID uuid.UUID, kind string) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(caseID.String()+"|"+kind))
}

// Payload is the delivered content of a notification event.
type Payload struct {
	CaseID     uuid.UUID        `json:"case_id"`
	Category   schemas.Category `json:"category"`
	Transition string           `json:"transition"`
	Subject    string           `json:"subject"`
	Body       string           `json:"body"`
}

// Event is one pending or delivered notification for one recipient class.
// (EventID, RecipientClass) is the uniqueness key: at most one row per pair
// is ever marked delivered.
type Event struct {
	EventID        uuid.UUID      `json:"event_id"`
	CaseID         uuid.UUID      `json:"case_id"`
	RecipientClass RecipientClass `json:"recipient_class"`
	RecipientRef   string         `json:"recipient_ref"`
	Payload        Payload        `json:"payload"`
	Delivered      bool           `json:"delivered"`
	Attempts       int            `json:"attempts"`
	CreatedAt      time.Time      `json:"created_at"`
	DeliveredAt    *time.Time     `json:"delivered_at"`
}
