// Package cases implements the case lifecycle domain for AidLink. It owns the
// durable case record, the status state machine, and the serialized
// compare-and-swap discipline that keeps concurrent citizen, authority, and
// follow-up updates from trampling each other.
package cases

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/danishmustafa86/aidlink/internal/schemas"
)

// Status is the case lifecycle state.
type Status string

// Case lifecycle states.
const (
	StatusOpen     Status = "open"
	StatusAssigned Status = "assigned"
	StatusResolved Status = "resolved"
)

// transitions is the legal edge table. Resolved is terminal; the only reopen
// edge is assigned → open, taken when a citizen disputes resolution.
var transitions = map[Status][]Status{
	StatusOpen:     {StatusAssigned, StatusResolved},
	StatusAssigned: {StatusResolved, StatusOpen},
	StatusResolved: {},
}

var statuses = []Status{StatusOpen, StatusAssigned, StatusResolved}

// CanTransition reports whether from → to is a legal edge.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// ParseStatus validates a string as a case status.
func ParseStatus(s string) (Status, error) {
	v := Status(s)
	if !slices.Contains(statuses, v) {
		return "", ErrInvalidStatus
	}
	return v, nil
}

// UnmarshalJSON validates that the decoded string is a known status value.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// HistoryEntry is one audit-trail record. The history is append-only: every
// status transition appends exactly one entry atomically with the status write.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// Case is the durable record created when an intake session completes.
// Cases are never physically deleted; terminal states are retained for audit.
type Case struct {
	ID                   uuid.UUID         `json:"id"`
	Category             schemas.Category  `json:"category"`
	Report               map[string]string `json:"report"`
	Status               Status            `json:"status"`
	CitizenRef           string            `json:"citizen_ref"`
	AssignedAuthorityRef *string           `json:"assigned_authority_ref"`
	History              []HistoryEntry    `json:"history"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// Change describes one status transition to apply via compare-and-swap.
type Change struct {
	Status       Status
	Actor        string
	AuthorityRef *string
	ClearAuthRef bool
}
