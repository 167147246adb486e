// Package followup re-engages citizens after an authority reports its work
// done. The resolver asks the citizen to confirm resolution, interprets the
// reply, and either resolves or reopens the case. It never resolves a case
// the citizen did not confirm; silence earns one reminder and nothing more.
package followup

import (
	"time"

	"github.com/google/uuid"
)

// State tracks one case's confirmation cycle.
type State string

// Follow-up states.
const (
	// StatePending means the citizen has been asked and not yet replied.
	StatePending State = "pending"
	// StateReminded means the single reminder has been sent.
	StateReminded State = "reminded"
	// StateClosed means the citizen replied, or the cycle was superseded.
	StateClosed State = "closed"
)

// Followup is the confirmation cycle for one case. A case carries at most
// one cycle at a time; re-requesting after a closed cycle starts it over.
type Followup struct {
	CaseID      uuid.UUID  `json:"case_id"`
	State       State      `json:"state"`
	RequestedAt time.Time  `json:"requested_at"`
	RemindedAt  *time.Time `json:"reminded_at"`
}

// Open reports whether the cycle still awaits a citizen reply.
func (f *Followup) Open() bool {
	return f.State == StatePending || f.State == StateReminded
}
