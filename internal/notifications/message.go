package notifications

import (
	"fmt"

	"github.com/danishmustafa86/aidlink/internal/cases"
)

// BuildPayload renders the recipient-facing subject and body for a transition.
// Wording follows the citizen status-update mails the service has always sent.
func BuildPayload(c *cases.Case, tr Transition, rc RecipientClass) Payload {
	p := Payload{
		CaseID:     c.ID,
		Category:   c.Category,
		Transition: tr.String(),
	}

	if rc == RecipientAuthority {
		p.Subject = fmt.Sprintf("AidLink: %s case %s is %s", c.Category, shortID(c), tr.To)
		p.Body = authorityBody(c, tr)
		return p
	}

	p.Subject = fmt.Sprintf("AidLink: your %s emergency case status update", c.Category)
	p.Body = citizenBody(c, tr)
	return p
}

func authorityBody(c *cases.Case, tr Transition) string {
	switch {
	case tr.From == "":
		return fmt.Sprintf(
			"A new %s emergency case %s has been filed and awaits assignment.",
			c.Category, c.ID,
		)
	case tr.To == cases.StatusOpen:
		return fmt.Sprintf(
			"The citizen reported that %s case %s is not resolved. The case has been reopened and awaits reassignment.",
			c.Category, c.ID,
		)
	default:
		return fmt.Sprintf("Case %s moved to %s.", c.ID, tr.To)
	}
}

func citizenBody(c *cases.Case, tr Transition) string {
	switch tr.To {
	case cases.StatusAssigned:
		return fmt.Sprintf(
			"Your %s emergency case %s has been assigned to the responsible authorities and is now being worked. "+
				"If this is a life-threatening emergency, call your local emergency number immediately.",
			c.Category, c.ID,
		)
	case cases.StatusResolved:
		return fmt.Sprintf(
			"Your %s emergency case %s has been marked resolved. Thank you for confirming.",
			c.Category, c.ID,
		)
	case cases.StatusOpen:
		if tr.From == "" {
			return fmt.Sprintf(
				"Your %s emergency case %s has been filed. The responsible authorities have been notified.",
				c.Category, c.ID,
			)
		}
		return fmt.Sprintf(
			"Your %s emergency case %s has been reopened and the authorities have been re-notified.",
			c.Category, c.ID,
		)
	default:
		return fmt.Sprintf("Your case %s moved to %s.", c.ID, tr.To)
	}
}

func shortID(c *cases.Case) string {
	id := c.ID.String()
	return id[:8]
}
