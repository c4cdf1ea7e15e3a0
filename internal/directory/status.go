package directory

import (
	"fmt"
	"time"

	"github.com/pdxmph/leadbox/internal/crm"
)

// AuditAuthor is the author recorded on system-generated audit notes
const AuditAuthor = "system"

// Transition is one lead status change
type Transition struct {
	ContactID string
	From      crm.LeadStatus
	To        crm.LeadStatus
	At        time.Time
}

// AuditText is the body of the audit note recorded for the transition
func (t Transition) AuditText() string {
	return fmt.Sprintf("Status changed: %s → %s", t.From, t.To)
}

// CanTransition reports whether a lead may move from one status to another.
// Every status can reach every other, including reopening closed or lost leads.
func CanTransition(from, to crm.LeadStatus) bool {
	return from.Valid() && to.Valid()
}

// newTransition validates a status change for contact id
func newTransition(id string, from, to crm.LeadStatus, at time.Time) (Transition, error) {
	if !to.Valid() {
		return Transition{}, fmt.Errorf("%w: lead status %q", crm.ErrInvalidEnum, to)
	}
	if !CanTransition(from, to) {
		return Transition{}, fmt.Errorf("transition %s → %s not allowed", from, to)
	}
	return Transition{ContactID: id, From: from, To: to, At: at}, nil
}

// auditNote builds the timeline entry for a transition
func auditNote(id string, t Transition) crm.Note {
	return crm.Note{
		ID:        id,
		ContactID: t.ContactID,
		Author:    AuditAuthor,
		Body:      t.AuditText(),
		Kind:      crm.NoteAudit,
		CreatedAt: t.At,
	}
}
