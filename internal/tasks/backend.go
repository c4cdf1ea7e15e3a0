package tasks

import (
	"time"

	"github.com/pdxmph/leadbox/internal/crm"
)

// Task represents a follow-up task in any backend system
type Task struct {
	ID          string // Backend-specific ID (could be int as string, UUID, etc.)
	Description string
	Status      string // pending, completed, etc.
	Tags        []string
	Created     time.Time
	Due         *time.Time // Optional due date
}

// Lead is the contact a follow-up task is created for
type Lead struct {
	ContactID string
	Name      string
	Phone     string
	Status    crm.LeadStatus
}

// Backend defines the interface that all task management backends must implement
type Backend interface {
	// Name returns the backend identifier (e.g., "taskwarrior", "noop")
	Name() string

	// IsEnabled checks if the backend is available and properly configured
	IsEnabled() bool

	// CreateFollowUp creates a task for a lead that entered status lead.Status
	CreateFollowUp(lead Lead) error

	// ListFollowUps retrieves the pending tasks created for a contact
	ListFollowUps(contactID string) ([]Task, error)
}

// BackendFactory is a function that creates a new instance of a Backend
type BackendFactory func() Backend

// NeedsFollowUp reports whether entering status s should create a task
func NeedsFollowUp(s crm.LeadStatus) bool {
	switch s {
	case crm.StatusFollowUp, crm.StatusScheduled:
		return true
	}
	return false
}

// Describe returns the task description for a lead in its current status
func Describe(lead Lead) string {
	switch lead.Status {
	case crm.StatusFollowUp:
		return "Follow up with " + lead.Name + " (" + lead.Phone + ")"
	case crm.StatusScheduled:
		return "Prepare viewing with " + lead.Name
	default:
		return lead.Status.Label() + ": " + lead.Name
	}
}
