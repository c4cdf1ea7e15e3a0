// Package crm defines the records shared by the directory, the filter engine
// and the views: contacts, notes, attachments and property interests.
package crm

import (
	"fmt"
	"time"
)

// Contact represents a prospective or existing client in the inbox
type Contact struct {
	ID            string
	Name          string
	AvatarURL     string
	Phone         string
	Email         string
	LastMessage   string
	LastActivity  time.Time
	Presence      Presence
	Status        LeadStatus
	AssignedAgent string // empty when unassigned
	Channel       Channel
	Blocked       bool
	Deleted       bool // in the trash, still part of the directory
	CreatedAt     time.Time
}

// Note is an entry on a contact's timeline
type Note struct {
	ID        string
	ContactID string
	Author    string
	Body      string
	Kind      NoteKind
	CreatedAt time.Time
}

// Attachment is a file, link or document shared with a contact
type Attachment struct {
	ID        string
	ContactID string
	Name      string
	SizeBytes int64
	Kind      AttachmentKind
	URL       string
	SharedAt  time.Time
}

// Property is a listing the contact has shown interest in
type Property struct {
	ID        string
	ContactID string
	Title     string
	Bedrooms  int
	Bathrooms int
	AreaM2    int
	PriceEUR  int64
}

// NewContact builds a validated contact with the initial lead status
func NewContact(id, name, phone string, presence Presence) (Contact, error) {
	c := Contact{
		ID:       id,
		Name:     name,
		Phone:    phone,
		Presence: presence,
		Status:   StatusNew,
		Channel:  ChannelWhatsApp,
	}
	if err := c.Validate(); err != nil {
		return Contact{}, err
	}
	return c, nil
}

// Validate rejects contacts missing an id or phone, or carrying an
// unknown presence, status or channel.
func (c Contact) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedContact)
	}
	if c.Phone == "" {
		return fmt.Errorf("%w: contact %s has no phone number", ErrMalformedContact, c.ID)
	}
	if !c.Presence.Valid() {
		return fmt.Errorf("%w: contact %s: %w", ErrMalformedContact, c.ID,
			fmt.Errorf("%w: presence %q", ErrInvalidEnum, c.Presence))
	}
	if c.Status != "" && !c.Status.Valid() {
		return fmt.Errorf("%w: contact %s: %w", ErrMalformedContact, c.ID,
			fmt.Errorf("%w: lead status %q", ErrInvalidEnum, c.Status))
	}
	if c.Channel != "" && !c.Channel.Valid() {
		return fmt.Errorf("%w: contact %s: %w", ErrMalformedContact, c.ID,
			fmt.Errorf("%w: channel %q", ErrInvalidEnum, c.Channel))
	}
	return nil
}

// IsAssigned reports whether an agent owns the contact
func (c Contact) IsAssigned() bool {
	return c.AssignedAgent != ""
}

// Validate rejects attachments with no name or an unknown kind
func (a Attachment) Validate() error {
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: attachment kind %q", ErrInvalidEnum, a.Kind)
	}
	if a.Name == "" {
		return fmt.Errorf("attachment has no name")
	}
	return nil
}

// SizeLabel formats the byte size the way the info panel shows it
func (a Attachment) SizeLabel() string {
	const (
		kb = 1 << 10
		mb = 1 << 20
	)
	switch {
	case a.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(a.SizeBytes)/mb)
	case a.SizeBytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(a.SizeBytes)/kb)
	default:
		return fmt.Sprintf("%d B", a.SizeBytes)
	}
}

// Summary returns the one-line room/bath/area description of a listing
func (p Property) Summary() string {
	return fmt.Sprintf("%d hab. | %d baños | %dm²", p.Bedrooms, p.Bathrooms, p.AreaM2)
}
