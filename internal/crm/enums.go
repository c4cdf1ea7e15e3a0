package crm

import "fmt"

// LeadStatus is the pipeline stage of a contact
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusFollowUp  LeadStatus = "follow-up"
	StatusScheduled LeadStatus = "scheduled"
	StatusClosed    LeadStatus = "closed"
	StatusLost      LeadStatus = "lost"
)

// LeadStatuses lists every status in pipeline order
var LeadStatuses = []LeadStatus{
	StatusNew,
	StatusFollowUp,
	StatusScheduled,
	StatusClosed,
	StatusLost,
}

// Valid reports whether s is one of the five pipeline stages
func (s LeadStatus) Valid() bool {
	switch s {
	case StatusNew, StatusFollowUp, StatusScheduled, StatusClosed, StatusLost:
		return true
	}
	return false
}

// Label returns the display label shown on the status badge
func (s LeadStatus) Label() string {
	switch s {
	case StatusNew:
		return "Nuevo Lead"
	case StatusFollowUp:
		return "En seguimiento"
	case StatusScheduled:
		return "Visita agendada"
	case StatusClosed:
		return "Cliente cerrado"
	case StatusLost:
		return "Perdido"
	}
	return string(s)
}

// ParseLeadStatus converts a tag into a LeadStatus
func ParseLeadStatus(s string) (LeadStatus, error) {
	status := LeadStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: lead status %q", ErrInvalidEnum, s)
	}
	return status, nil
}

// Presence is the conversation state shown next to a contact in the list
type Presence string

const (
	PresenceTyping    Presence = "typing"
	PresenceResponded Presence = "responded"
	PresenceUnread    Presence = "unread"
	PresenceNone      Presence = "none"
)

func (p Presence) Valid() bool {
	switch p {
	case PresenceTyping, PresenceResponded, PresenceUnread, PresenceNone:
		return true
	}
	return false
}

// ParsePresence converts a tag into a Presence
func ParsePresence(s string) (Presence, error) {
	p := Presence(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: presence %q", ErrInvalidEnum, s)
	}
	return p, nil
}

// NoteKind separates agent-written notes from system audit entries
type NoteKind string

const (
	NoteManual NoteKind = "manual"
	NoteAudit  NoteKind = "audit"
)

func (k NoteKind) Valid() bool {
	return k == NoteManual || k == NoteAudit
}

// ParseNoteKind converts a tag into a NoteKind
func ParseNoteKind(s string) (NoteKind, error) {
	k := NoteKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: note kind %q", ErrInvalidEnum, s)
	}
	return k, nil
}

// AttachmentKind is the type of an item shared with a contact
type AttachmentKind string

const (
	AttachmentFile     AttachmentKind = "file"
	AttachmentLink     AttachmentKind = "link"
	AttachmentDocument AttachmentKind = "document"
)

// AttachmentKinds lists kinds in the order the info panel groups them
var AttachmentKinds = []AttachmentKind{AttachmentFile, AttachmentLink, AttachmentDocument}

func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachmentFile, AttachmentLink, AttachmentDocument:
		return true
	}
	return false
}

// ParseAttachmentKind converts a tag into an AttachmentKind
func ParseAttachmentKind(s string) (AttachmentKind, error) {
	k := AttachmentKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: attachment kind %q", ErrInvalidEnum, s)
	}
	return k, nil
}

// Channel is where a conversation with the contact takes place
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelLiveChat Channel = "liveChat"
)

func (c Channel) Valid() bool {
	return c == ChannelWhatsApp || c == ChannelLiveChat
}

// ParseChannel converts a tag into a Channel
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: channel %q", ErrInvalidEnum, s)
	}
	return c, nil
}

// Filter is a named predicate over the contact list
type Filter string

const (
	FilterAll          Filter = "all"
	FilterAssignedToMe Filter = "assignedToMe"
	FilterUnassigned   Filter = "unassigned"
	FilterLiveChat     Filter = "liveChat"
	FilterBlocked      Filter = "blocked"
	FilterTrash        Filter = "trash"
)

// Filters lists the built-in filters in sidebar order
var Filters = []Filter{
	FilterAll,
	FilterAssignedToMe,
	FilterUnassigned,
	FilterLiveChat,
	FilterBlocked,
	FilterTrash,
}

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterAssignedToMe, FilterUnassigned, FilterLiveChat, FilterBlocked, FilterTrash:
		return true
	}
	return false
}

// Label returns the sidebar label for the filter
func (f Filter) Label() string {
	switch f {
	case FilterAll:
		return "All"
	case FilterAssignedToMe:
		return "Assigned to Me"
	case FilterUnassigned:
		return "Unassigned"
	case FilterLiveChat:
		return "Live Chat"
	case FilterBlocked:
		return "Blocked"
	case FilterTrash:
		return "Trash"
	}
	return string(f)
}

// ParseFilter converts a tag into a Filter
func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: filter %q", ErrInvalidEnum, s)
	}
	return f, nil
}
