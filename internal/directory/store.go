// Package directory holds the authoritative in-memory list of contacts and
// their notes, attachments and property interests.
package directory

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/logger"
)

// Journal persists mutations. Each call happens before the change becomes
// visible in the store; an error aborts the mutation.
type Journal interface {
	AppendNote(note crm.Note) error
	RecordTransition(t Transition, audit crm.Note) error
	AppendAttachment(a crm.Attachment) error
}

// Record is a contact together with its sub-state, as restored from storage
type Record struct {
	Contact     crm.Contact
	Notes       []crm.Note
	Attachments []crm.Attachment
	Properties  []crm.Property
}

type entry struct {
	contact     crm.Contact
	notes       []crm.Note // append order
	attachments []crm.Attachment
	properties  []crm.Property
}

// Store is the contact directory
type Store struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry

	journal Journal
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger

	subMu   sync.Mutex
	subs    []subscriber
	nextSub int
}

// Option configures a Store
type Option func(*Store)

// WithJournal persists every mutation through j
func WithJournal(j Journal) Option {
	return func(s *Store) { s.journal = j }
}

// WithClock overrides the time source used to stamp notes and activity
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the generator for note ids
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty directory
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.Named(s.logger, "directory")
	return s
}

// Load replaces the whole collection with contacts, which start with
// empty timelines.
func (s *Store) Load(contacts []crm.Contact) error {
	records := make([]Record, len(contacts))
	for i, c := range contacts {
		records[i] = Record{Contact: c}
	}
	return s.LoadRecords(records)
}

// LoadRecords replaces the whole collection. Nothing changes if any record
// is malformed or two records share an id.
func (s *Store) LoadRecords(records []Record) error {
	order := make([]string, 0, len(records))
	entries := make(map[string]*entry, len(records))

	for _, r := range records {
		c := r.Contact
		if err := c.Validate(); err != nil {
			return fmt.Errorf("loading directory: %w", err)
		}
		if _, exists := entries[c.ID]; exists {
			return fmt.Errorf("loading directory: %w: %s", crm.ErrDuplicateID, c.ID)
		}
		if c.Status == "" {
			c.Status = crm.StatusNew
		}
		if c.Channel == "" {
			c.Channel = crm.ChannelWhatsApp
		}

		e := &entry{contact: c}
		e.notes = append(e.notes, r.Notes...)
		// Stored notes may arrive in any order; keep append order oldest first
		sort.SliceStable(e.notes, func(i, j int) bool {
			return e.notes[i].CreatedAt.Before(e.notes[j].CreatedAt)
		})
		for _, a := range r.Attachments {
			if err := a.Validate(); err != nil {
				return fmt.Errorf("loading directory: contact %s: %w", c.ID, err)
			}
			e.attachments = append(e.attachments, a)
		}
		e.properties = append(e.properties, r.Properties...)

		order = append(order, c.ID)
		entries[c.ID] = e
	}

	s.mu.Lock()
	s.order = order
	s.entries = entries
	s.mu.Unlock()

	s.logger.Info("directory loaded", "contacts", len(order))
	s.publish(Event{Kind: EventLoaded})
	return nil
}

// Get returns the contact with the given id
func (s *Store) Get(id string) (crm.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return crm.Contact{}, false
	}
	return e.contact, true
}

// Has reports whether id is in the directory
func (s *Store) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// ListAll returns every contact in load order
func (s *Store) ListAll() []crm.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]crm.Contact, 0, len(s.order))
	for _, id := range s.order {
		contacts = append(contacts, s.entries[id].contact)
	}
	return contacts
}

// Len returns the number of contacts
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Notes returns the contact's notes, newest first
func (s *Store) Notes(id string) ([]crm.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}
	return newestFirst(e.notes), nil
}

// Attachments returns the contact's attachments in the order they were shared
func (s *Store) Attachments(id string) ([]crm.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}
	return append([]crm.Attachment(nil), e.attachments...), nil
}

// Properties returns the listings the contact is interested in
func (s *Store) Properties(id string) ([]crm.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}
	return append([]crm.Property(nil), e.properties...), nil
}

// AddNote appends a manual note to the contact's timeline and returns the
// updated timeline, newest first. A body that is blank after trimming is
// ignored.
func (s *Store) AddNote(id, author, body string) ([]crm.Note, error) {
	s.mu.Lock()

	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}

	body = strings.TrimSpace(body)
	if body == "" {
		notes := newestFirst(e.notes)
		s.mu.Unlock()
		return notes, nil
	}

	note := crm.Note{
		ID:        s.newID(),
		ContactID: id,
		Author:    author,
		Body:      body,
		Kind:      crm.NoteManual,
		CreatedAt: s.now(),
	}
	if s.journal != nil {
		if err := s.journal.AppendNote(note); err != nil {
			s.mu.Unlock()
			s.logger.Warn("note not persisted", "contact", id, "error", err)
			return nil, fmt.Errorf("saving note: %w", err)
		}
	}

	e.notes = append(e.notes, note)
	e.contact.LastActivity = note.CreatedAt
	notes := newestFirst(e.notes)
	s.mu.Unlock()

	s.logger.Debug("note added", "contact", id, "author", author)
	s.publish(Event{Kind: EventNoteAdded, ContactID: id, Note: &note})
	return notes, nil
}

// SetStatus moves the contact to a new lead status and records an audit
// note for the change.
func (s *Store) SetStatus(id string, status crm.LeadStatus) (Transition, error) {
	s.mu.Lock()

	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return Transition{}, fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}

	t, err := newTransition(id, e.contact.Status, status, s.now())
	if err != nil {
		s.mu.Unlock()
		return Transition{}, err
	}
	audit := auditNote(s.newID(), t)

	if s.journal != nil {
		if err := s.journal.RecordTransition(t, audit); err != nil {
			s.mu.Unlock()
			s.logger.Warn("status change not persisted", "contact", id, "error", err)
			return Transition{}, fmt.Errorf("saving status change: %w", err)
		}
	}

	e.contact.Status = t.To
	e.notes = append(e.notes, audit)
	s.mu.Unlock()

	s.logger.Info("lead status changed", "contact", id, "from", t.From, "to", t.To)
	s.publish(Event{Kind: EventStatusChanged, ContactID: id, Transition: &t, Note: &audit})
	return t, nil
}

// AddAttachment shares a file, link or document with the contact
func (s *Store) AddAttachment(id string, a crm.Attachment) (crm.Attachment, error) {
	if err := a.Validate(); err != nil {
		return crm.Attachment{}, err
	}

	s.mu.Lock()

	e, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return crm.Attachment{}, fmt.Errorf("%w: %s", crm.ErrNotFound, id)
	}

	a.ContactID = id
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.SharedAt.IsZero() {
		a.SharedAt = s.now()
	}
	if s.journal != nil {
		if err := s.journal.AppendAttachment(a); err != nil {
			s.mu.Unlock()
			return crm.Attachment{}, fmt.Errorf("saving attachment: %w", err)
		}
	}

	e.attachments = append(e.attachments, a)
	s.mu.Unlock()

	s.publish(Event{Kind: EventAttachmentAdded, ContactID: id})
	return a, nil
}

// newestFirst returns a copy of notes ordered by creation time, newest
// first; notes with equal timestamps keep reverse append order.
func newestFirst(notes []crm.Note) []crm.Note {
	out := make([]crm.Note, len(notes))
	for i, n := range notes {
		out[len(notes)-1-i] = n
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
