package directory

import (
	"github.com/pdxmph/leadbox/internal/crm"
)

// EventKind identifies what changed in the directory
type EventKind string

const (
	EventLoaded          EventKind = "loaded"
	EventNoteAdded       EventKind = "note-added"
	EventStatusChanged   EventKind = "status-changed"
	EventAttachmentAdded EventKind = "attachment-added"
)

// Event is broadcast to subscribers after a mutation commits
type Event struct {
	Kind       EventKind
	ContactID  string // empty for EventLoaded
	Transition *Transition
	Note       *crm.Note
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn to receive every committed change. Handlers run
// synchronously on the goroutine that made the change, after the store lock
// is released, in subscription order. The returned func removes the
// subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// publish delivers ev to a snapshot of the subscribers taken when it starts
func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(ev)
	}
}
