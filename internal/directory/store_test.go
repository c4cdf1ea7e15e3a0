package directory

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/leadbox/internal/crm"
)

func contact(id, name, phone string) crm.Contact {
	return crm.Contact{ID: id, Name: name, Phone: phone, Presence: crm.PresenceNone}
}

// newTestStore returns a store with a fixed clock that advances one minute per call
func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ticks := 0
	ids := 0
	opts = append([]Option{
		WithClock(func() time.Time {
			ticks++
			return base.Add(time.Duration(ticks) * time.Minute)
		}),
		WithIDs(func() string {
			ids++
			return fmt.Sprintf("n%d", ids)
		}),
	}, opts...)
	return New(opts...)
}

func TestLoadListAllRoundTrip(t *testing.T) {
	s := newTestStore(t)
	in := []crm.Contact{
		contact("3", "Carlos Rodríguez", "34 654-543-432"),
		contact("1", "Miguel Sánchez", "34 654-789-123"),
		contact("2", "Laura González", "34 654-543-321"),
	}
	require.NoError(t, s.Load(in))

	got := s.ListAll()
	require.Len(t, got, 3)
	for i := range in {
		assert.Equal(t, in[i].ID, got[i].ID)
		assert.Equal(t, in[i].Name, got[i].Name)
		assert.Equal(t, crm.StatusNew, got[i].Status)
	}
}

func TestLoadDuplicateKeepsPriorState(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))

	err := s.Load([]crm.Contact{
		contact("2", "Laura González", "556"),
		contact("2", "Laura Again", "557"),
	})
	require.ErrorIs(t, err, crm.ErrDuplicateID)

	got := s.ListAll()
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	assert.False(t, s.Has("2"))
}

func TestLoadRejectsMalformed(t *testing.T) {
	s := newTestStore(t)
	err := s.Load([]crm.Contact{{ID: "1", Name: "No Phone", Presence: crm.PresenceNone}})
	assert.ErrorIs(t, err, crm.ErrMalformedContact)
	assert.Equal(t, 0, s.Len())
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Get("99")
	assert.False(t, ok)
}

func TestSetStatusRecordsAudit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "34 654-789-123")}))

	tr, err := s.SetStatus("1", crm.StatusScheduled)
	require.NoError(t, err)
	assert.Equal(t, crm.StatusNew, tr.From)
	assert.Equal(t, crm.StatusScheduled, tr.To)

	c, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, crm.StatusScheduled, c.Status)

	notes, err := s.Notes("1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Status changed: new → scheduled", notes[0].Body)
	assert.Equal(t, crm.NoteAudit, notes[0].Kind)
	assert.Equal(t, AuditAuthor, notes[0].Author)
}

func TestSetStatusEveryPairAddsOneAudit(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))

	count := 0
	for _, from := range crm.LeadStatuses {
		for _, to := range crm.LeadStatuses {
			_, err := s.SetStatus("1", from)
			require.NoError(t, err)
			count++
			_, err = s.SetStatus("1", to)
			require.NoError(t, err)
			count++

			c, _ := s.Get("1")
			assert.Equal(t, to, c.Status)
			notes, _ := s.Notes("1")
			require.Len(t, notes, count)
			assert.Equal(t, fmt.Sprintf("Status changed: %s → %s", from, to), notes[0].Body)
		}
	}
}

func TestSetStatusErrors(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SetStatus("99", crm.StatusClosed)
	assert.ErrorIs(t, err, crm.ErrNotFound)

	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))
	_, err = s.SetStatus("1", "won")
	assert.ErrorIs(t, err, crm.ErrInvalidEnum)

	c, _ := s.Get("1")
	assert.Equal(t, crm.StatusNew, c.Status)
	notes, _ := s.Notes("1")
	assert.Empty(t, notes)
}

func TestAddNote(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))

	notes, err := s.AddNote("1", "Pedro Agente", "  Busca ático en Chamberí  ")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Busca ático en Chamberí", notes[0].Body)
	assert.Equal(t, crm.NoteManual, notes[0].Kind)

	c, _ := s.Get("1")
	assert.Equal(t, notes[0].CreatedAt, c.LastActivity)

	notes, err = s.AddNote("1", "María López", "Presupuesto €500k")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Presupuesto €500k", notes[0].Body, "newest first")
}

func TestAddNoteBlankIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))

	events := 0
	s.Subscribe(func(Event) { events++ })

	for _, body := range []string{"", "   ", "\n\t"} {
		notes, err := s.AddNote("1", "Pedro Agente", body)
		require.NoError(t, err)
		assert.Empty(t, notes)
	}
	assert.Zero(t, events)

	c, _ := s.Get("1")
	assert.True(t, c.LastActivity.IsZero())
}

func TestAddNoteMissingContact(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddNote("99", "Pedro Agente", "hola")
	assert.ErrorIs(t, err, crm.ErrNotFound)
}

func TestLoadRecordsOrdersNotes(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.LoadRecords([]Record{{
		Contact: contact("1", "Miguel Sánchez", "555"),
		Notes: []crm.Note{
			{ID: "b", Body: "hoy", Kind: crm.NoteManual, CreatedAt: day.Add(24 * time.Hour)},
			{ID: "a", Body: "ayer", Kind: crm.NoteManual, CreatedAt: day},
		},
		Properties: []crm.Property{{ID: "p1", Title: "Piso en Salamanca"}},
	}}))

	notes, err := s.Notes("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, []string{notes[0].ID, notes[1].ID})

	props, err := s.Properties("1")
	require.NoError(t, err)
	assert.Len(t, props, 1)
}

func TestAddAttachment(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))

	a, err := s.AddAttachment("1", crm.Attachment{Name: "Contrato_Reserva.docx", SizeBytes: 1887437, Kind: crm.AttachmentFile})
	require.NoError(t, err)
	assert.Equal(t, "1", a.ContactID)
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.SharedAt.IsZero())

	_, err = s.AddAttachment("1", crm.Attachment{Name: "clip.mp4", Kind: "video"})
	assert.ErrorIs(t, err, crm.ErrInvalidEnum)
	_, err = s.AddAttachment("99", crm.Attachment{Name: "x", Kind: crm.AttachmentLink})
	assert.ErrorIs(t, err, crm.ErrNotFound)

	list, err := s.Attachments("1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type failingJournal struct{ err error }

func (j failingJournal) AppendNote(crm.Note) error { return j.err }
func (j failingJournal) RecordTransition(Transition, crm.Note) error { return j.err }
func (j failingJournal) AppendAttachment(crm.Attachment) error { return j.err }

func TestJournalFailureLeavesStateUnchanged(t *testing.T) {
	boom := errors.New("disk full")
	s := newTestStore(t, WithJournal(failingJournal{err: boom}))
	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))

	_, err := s.SetStatus("1", crm.StatusClosed)
	require.ErrorIs(t, err, boom)
	_, err = s.AddNote("1", "Pedro Agente", "hola")
	require.ErrorIs(t, err, boom)

	c, _ := s.Get("1")
	assert.Equal(t, crm.StatusNew, c.Status)
	notes, _ := s.Notes("1")
	assert.Empty(t, notes)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	s := newTestStore(t)

	var kinds []EventKind
	cancel := s.Subscribe(func(ev Event) { kinds = append(kinds, ev.Kind) })

	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))
	_, err := s.SetStatus("1", crm.StatusFollowUp)
	require.NoError(t, err)
	_, err = s.AddNote("1", "Pedro Agente", "llamar el lunes")
	require.NoError(t, err)

	cancel()
	_, err = s.SetStatus("1", crm.StatusLost)
	require.NoError(t, err)

	assert.Equal(t, []EventKind{EventLoaded, EventStatusChanged, EventNoteAdded}, kinds)
}

func TestCanTransitionIsPermissive(t *testing.T) {
	for _, from := range crm.LeadStatuses {
		for _, to := range crm.LeadStatuses {
			assert.True(t, CanTransition(from, to), "%s → %s", from, to)
		}
	}
	assert.False(t, CanTransition(crm.StatusNew, "won"))
}

func TestSubscribersRunInOrderOverSnapshot(t *testing.T) {
	s := newTestStore(t)

	var calls []string
	var cancelSecond func()
	s.Subscribe(func(Event) {
		calls = append(calls, "first")
		// Cancelling mid-delivery takes effect from the next event
		cancelSecond()
	})
	cancelSecond = s.Subscribe(func(Event) { calls = append(calls, "second") })
	s.Subscribe(func(Event) { calls = append(calls, "third") })

	require.NoError(t, s.Load([]crm.Contact{contact("1", "Miguel Sánchez", "555")}))
	assert.Equal(t, []string{"first", "second", "third"}, calls)

	calls = nil
	_, err := s.SetStatus("1", crm.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third"}, calls)
}
