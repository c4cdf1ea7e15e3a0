package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/db"
	"github.com/pdxmph/leadbox/internal/directory"
	"github.com/pdxmph/leadbox/internal/selection"
	"github.com/pdxmph/leadbox/internal/tasks"
)

type stubLister struct {
	pending []tasks.Task
	calls   []string
}

func (s *stubLister) ListFollowUps(contactID string) ([]tasks.Task, error) {
	s.calls = append(s.calls, contactID)
	return s.pending, nil
}

func newTestModel(t *testing.T, opts ...Option) Model {
	t.Helper()
	ids := 0
	dir := directory.New(directory.WithIDs(func() string {
		ids++
		return fmt.Sprintf("n%d", ids)
	}))
	now := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)
	require.NoError(t, dir.Load(db.FixtureContacts(now)))

	sel := selection.New(dir)
	t.Cleanup(sel.Close)
	return *New(dir, sel, db.FixtureAgent, opts...)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func current(t *testing.T, m Model) string {
	t.Helper()
	id, ok := m.sel.Current()
	require.True(t, ok, "expected a selection")
	return id
}

func TestNewSelectsFirstContact(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, "1", current(t, m))
	assert.Equal(t, 0, m.cursor)
}

func TestNavigationMovesSelection(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "j", "j")
	assert.Equal(t, "3", current(t, m))
	assert.Equal(t, 2, m.cursor)

	m = press(t, m, "k", "k", "k")
	assert.Equal(t, "1", current(t, m), "cursor stops at the top")
}

func TestSearchKeepsHiddenSelection(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "/", "laura", "enter")
	visible := m.visibleContacts()
	require.Len(t, visible, 1)
	assert.Equal(t, "2", visible[0].ID)
	assert.Equal(t, "1", current(t, m), "filtering does not change the selection")

	// Moving picks the contact under the cursor
	m = press(t, m, "j")
	assert.Equal(t, "2", current(t, m))
}

func TestSearchByPhone(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "/", "541", "enter")

	visible := m.visibleContacts()
	require.Len(t, visible, 1)
	assert.Equal(t, "Omar Petrovski", visible[0].Name)
}

func TestFilterKeys(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "2")
	assert.Equal(t, crm.FilterAssignedToMe, m.filter)
	assert.Len(t, m.visibleContacts(), 4)

	m = press(t, m, "6")
	assert.Equal(t, crm.FilterTrash, m.filter)
	assert.Empty(t, m.visibleContacts())
	assert.Equal(t, "1", current(t, m))

	m = press(t, m, "C")
	assert.Equal(t, crm.FilterAll, m.filter)
	assert.Len(t, m.visibleContacts(), 7)
}

func TestFilterPicker(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "f", "j", "j", "j", "enter")
	assert.False(t, m.filterMode)
	assert.Equal(t, crm.FilterLiveChat, m.filter)

	var got []string
	for _, c := range m.visibleContacts() {
		got = append(got, c.ID)
	}
	assert.Equal(t, []string{"2", "6"}, got)
}

func TestStatusPickerRecordsAudit(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "s")
	require.True(t, m.statusMode)
	assert.Equal(t, 0, m.statusSelected, "picker opens on the current status")

	m = press(t, m, "j", "j", "enter")
	assert.False(t, m.statusMode)

	c, ok := m.dir.Get("1")
	require.True(t, ok)
	assert.Equal(t, crm.StatusScheduled, c.Status)

	notes, err := m.dir.Notes("1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Status changed: new → scheduled", notes[0].Body)
	assert.Equal(t, crm.NoteAudit, notes[0].Kind)
}

func TestStatusPickerEscapeChangesNothing(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "s", "j", "esc")

	c, _ := m.dir.Get("1")
	assert.Equal(t, crm.StatusNew, c.Status)
	notes, _ := m.dir.Notes("1")
	assert.Empty(t, notes)
}

func TestNoteComposer(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "n", "Call back tomorrow", "ctrl+s")
	assert.False(t, m.noteMode)

	notes, err := m.dir.Notes("1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Call back tomorrow", notes[0].Body)
	assert.Equal(t, db.FixtureAgent, notes[0].Author)
	assert.Equal(t, crm.NoteManual, notes[0].Kind)
}

func TestBlankNoteIsIgnored(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "n", "   ", "ctrl+s")
	notes, err := m.dir.Notes("1")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Nil(t, m.err)
}

func TestClearSelection(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "x")

	_, ok := m.sel.Current()
	assert.False(t, ok)

	// Status and note modes need a selection
	m = press(t, m, "s", "n")
	assert.False(t, m.statusMode)
	assert.False(t, m.noteMode)
}

func TestViewRendersPanels(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 180, Height: 50})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Miguel Sánchez")
	assert.Contains(t, view, "Laura González")
	assert.Contains(t, view, "Nuevo Lead")
	assert.Contains(t, view, "Chats (7)")
}

func TestViewSuggestsOnMiss(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 180, Height: 50})
	m = next.(Model)

	m = press(t, m, "/", "migel", "enter")
	view := m.View()
	assert.Contains(t, view, "No matches.")
	assert.Contains(t, view, "Did you mean Miguel Sánchez?")
}

func TestFollowUps(t *testing.T) {
	lister := &stubLister{pending: []tasks.Task{{ID: "t1", Description: "Follow up with Miguel Sánchez"}}}
	m := newTestModel(t, WithFollowUps(lister))

	msgs := runCmd(m.Init())
	require.Len(t, msgs, 1)
	msg, ok := msgs[0].(followUpsMsg)
	require.True(t, ok)
	assert.Equal(t, "1", msg.contactID)
	assert.Equal(t, []string{"1"}, lister.calls)

	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, "1", m.pendingOf)
	assert.Len(t, m.pending, 1)

	// Results for a contact that is no longer selected are dropped
	m = press(t, m, "j")
	next, _ = m.Update(followUpsMsg{contactID: "1", pending: lister.pending})
	m = next.(Model)
	next, _ = m.Update(followUpsMsg{contactID: "2", err: errors.New("boom")})
	m = next.(Model)
	assert.Equal(t, "1", m.pendingOf, "stale and failed fetches leave the list alone")
}

// runCmd executes cmd and any batched commands, collecting non-nil messages
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestFollowUpCreatedRefreshesPending(t *testing.T) {
	lister := &stubLister{pending: []tasks.Task{{ID: "t1", Description: "Follow up with Miguel Sánchez"}}}
	created := make(chan tasks.FollowUpResult, 1)
	m := newTestModel(t, WithFollowUps(lister), WithFollowUpResults(created))

	// Changing status does not wait for the task backend
	m = press(t, m, "s", "j", "enter")
	assert.Empty(t, lister.calls)

	created <- tasks.FollowUpResult{ContactID: "1", Status: crm.StatusFollowUp}
	close(created)

	msgs := runCmd(m.waitForFollowUp())
	require.Len(t, msgs, 1)
	assert.Equal(t, followUpCreatedMsg{ContactID: "1", Status: crm.StatusFollowUp}, msgs[0])

	next, cmd := m.Update(msgs[0])
	m = next.(Model)
	assert.Nil(t, m.err)

	var fetched []followUpsMsg
	for _, msg := range runCmd(cmd) {
		if f, ok := msg.(followUpsMsg); ok {
			fetched = append(fetched, f)
		}
	}
	require.Len(t, fetched, 1)
	assert.Equal(t, "1", fetched[0].contactID)
	assert.Equal(t, []string{"1"}, lister.calls)
}

func TestFollowUpFailureShowsError(t *testing.T) {
	lister := &stubLister{}
	m := newTestModel(t, WithFollowUps(lister))

	next, cmd := m.Update(followUpCreatedMsg{ContactID: "2", Status: crm.StatusScheduled, Err: errors.New("task: command not found")})
	m = next.(Model)

	require.Error(t, m.err)
	assert.Contains(t, m.View(), "creating follow-up task")
	assert.Nil(t, cmd, "no refresh for a contact that is not selected")
	assert.Empty(t, lister.calls)
}

func TestErrorIsDismissedByAnyKey(t *testing.T) {
	m := newTestModel(t)
	m.err = fmt.Errorf("%w: contact %q", crm.ErrNotFound, "9")

	assert.Contains(t, m.View(), "Contact no longer exists")

	m = press(t, m, "j")
	assert.Nil(t, m.err)
	assert.Equal(t, "1", current(t, m), "the dismissing key is swallowed")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
	assert.Empty(t, wrapText("   ", 10))
	assert.Equal(t, []string{"as is"}, wrapText("as is", 0))
}
