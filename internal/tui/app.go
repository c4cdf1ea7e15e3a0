package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/directory"
	"github.com/pdxmph/leadbox/internal/filter"
	"github.com/pdxmph/leadbox/internal/selection"
	"github.com/pdxmph/leadbox/internal/tasks"
)

// FollowUpLister lists pending follow-up tasks for a contact
type FollowUpLister interface {
	ListFollowUps(contactID string) ([]tasks.Task, error)
}

// Model represents the main application state
type Model struct {
	dir       *directory.Store
	sel       *selection.Coordinator
	followUps FollowUpLister
	created   <-chan tasks.FollowUpResult
	agent     string

	width  int
	height int
	cursor int
	filter crm.Filter

	searchMode bool
	search     textinput.Model

	filterMode     bool
	filterSelected int

	statusMode     bool
	statusSelected int

	noteMode  bool
	noteInput textarea.Model

	pending   []tasks.Task
	pendingOf string

	err error
}

// followUpsMsg carries the pending tasks fetched for a contact
type followUpsMsg struct {
	contactID string
	pending   []tasks.Task
	err       error
}

// followUpCreatedMsg reports a follow-up task created in the background
type followUpCreatedMsg tasks.FollowUpResult

// Styles
var (
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	unreadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange for lead status

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	headingStyle = lipgloss.NewStyle().Bold(true)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// Option configures the model
type Option func(*Model)

// WithFollowUps shows pending follow-up tasks in the info panel
func WithFollowUps(l FollowUpLister) Option {
	return func(m *Model) { m.followUps = l }
}

// WithFollowUpResults listens for follow-up tasks created after status
// changes and refreshes the pending list when one lands
func WithFollowUpResults(ch <-chan tasks.FollowUpResult) Option {
	return func(m *Model) { m.created = ch }
}

// New creates a new application model over a loaded directory. agent is the
// current user: it drives the "Assigned to Me" filter and signs notes.
func New(dir *directory.Store, sel *selection.Coordinator, agent string, opts ...Option) *Model {
	// Setup search input
	ti := textinput.New()
	ti.Placeholder = "Search name or phone..."
	ti.Width = 30
	ti.CharLimit = 50
	ti.Prompt = "> "
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	// Setup note input
	ta := textarea.New()
	ta.Placeholder = "Añadir una nota..."
	ta.SetHeight(4)
	ta.SetWidth(50)
	ta.CharLimit = 500
	ta.ShowLineNumbers = false

	m := &Model{
		dir:       dir,
		sel:       sel,
		agent:     agent,
		filter:    crm.FilterAll,
		search:    ti,
		noteInput: ta,
	}
	for _, opt := range opts {
		opt(m)
	}

	// Open on the first conversation, like the inbox does
	if _, ok := sel.Current(); !ok {
		if visible := m.visibleContacts(); len(visible) > 0 {
			_ = sel.Select(visible[0].ID)
		}
	}
	m.syncCursor()
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchFollowUps(), m.waitForFollowUp())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Update search width when window size changes
		if m.width > 0 {
			m.search.Width = m.width/3 - 6
			m.noteInput.SetWidth(m.width/2 - 10)
		}
		return m, nil

	case followUpsMsg:
		if id, ok := m.sel.Current(); ok && id == msg.contactID && msg.err == nil {
			m.pending = msg.pending
			m.pendingOf = msg.contactID
		}
		return m, nil

	case followUpCreatedMsg:
		if msg.Err != nil {
			m.err = fmt.Errorf("creating follow-up task: %w", msg.Err)
		}
		cmds := []tea.Cmd{m.waitForFollowUp()}
		if id, ok := m.sel.Current(); ok && id == msg.ContactID {
			cmds = append(cmds, m.fetchFollowUps())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		// Any key dismisses an error
		if m.err != nil {
			m.err = nil
			return m, nil
		}

		switch {
		case m.filterMode:
			return m.updateFilterMode(msg)
		case m.statusMode:
			return m.updateStatusMode(msg)
		case m.noteMode:
			return m.updateNoteMode(msg)
		case m.searchMode:
			return m.updateSearchMode(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		return m.moveCursor(1)

	case "k", "up":
		return m.moveCursor(-1)

	case "/":
		m.searchMode = true
		m.search.Focus()
		return m, textinput.Blink

	case "esc":
		// Clear search and return to full list
		if m.search.Value() != "" {
			m.search.Reset()
			m.syncCursor()
		}
		return m, nil

	case "f":
		// Enter filter selection mode on the active filter
		m.filterMode = true
		m.filterSelected = indexOf(crm.Filters, m.filter)
		return m, nil

	case "1", "2", "3", "4", "5", "6":
		i := int(msg.String()[0] - '1')
		m.filter = crm.Filters[i]
		m.syncCursor()
		return m, nil

	case "C":
		// Clear filter and search
		m.filter = crm.FilterAll
		m.search.Reset()
		m.syncCursor()
		return m, nil

	case "s":
		// Enter status selection mode on the current status
		if c, ok := m.selectedContact(); ok {
			m.statusMode = true
			m.statusSelected = indexOf(crm.LeadStatuses, c.Status)
		}
		return m, nil

	case "n":
		// Enter note mode
		if _, ok := m.selectedContact(); ok {
			m.noteMode = true
			m.noteInput.Reset()
			m.noteInput.Focus()
			return m, textarea.Blink
		}
		return m, nil

	case "x":
		m.sel.Clear()
		m.pending, m.pendingOf = nil, ""
		return m, nil
	}

	return m, nil
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.search.Blur()
		m.search.Reset()
		m.syncCursor()
		return m, nil
	case "enter":
		m.searchMode = false
		m.search.Blur()
		m.syncCursor()
		return m, nil
	case "up":
		return m.moveCursor(-1)
	case "down":
		return m.moveCursor(1)
	}

	// Pass all other keys to the textinput
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.syncCursor()
	return m, cmd
}

func (m Model) updateFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filterMode = false
	case "enter":
		m.filter = crm.Filters[m.filterSelected]
		m.filterMode = false
		m.syncCursor()
	case "j", "down":
		if m.filterSelected < len(crm.Filters)-1 {
			m.filterSelected++
		}
	case "k", "up":
		if m.filterSelected > 0 {
			m.filterSelected--
		}
	}
	return m, nil
}

func (m Model) updateStatusMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.statusMode = false
		return m, nil
	case "enter":
		m.statusMode = false
		id, ok := m.sel.Current()
		if !ok {
			return m, nil
		}
		if _, err := m.dir.SetStatus(id, crm.LeadStatuses[m.statusSelected]); err != nil {
			m.err = err
		}
		// Any follow-up task arrives later as a followUpCreatedMsg
		return m, nil
	case "j", "down":
		if m.statusSelected < len(crm.LeadStatuses)-1 {
			m.statusSelected++
		}
	case "k", "up":
		if m.statusSelected > 0 {
			m.statusSelected--
		}
	}
	return m, nil
}

func (m Model) updateNoteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.noteMode = false
		m.noteInput.Reset()
		return m, nil
	case "ctrl+s":
		if id, ok := m.sel.Current(); ok {
			// Blank notes are ignored by the directory
			if _, err := m.dir.AddNote(id, m.agent, m.noteInput.Value()); err != nil {
				m.err = err
			}
		}
		m.noteMode = false
		m.noteInput.Reset()
		return m, nil
	}

	// Pass other keys to the note input
	var cmd tea.Cmd
	m.noteInput, cmd = m.noteInput.Update(msg)
	return m, cmd
}

// moveCursor moves within the visible list and selects the contact under the cursor
func (m Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	visible := m.visibleContacts()
	if len(visible) == 0 {
		return m, nil
	}

	next := m.cursor + delta
	// A hidden selection leaves the cursor where it was; start from there
	if id, ok := m.sel.Current(); ok && indexByID(visible, id) < 0 {
		next = m.cursor
	}
	if next < 0 {
		next = 0
	}
	if next > len(visible)-1 {
		next = len(visible) - 1
	}
	m.cursor = next

	if err := m.sel.Select(visible[next].ID); err != nil {
		m.err = err
		return m, nil
	}
	return m, m.fetchFollowUps()
}

// visibleContacts returns contacts matching the current filter and search
func (m Model) visibleContacts() []crm.Contact {
	return filter.Visible(m.dir.ListAll(), m.filter, m.search.Value(), m.agent)
}

// selectedContact returns the contact focused across all panels
func (m Model) selectedContact() (crm.Contact, bool) {
	id, ok := m.sel.Current()
	if !ok {
		return crm.Contact{}, false
	}
	return m.dir.Get(id)
}

// syncCursor puts the cursor on the selected contact when it is visible and
// otherwise keeps it within bounds. The selection itself never changes here.
func (m *Model) syncCursor() {
	visible := m.visibleContacts()
	if id, ok := m.sel.Current(); ok {
		if i := indexByID(visible, id); i >= 0 {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(visible) {
		m.cursor = len(visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// fetchFollowUps loads pending tasks for the selected contact off the update loop
func (m Model) fetchFollowUps() tea.Cmd {
	if m.followUps == nil {
		return nil
	}
	id, ok := m.sel.Current()
	if !ok {
		return nil
	}
	lister := m.followUps
	return func() tea.Msg {
		list, err := lister.ListFollowUps(id)
		return followUpsMsg{contactID: id, pending: list, err: err}
	}
}

// waitForFollowUp blocks off the update loop until the next follow-up result
func (m Model) waitForFollowUp() tea.Cmd {
	if m.created == nil {
		return nil
	}
	ch := m.created
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return followUpCreatedMsg(res)
	}
}

func indexByID(contacts []crm.Contact, id string) int {
	for i, c := range contacts {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func indexOf[T comparable](items []T, v T) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return 0
}

// errorText renders an error for the banner, naming the cause plainly
func errorText(err error) string {
	switch {
	case errors.Is(err, crm.ErrNotFound):
		return fmt.Sprintf("Contact no longer exists: %v", err)
	case errors.Is(err, crm.ErrInvalidEnum):
		return fmt.Sprintf("Invalid value: %v", err)
	}
	return fmt.Sprintf("Error: %v", err)
}
