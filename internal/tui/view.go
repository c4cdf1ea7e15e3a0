package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/filter"
)

// attachment group headings in the info panel
var attachmentHeadings = map[crm.AttachmentKind]string{
	crm.AttachmentFile:     "Shared files",
	crm.AttachmentLink:     "Shared links",
	crm.AttachmentDocument: "Documents",
}

// View renders the UI
func (m Model) View() string {
	if m.err != nil {
		return errorText(m.err) + "\n\nPress any key to continue."
	}

	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Overlays replace the main view
	switch {
	case m.filterMode:
		return m.overlay(m.renderFilterSelection(), 0)
	case m.statusMode:
		return m.overlay(m.renderStatusSelection(), 0)
	case m.noteMode:
		return m.overlay(m.renderNoteInput(), 0)
	}

	// Calculate pane widths
	listWidth := m.width / 3
	infoWidth := m.width / 3
	chatWidth := m.width - listWidth - infoWidth - 6 // account for borders
	height := m.height - 3

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(listWidth).Height(height).Render(m.renderList(listWidth, height)),
		borderStyle.Width(chatWidth).Height(height).Render(m.renderConversation(chatWidth)),
		borderStyle.Width(infoWidth).Height(height).Render(m.renderInfo(infoWidth)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderHelp())
}

// renderList renders the filter sidebar, the search box and the contact list
func (m Model) renderList(width, height int) string {
	var lines []string

	all := m.dir.ListAll()
	for i, b := range filter.Counts(all, m.agent) {
		line := fmt.Sprintf("%d %-16s %3d", i+1, b.Filter.Label(), b.Count)
		if b.Filter == m.filter {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, strings.Repeat("─", max(width-2, 0)))

	if m.searchMode || m.search.Value() != "" {
		lines = append(lines, m.search.View())
	}

	visible := m.visibleContacts()
	lines = append(lines, fmt.Sprintf("Chats (%d)", len(visible)))

	if len(visible) == 0 && m.search.Value() != "" {
		lines = append(lines, dimStyle.Render("No matches."))
		if c, ok := filter.Suggest(filter.Visible(all, m.filter, "", m.agent), m.search.Value()); ok {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("Did you mean %s?", c.Name)))
		}
	}

	// Calculate visible range
	visibleHeight := height - len(lines)
	startIdx := 0
	if m.cursor >= visibleHeight && visibleHeight > 0 {
		startIdx = m.cursor - visibleHeight + 1
	}

	selectedID, hasSelection := m.sel.Current()
	for i := startIdx; i < len(visible) && i < startIdx+visibleHeight; i++ {
		c := visible[i]

		line := presenceMarker(c.Presence) + " " + c.Name
		if !c.LastActivity.IsZero() {
			line += " " + dimStyle.Render(c.LastActivity.Format("15:04"))
		}

		// Apply selection styling to entire line if selected
		if hasSelection && c.ID == selectedID {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// renderConversation renders the conversation pane for the selected contact
func (m Model) renderConversation(width int) string {
	c, ok := m.selectedContact()
	if !ok {
		return "No contact selected"
	}

	var lines []string
	lines = append(lines, headingStyle.Render(c.Name))
	lines = append(lines, dimStyle.Render(fmt.Sprintf("%s · %s", c.Phone, channelLabel(c.Channel))))
	lines = append(lines, strings.Repeat("─", max(width-2, 0)))
	lines = append(lines, "")

	if c.LastMessage != "" {
		if !c.LastActivity.IsZero() {
			lines = append(lines, dimStyle.Render(c.LastActivity.Format("15:04")))
		}
		lines = append(lines, wrapText(c.LastMessage, width-4)...)
	}
	if c.Presence == crm.PresenceTyping {
		lines = append(lines, "", dimStyle.Render("Typing..."))
	}
	if c.Blocked {
		lines = append(lines, "", unreadStyle.Render("This contact is blocked."))
	}

	return strings.Join(lines, "\n")
}

// renderInfo renders the lead info panel for the selected contact
func (m Model) renderInfo(width int) string {
	c, ok := m.selectedContact()
	if !ok {
		return ""
	}

	var lines []string
	lines = append(lines, headingStyle.Render(c.Name))
	lines = append(lines, statusStyle.Render(c.Status.Label()))
	lines = append(lines, strings.Repeat("─", max(width-2, 0)))

	lines = append(lines, fmt.Sprintf("Phone: %s", c.Phone))
	if c.Email != "" {
		lines = append(lines, fmt.Sprintf("Email: %s", c.Email))
	}
	if !c.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Alta: %s", c.CreatedAt.Format("02/01/2006")))
	}
	if c.IsAssigned() {
		lines = append(lines, fmt.Sprintf("Agent: %s", c.AssignedAgent))
	} else {
		lines = append(lines, "Agent: unassigned")
	}
	lines = append(lines, "")

	if props, err := m.dir.Properties(c.ID); err == nil && len(props) > 0 {
		lines = append(lines, headingStyle.Render("Properties"))
		for _, p := range props {
			lines = append(lines, p.Title)
			lines = append(lines, dimStyle.Render(fmt.Sprintf("  %s · €%d", p.Summary(), p.PriceEUR)))
		}
		lines = append(lines, "")
	}

	if len(m.pending) > 0 && m.pendingOf == c.ID {
		lines = append(lines, headingStyle.Render("Follow-ups"))
		for _, t := range m.pending {
			lines = append(lines, "□ "+t.Description)
		}
		lines = append(lines, "")
	}

	// Notes, newest first
	lines = append(lines, headingStyle.Render("Notes"))
	notes, _ := m.dir.Notes(c.ID)
	if len(notes) == 0 {
		lines = append(lines, dimStyle.Render("No notes yet"))
	}
	for i, n := range notes {
		if i == 5 {
			lines = append(lines, dimStyle.Render(fmt.Sprintf("… %d older", len(notes)-5)))
			break
		}
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%s · %s", n.Author, n.CreatedAt.Format("02/01 15:04"))))
		for _, l := range wrapText(n.Body, width-4) {
			lines = append(lines, "  "+l)
		}
	}
	lines = append(lines, "")

	// Attachments grouped by kind
	attachments, _ := m.dir.Attachments(c.ID)
	for _, kind := range crm.AttachmentKinds {
		var group []crm.Attachment
		for _, a := range attachments {
			if a.Kind == kind {
				group = append(group, a)
			}
		}
		if len(group) == 0 {
			continue
		}
		lines = append(lines, headingStyle.Render(attachmentHeadings[kind]))
		for _, a := range group {
			lines = append(lines, a.Name)
			if kind == crm.AttachmentLink {
				lines = append(lines, dimStyle.Render("  "+a.URL))
			} else {
				lines = append(lines, dimStyle.Render(fmt.Sprintf("  %s • %s", a.SizeLabel(), a.SharedAt.Format("02/01/2006"))))
			}
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// renderHelp renders the help line
func (m Model) renderHelp() string {
	if m.searchMode {
		return " Type to search • ↑/↓: navigate • Enter: confirm • Esc: cancel"
	}

	help := " j/k: navigate • /: search • f/1-6: filter • s: status • n: note • x: deselect"

	// Show clear option if any filters are active
	if m.filter != crm.FilterAll || m.search.Value() != "" {
		help += " • C: clear all"
	}

	help += " • q: quit"
	return help
}

// renderStatusSelection renders the lead status picker
func (m Model) renderStatusSelection() string {
	c, ok := m.selectedContact()
	if !ok {
		return "No contact selected"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Estado del Lead: %s", c.Name))
	lines = append(lines, "")

	for i, s := range crm.LeadStatuses {
		line := fmt.Sprintf("  %s", s.Label())
		if s == c.Status {
			line += " (current)"
		}
		if i == m.statusSelected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	lines = append(lines, "Press Enter to confirm, Esc to cancel")
	return strings.Join(lines, "\n")
}

// renderFilterSelection renders the filter picker
func (m Model) renderFilterSelection() string {
	var lines []string
	lines = append(lines, "Show conversations:")
	lines = append(lines, "")

	for i, b := range filter.Counts(m.dir.ListAll(), m.agent) {
		line := fmt.Sprintf("  %-16s %3d", b.Filter.Label(), b.Count)
		if i == m.filterSelected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	lines = append(lines, "Press Enter to confirm, Esc to cancel")
	return strings.Join(lines, "\n")
}

// renderNoteInput renders the note composer
func (m Model) renderNoteInput() string {
	c, ok := m.selectedContact()
	if !ok {
		return "No contact selected"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Add note for %s:", c.Name))
	lines = append(lines, "")
	lines = append(lines, m.noteInput.View())
	lines = append(lines, "")
	lines = append(lines, "Ctrl+S: save • Esc: cancel")
	return strings.Join(lines, "\n")
}

// overlay draws content in a bordered box centred on the screen
func (m Model) overlay(content string, width int) string {
	box := borderStyle.
		Padding(1).
		Background(lipgloss.Color("235"))
	if width > 0 {
		box = box.Width(width)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box.Render(content))
}

func presenceMarker(p crm.Presence) string {
	switch p {
	case crm.PresenceUnread:
		return unreadStyle.Render("●")
	case crm.PresenceTyping:
		return dimStyle.Render("…")
	case crm.PresenceResponded:
		return dimStyle.Render("✓")
	}
	return " "
}

func channelLabel(c crm.Channel) string {
	if c == crm.ChannelLiveChat {
		return "Live Chat"
	}
	return "WhatsApp"
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	currentLine := words[0]
	for _, word := range words[1:] {
		if lipgloss.Width(currentLine)+1+lipgloss.Width(word) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}
