// Package filter derives the visible contact list from the active sidebar
// filter and the search box.
package filter

import (
	"strings"

	"github.com/pdxmph/leadbox/internal/crm"
)

// Badge is a sidebar filter with its contact count
type Badge struct {
	Filter crm.Filter
	Count  int
}

// Matches reports whether c satisfies filter f. me is the current agent's
// name; with no current agent nothing is assigned to me.
func Matches(c crm.Contact, f crm.Filter, me string) bool {
	switch f {
	case crm.FilterAll:
		return true
	case crm.FilterAssignedToMe:
		return me != "" && c.AssignedAgent == me
	case crm.FilterUnassigned:
		return !c.IsAssigned()
	case crm.FilterLiveChat:
		return c.Channel == crm.ChannelLiveChat
	case crm.FilterBlocked:
		return c.Blocked
	case crm.FilterTrash:
		return c.Deleted
	}
	return false
}

// MatchesSearch reports whether term occurs in the contact's name (ignoring
// case) or in its phone number. An empty term matches everyone.
func MatchesSearch(c crm.Contact, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(term)) ||
		strings.Contains(c.Phone, term)
}

// Visible returns the contacts passing both the filter and the search,
// in their original order.
func Visible(contacts []crm.Contact, f crm.Filter, term, me string) []crm.Contact {
	visible := make([]crm.Contact, 0, len(contacts))
	for _, c := range contacts {
		if Matches(c, f, me) && MatchesSearch(c, term) {
			visible = append(visible, c)
		}
	}
	return visible
}

// Count returns how many contacts pass filter f, ignoring any search
func Count(contacts []crm.Contact, f crm.Filter, me string) int {
	n := 0
	for _, c := range contacts {
		if Matches(c, f, me) {
			n++
		}
	}
	return n
}

// Counts returns a badge for every built-in filter in sidebar order
func Counts(contacts []crm.Contact, me string) []Badge {
	badges := make([]Badge, 0, len(crm.Filters))
	for _, f := range crm.Filters {
		badges = append(badges, Badge{Filter: f, Count: Count(contacts, f, me)})
	}
	return badges
}
