package filter

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pdxmph/leadbox/internal/crm"
)

// maxSuggestRatio bounds how far a name may be from the search term, as a
// fraction of the compared length, to still count as a likely typo.
const maxSuggestRatio = 0.4

// Suggest proposes the contact the user probably meant when a search finds
// nothing. Each name is compared word by word and as a whole, so "migel"
// suggests "Miguel Sánchez".
func Suggest(contacts []crm.Contact, term string) (crm.Contact, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return crm.Contact{}, false
	}

	var (
		best      crm.Contact
		bestScore = 1.0
		found     bool
	)
	for _, c := range contacts {
		name := strings.ToLower(c.Name)
		candidates := append([]string{name}, strings.Fields(name)...)
		for _, cand := range candidates {
			score := distanceRatio(term, cand)
			if score < bestScore {
				best, bestScore, found = c, score, true
			}
		}
	}

	if !found || bestScore > maxSuggestRatio {
		return crm.Contact{}, false
	}
	return best, true
}

func distanceRatio(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
