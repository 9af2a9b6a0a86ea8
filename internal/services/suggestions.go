package services

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const (
	// minSuggestionQuery is the minimum partial-description length before
	// suggestions kick in.
	minSuggestionQuery = 2

	// maxSuggestions caps the ranked result list.
	maxSuggestions = 5
)

// Suggestion is an autofill candidate derived from transaction history.
// Count is how often the same (description, category, magnitude) group
// occurred; the remaining fields come from the group's first occurrence.
type Suggestion struct {
	Description string               `json:"description"`
	Amount      float64              `json:"amount"`
	Type        core.TransactionType `json:"type"`
	Category    string               `json:"category"`
	Payment     string               `json:"payment"`
	Count       int                  `json:"count"`
}

// Suggest ranks prior transactions whose description contains the partial
// text (case-insensitive), excluding exact matches of the input itself.
// Groups are keyed by (description, category, abs(amount)) and ordered by
// descending occurrence count; ties keep first-seen order.
func Suggest(transactions []core.Transaction, partial string) []Suggestion {
	partial = strings.TrimSpace(partial)
	if len(partial) < minSuggestionQuery {
		return nil
	}
	needle := strings.ToLower(partial)

	counts := make(map[string]int)
	index := make(map[string]int)
	var groups []Suggestion

	for _, t := range transactions {
		desc := strings.ToLower(t.Description)
		if !strings.Contains(desc, needle) || desc == needle {
			continue
		}

		key := t.Description + "\x00" + t.Category + "\x00" +
			strconv.FormatFloat(math.Abs(t.Amount), 'f', -1, 64)
		counts[key]++
		if _, ok := index[key]; !ok {
			index[key] = len(groups)
			groups = append(groups, Suggestion{
				Description: t.Description,
				Amount:      t.Amount,
				Type:        t.Type,
				Category:    t.Category,
				Payment:     t.Payment,
			})
		}
		groups[index[key]].Count = counts[key]
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	if len(groups) > maxSuggestions {
		groups = groups[:maxSuggestions]
	}
	return groups
}
