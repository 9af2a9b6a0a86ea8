// Package core provides the domain types and calendar helpers shared by
// the aggregation, projection, insight and suggestion engines.
//
// Dates are carried as YYYY-MM-DD strings throughout: zero-padded ISO
// dates compare lexicographically in chronological order, which the
// engines rely on for due checks and month ordering.
package core

import (
	"sort"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// MonthKey returns the YYYY-MM prefix of a date string.
func MonthKey(date string) string {
	if len(date) < len(MonthLayout) {
		return date
	}
	return date[:len(MonthLayout)]
}

// InMonth reports whether the transaction's posting date falls in the
// given YYYY-MM month.
func (t Transaction) InMonth(month string) bool {
	return len(t.Date) >= len(month) && t.Date[:len(month)] == month
}

// MonthKeys returns the sorted distinct YYYY-MM keys present in the
// transaction set. Ascending lexicographic order is chronological order.
func MonthKeys(transactions []Transaction) []string {
	seen := make(map[string]struct{}, len(transactions))
	var keys []string
	for _, t := range transactions {
		k := MonthKey(t.Date)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Today returns the current date as a YYYY-MM-DD string.
func Today() string {
	return time.Now().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC time.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a time as a YYYY-MM-DD string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
