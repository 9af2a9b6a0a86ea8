// This file implements the Strategy Pattern for advancing a recurring
// definition's next due date. Each frequency has its own advancer so new
// cadences can be registered without touching the projector.

package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DateAdvancer is the strategy interface for computing the next due date
// after a recurring definition fires.
type DateAdvancer interface {
	// Advance returns the next occurrence date after from.
	Advance(from time.Time) time.Time
}

// DailyAdvancer implements DateAdvancer for daily definitions.
type DailyAdvancer struct{}

func (DailyAdvancer) Advance(from time.Time) time.Time {
	return from.AddDate(0, 0, 1)
}

// WeeklyAdvancer implements DateAdvancer for weekly definitions.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Advance(from time.Time) time.Time {
	return from.AddDate(0, 0, 7)
}

// MonthlyAdvancer implements DateAdvancer for monthly definitions.
//
// Month arithmetic rolls forward: adding one month to Jan 31 normalizes
// through the nonexistent Feb 31 into early March. This matches the
// behavior the app has always had, so it is kept rather than clamped to
// the last day of the target month.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(from time.Time) time.Time {
	return from.AddDate(0, 1, 0)
}

// advanceStrategies maps frequencies to their corresponding advancers.
var advanceStrategies = map[core.Frequency]DateAdvancer{
	core.Daily:   DailyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Monthly: MonthlyAdvancer{},
}

// GetDateAdvancer returns the advancer for a frequency, or an error for
// an unsupported one.
func GetDateAdvancer(frequency core.Frequency) (DateAdvancer, error) {
	advancer, ok := advanceStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return advancer, nil
}

// RegisterDateAdvancer registers a custom advancer for a new frequency.
func RegisterDateAdvancer(frequency core.Frequency, advancer DateAdvancer) {
	advanceStrategies[frequency] = advancer
}

// AdvanceDate advances a YYYY-MM-DD date by one period of the given
// frequency.
func AdvanceDate(date string, frequency core.Frequency) (string, error) {
	advancer, err := GetDateAdvancer(frequency)
	if err != nil {
		return "", err
	}
	from, err := core.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return core.FormatDate(advancer.Advance(from)), nil
}
