package services

import (
	"fmt"

	"fintrack/internal/core"
)

// CatchUpPolicy names how the projector handles a definition whose due
// date is more than one period in the past.
type CatchUpPolicy string

const (
	// SingleOccurrence generates exactly one catch-up transaction per due
	// definition per pass, dated today, and advances the due date by one
	// period from today. A definition left overdue catches up across
	// repeated passes. This is the app's long-standing behavior.
	SingleOccurrence CatchUpPolicy = "single"

	// BackfillMissed generates one transaction per missed period, each
	// dated on its scheduled due date, until the definition is no longer
	// due.
	BackfillMissed CatchUpPolicy = "backfill"
)

func (p CatchUpPolicy) Validate() error {
	switch p {
	case SingleOccurrence, BackfillMissed:
		return nil
	default:
		return fmt.Errorf("unknown catch-up policy: %s", p)
	}
}

// AutoSuffix marks transactions materialized from a recurring definition.
const AutoSuffix = " (Auto)"

// Firing pairs one materialized transaction with the due date its
// definition advances to. Callers persist the transaction before the
// advanced date so a failure in between re-triggers the same occurrence
// instead of silently skipping it.
type Firing struct {
	RecurringID int64
	Transaction core.Transaction
	NextDueDate string
}

// ProjectionResult holds the updated working sets after a projection
// pass. The input slices are never mutated.
type ProjectionResult struct {
	Transactions []core.Transaction
	Recurring    []core.RecurringTransaction
	Firings      []Firing
}

// Fired returns how many occurrences were materialized in the pass.
func (r ProjectionResult) Fired() int { return len(r.Firings) }

// ProjectDue materializes a transaction for every recurring definition
// whose nextDueDate is today or earlier, and advances the fired
// definitions' due dates per the catch-up policy. Fresh ids are assigned
// optimistically (max of the working set plus one) so simultaneous
// firings stay distinct; durable ids are assigned by the store when the
// result is persisted.
func ProjectDue(recurring []core.RecurringTransaction, transactions []core.Transaction, today string, policy CatchUpPolicy) (ProjectionResult, error) {
	if err := policy.Validate(); err != nil {
		return ProjectionResult{}, err
	}
	if !core.ValidDate(today) {
		return ProjectionResult{}, fmt.Errorf("invalid projection date %q: %w", today, core.ErrInvalidDate)
	}

	result := ProjectionResult{
		Transactions: append([]core.Transaction(nil), transactions...),
		Recurring:    append([]core.RecurringTransaction(nil), recurring...),
	}

	nextID := maxTransactionID(result.Transactions) + 1

	for i := range result.Recurring {
		rt := &result.Recurring[i]
		// Lexicographic comparison is chronological for YYYY-MM-DD.
		for rt.NextDueDate <= today {
			postDate := today
			advanceFrom := today
			if policy == BackfillMissed {
				postDate = rt.NextDueDate
				advanceFrom = rt.NextDueDate
			}

			nextDue, err := AdvanceDate(advanceFrom, rt.Frequency)
			if err != nil {
				return ProjectionResult{}, fmt.Errorf("advance recurring %d: %w", rt.ID, err)
			}

			tx := core.Transaction{
				ID:          nextID,
				Date:        postDate,
				Description: rt.Description + AutoSuffix,
				Amount:      rt.Amount,
				Type:        rt.Type,
				Category:    rt.Category,
				Payment:     rt.Payment,
			}
			nextID++

			result.Transactions = append(result.Transactions, tx)
			rt.NextDueDate = nextDue
			result.Firings = append(result.Firings, Firing{
				RecurringID: rt.ID,
				Transaction: tx,
				NextDueDate: nextDue,
			})

			if policy == SingleOccurrence {
				break
			}
		}
	}

	return result, nil
}

func maxTransactionID(transactions []core.Transaction) int64 {
	var max int64
	for _, t := range transactions {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}
