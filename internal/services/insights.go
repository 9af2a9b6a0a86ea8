package services

import (
	"errors"
	"math"
	"sort"

	"fintrack/internal/core"
)

// Percent-change guards for a zero previous-period baseline. The overall
// expense/income comparison reports PercentNoBaseline; a category that is
// new this month reports PercentNewCategory. The asymmetry is deliberate
// and long-standing, so both values are pinned here rather than unified.
const (
	PercentNoBaseline  = 0.0
	PercentNewCategory = 100.0
)

// categoryNoiseFloor filters out category deltas that are floating-point
// residue rather than real movement.
const categoryNoiseFloor = 0.01

// ErrInsufficientData is returned when the selected month has no strictly
// preceding month-with-data to compare against.
var ErrInsufficientData = errors.New("insufficient data for insights")

// CategoryChange is a month-over-month delta for one expense category.
type CategoryChange struct {
	Category      string  `json:"category"`
	Current       float64 `json:"current"`
	Previous      float64 `json:"previous"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
}

// MonthlyInsight compares a month against the previous month-with-data.
// "Previous" follows data presence in the sorted month index, not calendar
// adjacency: months with zero transactions are skipped entirely.
type MonthlyInsight struct {
	Month                 string           `json:"month"`
	PreviousMonth         string           `json:"previousMonth"`
	CurrentExpenses       float64          `json:"currentTotalExpenses"`
	PreviousExpenses      float64          `json:"previousTotalExpenses"`
	ExpenseChange         float64          `json:"expenseChange"`
	ExpensePercentChange  float64          `json:"expensePercentChange"`
	CurrentIncome         float64          `json:"currentTotalIncome"`
	PreviousIncome        float64          `json:"previousTotalIncome"`
	IncomeChange          float64          `json:"incomeChange"`
	IncomePercentChange   float64          `json:"incomePercentChange"`
	CategoryChanges       []CategoryChange `json:"categoryChanges"`
}

// ComputeInsights builds the month-over-month comparison for the selected
// YYYY-MM month. Returns ErrInsufficientData when the month is absent from
// the dataset or is the earliest month with data. Period totals here are
// raw (no carry-forward): insights compare what each month did on its own.
func ComputeInsights(transactions []core.Transaction, month string) (*MonthlyInsight, error) {
	months := core.MonthKeys(transactions)
	idx := indexOf(months, month)
	if idx < 1 {
		return nil, ErrInsufficientData
	}
	previous := months[idx-1]

	current := monthTransactions(transactions, month)
	prior := monthTransactions(transactions, previous)

	curExp, curInc := periodTotals(current)
	prevExp, prevInc := periodTotals(prior)

	insight := &MonthlyInsight{
		Month:            month,
		PreviousMonth:    previous,
		CurrentExpenses:  curExp,
		PreviousExpenses: prevExp,
		ExpenseChange:    curExp - prevExp,
		CurrentIncome:    curInc,
		PreviousIncome:   prevInc,
		IncomeChange:     curInc - prevInc,
	}
	insight.ExpensePercentChange = totalPercentChange(insight.ExpenseChange, prevExp)
	insight.IncomePercentChange = totalPercentChange(insight.IncomeChange, prevInc)
	insight.CategoryChanges = categoryChanges(current, prior)

	return insight, nil
}

// totalPercentChange guards a zero baseline to PercentNoBaseline even when
// the current period is nonzero.
func totalPercentChange(change, previous float64) float64 {
	if previous > 0 {
		return change / previous * 100
	}
	return PercentNoBaseline
}

func categoryChanges(current, previous []core.Transaction) []CategoryChange {
	curTotals := expenseTotalsByCategory(current)
	prevTotals := expenseTotalsByCategory(previous)

	seen := make(map[string]struct{}, len(curTotals)+len(prevTotals))
	var changes []CategoryChange
	for _, txs := range [][]core.Transaction{current, previous} {
		for _, t := range txs {
			if t.Type != core.Expense {
				continue
			}
			if _, ok := seen[t.Category]; ok {
				continue
			}
			seen[t.Category] = struct{}{}

			cur := curTotals[t.Category]
			prev := prevTotals[t.Category]
			change := CategoryChange{
				Category: t.Category,
				Current:  cur,
				Previous: prev,
				Change:   cur - prev,
			}
			switch {
			case prev > 0:
				change.PercentChange = change.Change / prev * 100
			case cur > 0:
				change.PercentChange = PercentNewCategory
			default:
				change.PercentChange = PercentNoBaseline
			}
			if math.Abs(change.Change) <= categoryNoiseFloor {
				continue
			}
			changes = append(changes, change)
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return math.Abs(changes[i].PercentChange) > math.Abs(changes[j].PercentChange)
	})
	return changes
}

func expenseTotalsByCategory(transactions []core.Transaction) map[string]float64 {
	totals := make(map[string]float64)
	for _, t := range transactions {
		if t.Type == core.Expense {
			totals[t.Category] += math.Abs(t.Amount)
		}
	}
	return totals
}

func monthTransactions(transactions []core.Transaction, month string) []core.Transaction {
	var out []core.Transaction
	for _, t := range transactions {
		if t.InMonth(month) {
			out = append(out, t)
		}
	}
	return out
}
