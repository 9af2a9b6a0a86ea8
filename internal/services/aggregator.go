// Package services provides the pure computation engines over a ledger
// snapshot (aggregation, recurrence projection, insights, suggestions)
// and the LedgerService that orchestrates them against durable storage.
package services

import (
	"math"
	"sort"

	"fintrack/internal/core"
)

// MonthlySummary is the derived cash-flow summary for one calendar month.
// TotalBalance always equals CarryForward + Balance.
type MonthlySummary struct {
	Month        string             `json:"month"`
	Transactions []core.Transaction `json:"transactions"`
	Expenses     float64            `json:"expenses"`
	Income       float64            `json:"income"`
	Balance      float64            `json:"balance"`
	CarryForward float64            `json:"carryForward"`
	TotalBalance float64            `json:"totalBalance"`
}

// CategoryAmount is a per-category expense total.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// MonthlyData computes the summary for the selected YYYY-MM month over the
// full transaction set. CarryForward accumulates the net balance of every
// month strictly before the selected one; if the selected month has no
// transactions it is absent from the month index and carry-forward stays 0.
func MonthlyData(transactions []core.Transaction, month string) MonthlySummary {
	summary := MonthlySummary{Month: month, Transactions: []core.Transaction{}}

	for _, t := range transactions {
		if t.InMonth(month) {
			summary.Transactions = append(summary.Transactions, t)
		}
	}
	summary.Expenses, summary.Income = periodTotals(summary.Transactions)
	summary.Balance = summary.Income - summary.Expenses

	months := core.MonthKeys(transactions)
	idx := indexOf(months, month)
	for i := 0; i < idx; i++ {
		var monthTxs []core.Transaction
		for _, t := range transactions {
			if t.InMonth(months[i]) {
				monthTxs = append(monthTxs, t)
			}
		}
		exp, inc := periodTotals(monthTxs)
		summary.CarryForward += inc - exp
	}

	summary.TotalBalance = summary.CarryForward + summary.Balance
	return summary
}

// CategoryBreakdown groups a month's expense transactions by category and
// returns the full list ranked by descending total. Callers truncate to
// their own top-N.
func CategoryBreakdown(monthTransactions []core.Transaction) []CategoryAmount {
	totals := make(map[string]float64)
	var order []string
	for _, t := range monthTransactions {
		if t.Type != core.Expense {
			continue
		}
		if _, ok := totals[t.Category]; !ok {
			order = append(order, t.Category)
		}
		totals[t.Category] += math.Abs(t.Amount)
	}

	breakdown := make([]CategoryAmount, 0, len(order))
	for _, cat := range order {
		breakdown = append(breakdown, CategoryAmount{Category: cat, Amount: totals[cat]})
	}
	// Stable sort keeps first-seen order between equal totals.
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Amount > breakdown[j].Amount
	})
	return breakdown
}

// periodTotals returns the expense magnitude sum and the income sum for a
// set of transactions.
func periodTotals(transactions []core.Transaction) (expenses, income float64) {
	for _, t := range transactions {
		switch t.Type {
		case core.Expense:
			expenses += math.Abs(t.Amount)
		case core.Income:
			income += t.Amount
		}
	}
	return expenses, income
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
