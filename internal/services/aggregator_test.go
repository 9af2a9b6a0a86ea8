package services

import (
	"math"
	"testing"

	"fintrack/internal/core"
)

const amountEpsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < amountEpsilon
}

func sampleHistory() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Date: "2025-01-15", Description: "Groceries", Amount: -100, Type: core.Expense, Category: "Groceries"},
		{ID: 2, Date: "2025-02-10", Description: "Salary", Amount: 500, Type: core.Income, Category: "Salary"},
		{ID: 3, Date: "2025-02-12", Description: "LIDL", Amount: -50, Type: core.Expense, Category: "Groceries"},
	}
}

func TestMonthlyData(t *testing.T) {
	tests := []struct {
		name             string
		month            string
		wantExpenses     float64
		wantIncome       float64
		wantBalance      float64
		wantCarryForward float64
		wantTotal        float64
		wantCount        int
	}{
		{
			name:         "first month has zero carry-forward",
			month:        "2025-01",
			wantExpenses: 100, wantIncome: 0, wantBalance: -100,
			wantCarryForward: 0, wantTotal: -100, wantCount: 1,
		},
		{
			name:         "second month carries full history",
			month:        "2025-02",
			wantExpenses: 50, wantIncome: 500, wantBalance: 450,
			wantCarryForward: -100, wantTotal: 350, wantCount: 2,
		},
		{
			name:         "month without data defaults carry-forward to zero",
			month:        "2025-03",
			wantExpenses: 0, wantIncome: 0, wantBalance: 0,
			wantCarryForward: 0, wantTotal: 0, wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyData(sampleHistory(), tt.month)
			if !almostEqual(got.Expenses, tt.wantExpenses) {
				t.Errorf("Expenses = %v, want %v", got.Expenses, tt.wantExpenses)
			}
			if !almostEqual(got.Income, tt.wantIncome) {
				t.Errorf("Income = %v, want %v", got.Income, tt.wantIncome)
			}
			if !almostEqual(got.Balance, tt.wantBalance) {
				t.Errorf("Balance = %v, want %v", got.Balance, tt.wantBalance)
			}
			if !almostEqual(got.CarryForward, tt.wantCarryForward) {
				t.Errorf("CarryForward = %v, want %v", got.CarryForward, tt.wantCarryForward)
			}
			if !almostEqual(got.TotalBalance, tt.wantTotal) {
				t.Errorf("TotalBalance = %v, want %v", got.TotalBalance, tt.wantTotal)
			}
			if len(got.Transactions) != tt.wantCount {
				t.Errorf("len(Transactions) = %d, want %d", len(got.Transactions), tt.wantCount)
			}
			if !almostEqual(got.TotalBalance, got.CarryForward+got.Balance) {
				t.Errorf("TotalBalance %v != CarryForward %v + Balance %v",
					got.TotalBalance, got.CarryForward, got.Balance)
			}
		})
	}
}

func TestMonthlyDataEmptySet(t *testing.T) {
	got := MonthlyData(nil, "2025-01")
	if got.Expenses != 0 || got.Income != 0 || got.CarryForward != 0 || got.TotalBalance != 0 {
		t.Errorf("empty set should produce all-zero summary, got %+v", got)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []core.Transaction{
		{Date: "2025-02-01", Amount: -30, Type: core.Expense, Category: "Groceries"},
		{Date: "2025-02-02", Amount: -80, Type: core.Expense, Category: "Rent & Mortgage"},
		{Date: "2025-02-03", Amount: -20, Type: core.Expense, Category: "Groceries"},
		{Date: "2025-02-04", Amount: 900, Type: core.Income, Category: "Salary"},
	}

	got := CategoryBreakdown(txs)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (income must be excluded)", len(got))
	}
	if got[0].Category != "Rent & Mortgage" || !almostEqual(got[0].Amount, 80) {
		t.Errorf("top category = %+v, want Rent & Mortgage 80", got[0])
	}
	if got[1].Category != "Groceries" || !almostEqual(got[1].Amount, 50) {
		t.Errorf("second category = %+v, want Groceries 50", got[1])
	}
}

func TestCategoryBreakdownTieKeepsFirstSeenOrder(t *testing.T) {
	txs := []core.Transaction{
		{Date: "2025-02-01", Amount: -10, Type: core.Expense, Category: "Pet Care"},
		{Date: "2025-02-02", Amount: -10, Type: core.Expense, Category: "Electronics"},
	}

	got := CategoryBreakdown(txs)
	if len(got) != 2 || got[0].Category != "Pet Care" || got[1].Category != "Electronics" {
		t.Errorf("tie order = %v, want first-seen order", got)
	}
}
