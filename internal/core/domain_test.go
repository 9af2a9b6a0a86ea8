package core

import (
	"errors"
	"strings"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:        "2025-02-10",
		Description: "Groceries",
		Amount:      -12.50,
		Type:        Expense,
		Category:    "Groceries",
		Payment:     "Bank",
	}

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"oversized description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"bad date", func(tx *Transaction) { tx.Date = "2025-13-40" }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringTransactionValidate(t *testing.T) {
	valid := RecurringTransaction{
		Description: "Rent",
		Amount:      -800,
		Type:        Expense,
		Category:    "Rent & Mortgage",
		Payment:     "Bank",
		Frequency:   Monthly,
		NextDueDate: "2025-03-01",
	}

	tests := []struct {
		name    string
		mutate  func(rt *RecurringTransaction)
		wantErr error
	}{
		{"valid", func(rt *RecurringTransaction) {}, nil},
		{"bad frequency", func(rt *RecurringTransaction) { rt.Frequency = "yearly" }, ErrInvalidFrequency},
		{"bad due date", func(rt *RecurringTransaction) { rt.NextDueDate = "soon" }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := valid
			tt.mutate(&rt)
			err := rt.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	tests := []struct {
		name   string
		tt     TransactionType
		amount float64
		want   float64
	}{
		{"expense from positive", Expense, 50, -50},
		{"expense from negative", Expense, -50, -50},
		{"income from positive", Income, 120, 120},
		{"income from negative", Income, -120, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignedAmount(tt.tt, tt.amount); got != tt.want {
				t.Errorf("SignedAmount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignMatchesType(t *testing.T) {
	if !SignMatchesType(Expense, -10) {
		t.Error("negative expense should match")
	}
	if SignMatchesType(Expense, 10) {
		t.Error("positive expense should not match")
	}
	if !SignMatchesType(Income, 10) {
		t.Error("positive income should match")
	}
	if SignMatchesType(Income, 0) {
		t.Error("zero amount should never match")
	}
}
