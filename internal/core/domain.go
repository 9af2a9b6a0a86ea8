package core

import (
	"errors"
	"math"
	"strings"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

type (
	TransactionType string

	Frequency string

	// Transaction is a single posted cash-flow event. Amount is signed:
	// negative for expenses, positive for income.
	Transaction struct {
		ID          int64           `json:"id"`
		Date        string          `json:"date"` // YYYY-MM-DD
		Description string          `json:"description"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Payment     string          `json:"payment"`
	}

	// RecurringTransaction is a template that periodically generates
	// Transactions. NextDueDate is advanced only by the projector.
	RecurringTransaction struct {
		ID          int64           `json:"id"`
		Description string          `json:"description"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Payment     string          `json:"payment"`
		Frequency   Frequency       `json:"frequency"`
		NextDueDate string          `json:"nextDueDate"` // YYYY-MM-DD
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrNotFound           = errors.New("not found")
)

func (tt TransactionType) Validate() error {
	switch tt {
	case Expense, Income:
		return nil
	default:
		return ErrInvalidType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

// SignedAmount applies the sign convention to a raw magnitude:
// expenses are stored negative, income positive.
func SignedAmount(tt TransactionType, amount float64) float64 {
	if tt == Expense {
		return -math.Abs(amount)
	}
	return math.Abs(amount)
}

// SignMatchesType reports whether a signed amount respects the convention.
// A zero amount is never valid.
func SignMatchesType(tt TransactionType, amount float64) bool {
	if amount == 0 {
		return false
	}
	if tt == Expense {
		return amount < 0
	}
	return amount > 0
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Amount == 0 {
		return ErrInvalidAmount
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if !ValidDate(t.Date) {
		return ErrInvalidDate
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if rt.Amount == 0 {
		return ErrInvalidAmount
	}
	if err := rt.Type.Validate(); err != nil {
		return err
	}
	if err := rt.Frequency.Validate(); err != nil {
		return err
	}
	if !ValidDate(rt.NextDueDate) {
		return ErrInvalidDate
	}
	return nil
}
