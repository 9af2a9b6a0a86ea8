package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestTransactionCRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Date: "2025-01-15", Description: "Groceries", Amount: -100,
		Type: core.Expense, Category: "Groceries", Payment: "Bank",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if id == 0 {
		t.Fatal("expected a store-assigned id")
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(list) != 1 || list[0].Description != "Groceries" || list[0].Amount != -100 {
		t.Fatalf("list = %+v", list)
	}

	updated := list[0]
	updated.Amount = -120
	if err := repo.UpdateTransaction(ctx, id, updated); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	list, _ = repo.ListTransactions(ctx)
	if list[0].Amount != -120 {
		t.Errorf("amount = %v after update, want -120", list[0].Amount)
	}

	if err := repo.DeleteTransaction(ctx, id); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	list, _ = repo.ListTransactions(ctx)
	if len(list) != 0 {
		t.Errorf("len = %d after delete, want 0", len(list))
	}
}

func TestTransactionsOrderedByDate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, tx := range []core.Transaction{
		{Date: "2025-03-01", Description: "Later", Amount: -1, Type: core.Expense},
		{Date: "2025-01-01", Description: "Earlier", Amount: -1, Type: core.Expense},
		{Date: "2025-02-01", Description: "Middle", Amount: -1, Type: core.Expense},
	} {
		if _, err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	list, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	var got []string
	for _, tx := range list {
		got = append(got, tx.Date)
	}
	want := []string{"2025-01-01", "2025-02-01", "2025-03-01"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dates = %v, want %v", got, want)
		}
	}
}

func TestRecurringCRUD(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		Description: "Rent", Amount: -800, Type: core.Expense,
		Category: "Rent & Mortgage", Payment: "Bank",
		Frequency: core.Monthly, NextDueDate: "2025-02-01",
	})
	if err != nil {
		t.Fatalf("CreateRecurring() error = %v", err)
	}

	list, err := repo.ListRecurring(ctx)
	if err != nil {
		t.Fatalf("ListRecurring() error = %v", err)
	}
	if len(list) != 1 || list[0].Frequency != core.Monthly || list[0].NextDueDate != "2025-02-01" {
		t.Fatalf("list = %+v", list)
	}

	updated := list[0]
	updated.NextDueDate = "2025-03-01"
	if err := repo.UpdateRecurring(ctx, id, updated); err != nil {
		t.Fatalf("UpdateRecurring() error = %v", err)
	}
	list, _ = repo.ListRecurring(ctx)
	if list[0].NextDueDate != "2025-03-01" {
		t.Errorf("NextDueDate = %q, want 2025-03-01", list[0].NextDueDate)
	}

	if err := repo.DeleteRecurring(ctx, id); err != nil {
		t.Fatalf("DeleteRecurring() error = %v", err)
	}
}

func TestUpdateMissingRowReturnsNotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.UpdateTransaction(ctx, 42, core.Transaction{
		Date: "2025-01-01", Description: "Ghost", Amount: -1, Type: core.Expense,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateTransaction error = %v, want ErrNotFound", err)
	}

	if err := repo.DeleteRecurring(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteRecurring error = %v, want ErrNotFound", err)
	}
}

func TestRestoreKeepsIDsAndClearResets(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.RestoreTransaction(ctx, core.Transaction{
		ID: 7, Date: "2025-01-15", Description: "Imported", Amount: -10,
		Type: core.Expense, Category: "Other", Payment: "Bank",
	}); err != nil {
		t.Fatalf("RestoreTransaction() error = %v", err)
	}
	if err := repo.RestoreRecurring(ctx, core.RecurringTransaction{
		ID: 3, Description: "Rent", Amount: -800, Type: core.Expense,
		Category: "Rent & Mortgage", Payment: "Bank",
		Frequency: core.Monthly, NextDueDate: "2025-02-01",
	}); err != nil {
		t.Fatalf("RestoreRecurring() error = %v", err)
	}

	list, _ := repo.ListTransactions(ctx)
	if len(list) != 1 || list[0].ID != 7 {
		t.Fatalf("restored transaction = %+v, want verbatim id 7", list)
	}

	// New rows insert after the restored id, never colliding with it.
	newID, err := repo.CreateTransaction(ctx, core.Transaction{
		Date: "2025-01-16", Description: "Fresh", Amount: -5, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if newID <= 7 {
		t.Errorf("new id = %d, want > 7", newID)
	}

	if err := repo.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	list, _ = repo.ListTransactions(ctx)
	recurring, _ := repo.ListRecurring(ctx)
	if len(list) != 0 || len(recurring) != 0 {
		t.Errorf("ledger not empty after ClearAll: %d/%d", len(list), len(recurring))
	}

	// Counters reset: the first insert after a clear starts over at 1.
	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Date: "2025-01-17", Description: "Restart", Amount: -5, Type: core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if id != 1 {
		t.Errorf("id after clear = %d, want 1", id)
	}
}
