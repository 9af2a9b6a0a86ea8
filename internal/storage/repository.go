// Package storage persists the ledger in SQLite. The schema keeps dates as
// ISO strings and amounts as signed reals, matching the interchange format
// used by export and import.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the underlying database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const transactionColumns = "id, date, description, amount, type, category, payment"

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions ORDER BY date, id")
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		var t core.Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &t.Amount, &t.Type, &t.Category, &t.Payment); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return transactions, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions (date, description, amount, type, category, payment) VALUES (?, ?, ?, ?, ?, ?)",
		t.Date, t.Description, t.Amount, t.Type, t.Category, t.Payment)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET date = ?, description = ?, amount = ?, type = ?, category = ?, payment = ? WHERE id = ?",
		t.Date, t.Description, t.Amount, t.Type, t.Category, t.Payment, id)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return requireRow(res, "transaction", id)
}

const recurringColumns = "id, description, amount, type, category, payment, frequency, next_due_date"

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_transactions ORDER BY next_due_date, id")
	if err != nil {
		return nil, fmt.Errorf("list recurring: %w", err)
	}
	defer rows.Close()

	var recurring []core.RecurringTransaction
	for rows.Next() {
		var rt core.RecurringTransaction
		if err := rows.Scan(&rt.ID, &rt.Description, &rt.Amount, &rt.Type, &rt.Category, &rt.Payment, &rt.Frequency, &rt.NextDueDate); err != nil {
			return nil, fmt.Errorf("scan recurring: %w", err)
		}
		recurring = append(recurring, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring: %w", err)
	}

	return recurring, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO recurring_transactions (description, amount, type, category, payment, frequency, next_due_date) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rt.Description, rt.Amount, rt.Type, rt.Category, rt.Payment, rt.Frequency, rt.NextDueDate)
	if err != nil {
		return 0, fmt.Errorf("create recurring: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, id int64, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE recurring_transactions SET description = ?, amount = ?, type = ?, category = ?, payment = ?, frequency = ?, next_due_date = ? WHERE id = ?",
		rt.Description, rt.Amount, rt.Type, rt.Category, rt.Payment, rt.Frequency, rt.NextDueDate, id)
	if err != nil {
		return fmt.Errorf("update recurring %d: %w", id, err)
	}
	return requireRow(res, "recurring transaction", id)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM recurring_transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete recurring %d: %w", id, err)
	}
	return requireRow(res, "recurring transaction", id)
}

// RestoreTransaction inserts a transaction keeping its original id. Used by
// replace-mode import to rebuild the ledger exactly as exported.
func (r *SQLiteRepository) RestoreTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Date, t.Description, t.Amount, t.Type, t.Category, t.Payment)
	if err != nil {
		return fmt.Errorf("restore transaction %d: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) RestoreRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO recurring_transactions ("+recurringColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		rt.ID, rt.Description, rt.Amount, rt.Type, rt.Category, rt.Payment, rt.Frequency, rt.NextDueDate)
	if err != nil {
		return fmt.Errorf("restore recurring %d: %w", rt.ID, err)
	}
	return nil
}

// ClearAll wipes both tables and resets the autoincrement counters so a
// replace-mode import starts from a clean slate.
func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM transactions",
		"DELETE FROM recurring_transactions",
		"DELETE FROM sqlite_sequence WHERE name IN ('transactions', 'recurring_transactions')",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, kind string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", kind, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}
	return nil
}
