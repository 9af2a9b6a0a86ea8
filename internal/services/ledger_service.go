package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
)

// Store is the durable ledger collaborator. Engines never touch it; the
// LedgerService loads snapshots from it and persists mutations back.
type Store interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, id int64, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error)
	UpdateRecurring(ctx context.Context, id int64, rt core.RecurringTransaction) error
	DeleteRecurring(ctx context.Context, id int64) error

	// RestoreTransaction and RestoreRecurring insert records verbatim,
	// id included. Used only by the replace import path.
	RestoreTransaction(ctx context.Context, t core.Transaction) error
	RestoreRecurring(ctx context.Context, rt core.RecurringTransaction) error

	ClearAll(ctx context.Context) error
}

// Ledger is an in-memory snapshot of the full data set. Engines operate
// on snapshots; the store owns the durable truth.
type Ledger struct {
	Transactions []core.Transaction
	Recurring    []core.RecurringTransaction
}

// ImportMode selects the merge strategy for an import.
type ImportMode string

const (
	// ImportMerge appends imported records with fresh store-assigned ids.
	ImportMerge ImportMode = "merge"
	// ImportReplace clears the store, then restores records verbatim.
	ImportReplace ImportMode = "replace"
)

// ImportStats reports what an import applied.
type ImportStats struct {
	Transactions int `json:"transactions"`
	Recurring    int `json:"recurring"`
}

// LedgerService orchestrates the pure engines against the store.
type LedgerService struct {
	store  Store
	policy CatchUpPolicy

	// projections collapses overlapping due checks into one pass so a
	// recurring definition can never double-fire.
	projections singleflight.Group
}

func NewLedgerService(store Store, policy CatchUpPolicy) *LedgerService {
	if policy == "" {
		policy = SingleOccurrence
	}
	return &LedgerService{store: store, policy: policy}
}

// Snapshot loads the full ledger from the store.
func (s *LedgerService) Snapshot(ctx context.Context) (Ledger, error) {
	transactions, err := s.store.ListTransactions(ctx)
	if err != nil {
		return Ledger{}, fmt.Errorf("list transactions: %w", err)
	}
	recurring, err := s.store.ListRecurring(ctx)
	if err != nil {
		return Ledger{}, fmt.Errorf("list recurring: %w", err)
	}
	return Ledger{Transactions: transactions, Recurring: recurring}, nil
}

// SaveTransaction validates, normalizes the amount sign from the type,
// and creates or updates depending on whether the id is set. Returns the
// stored id.
func (s *LedgerService) SaveTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	t.Amount = core.SignedAmount(t.Type, t.Amount)
	if err := t.Validate(); err != nil {
		return 0, err
	}

	if t.ID > 0 {
		if err := s.store.UpdateTransaction(ctx, t.ID, t); err != nil {
			return 0, fmt.Errorf("update transaction %d: %w", t.ID, err)
		}
		return t.ID, nil
	}
	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	return id, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// SaveRecurring validates and persists a recurring definition, creating
// or updating depending on whether the id is set.
func (s *LedgerService) SaveRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error) {
	rt.Amount = core.SignedAmount(rt.Type, rt.Amount)
	if err := rt.Validate(); err != nil {
		return 0, err
	}

	if rt.ID > 0 {
		if err := s.store.UpdateRecurring(ctx, rt.ID, rt); err != nil {
			return 0, fmt.Errorf("update recurring %d: %w", rt.ID, err)
		}
		return rt.ID, nil
	}
	id, err := s.store.CreateRecurring(ctx, rt)
	if err != nil {
		return 0, fmt.Errorf("create recurring: %w", err)
	}
	return id, nil
}

func (s *LedgerService) DeleteRecurring(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring %d: %w", id, err)
	}
	return nil
}

// Summary computes the monthly cash-flow summary for a YYYY-MM month.
func (s *LedgerService) Summary(ctx context.Context, month string) (MonthlySummary, error) {
	ledger, err := s.Snapshot(ctx)
	if err != nil {
		return MonthlySummary{}, err
	}
	return MonthlyData(ledger.Transactions, month), nil
}

// Breakdown computes the ranked per-category expense totals for a month.
func (s *LedgerService) Breakdown(ctx context.Context, month string) ([]CategoryAmount, error) {
	summary, err := s.Summary(ctx, month)
	if err != nil {
		return nil, err
	}
	return CategoryBreakdown(summary.Transactions), nil
}

// Insights computes the month-over-month comparison for a month.
func (s *LedgerService) Insights(ctx context.Context, month string) (*MonthlyInsight, error) {
	ledger, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeInsights(ledger.Transactions, month)
}

// Suggestions ranks autofill candidates for a partial description.
func (s *LedgerService) Suggestions(ctx context.Context, partial string) ([]Suggestion, error) {
	ledger, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Suggest(ledger.Transactions, partial), nil
}

// RunProjection runs one recurrence-projection pass for the given date
// and persists the result. Overlapping calls are collapsed into a single
// pass. For each firing the generated transaction is persisted before the
// advanced due date; when the transaction write fails the due date is
// left untouched so the occurrence re-triggers on the next pass.
func (s *LedgerService) RunProjection(ctx context.Context, today string) (int, error) {
	fired, err, _ := s.projections.Do("projection", func() (interface{}, error) {
		return s.runProjectionPass(ctx, today)
	})
	if err != nil {
		return 0, err
	}
	return fired.(int), nil
}

func (s *LedgerService) runProjectionPass(ctx context.Context, today string) (int, error) {
	ledger, err := s.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	result, err := ProjectDue(ledger.Recurring, ledger.Transactions, today, s.policy)
	if err != nil {
		return 0, fmt.Errorf("project due: %w", err)
	}
	if result.Fired() == 0 {
		return 0, nil
	}

	recurringByID := make(map[int64]core.RecurringTransaction, len(result.Recurring))
	for _, rt := range result.Recurring {
		recurringByID[rt.ID] = rt
	}

	persisted := 0
	failed := make(map[int64]bool)
	for _, firing := range result.Firings {
		// Once one occurrence of a definition fails to persist, later
		// firings of the same definition must not advance its due date
		// past the lost occurrence; it stays due and re-fires next pass.
		if failed[firing.RecurringID] {
			continue
		}

		tx := firing.Transaction
		tx.ID = 0 // store assigns the durable id
		if _, err := s.store.CreateTransaction(ctx, tx); err != nil {
			failed[firing.RecurringID] = true
			slog.ErrorContext(ctx, "Failed to persist projected transaction",
				"recurring_id", firing.RecurringID,
				"description", tx.Description,
				"error", err)
			continue
		}

		rt := recurringByID[firing.RecurringID]
		rt.NextDueDate = firing.NextDueDate
		if err := s.store.UpdateRecurring(ctx, rt.ID, rt); err != nil {
			// The transaction is durable; a stale due date means the next
			// pass fires again and duplicates the occurrence, which is
			// surfaced rather than hidden.
			return persisted, fmt.Errorf("advance recurring %d: %w", rt.ID, err)
		}
		persisted++
		slog.InfoContext(ctx, "Materialized recurring transaction",
			"recurring_id", firing.RecurringID,
			"description", tx.Description,
			"amount", tx.Amount,
			"next_due", firing.NextDueDate)
	}

	return persisted, nil
}

// ExportArchive returns the full ledger as an interchange archive.
func (s *LedgerService) ExportArchive(ctx context.Context) (Archive, error) {
	ledger, err := s.Snapshot(ctx)
	if err != nil {
		return Archive{}, err
	}
	return Archive{
		Transactions:          ledger.Transactions,
		RecurringTransactions: ledger.Recurring,
	}, nil
}

// Import applies an archive payload with the chosen merge strategy. The
// payload is parsed and validated up front; a malformed document rejects
// the whole import with no partial apply.
func (s *LedgerService) Import(ctx context.Context, data []byte, mode ImportMode) (ImportStats, error) {
	archive, err := ParseArchive(data)
	if err != nil {
		return ImportStats{}, err
	}

	switch mode {
	case ImportMerge:
		return s.importMerge(ctx, archive)
	case ImportReplace:
		return s.importReplace(ctx, archive)
	default:
		return ImportStats{}, fmt.Errorf("unknown import mode: %s", mode)
	}
}

func (s *LedgerService) importMerge(ctx context.Context, archive Archive) (ImportStats, error) {
	var stats ImportStats
	for _, t := range archive.Transactions {
		t.ID = 0
		if _, err := s.store.CreateTransaction(ctx, t); err != nil {
			return stats, fmt.Errorf("merge transaction: %w", err)
		}
		stats.Transactions++
	}
	for _, rt := range archive.RecurringTransactions {
		rt.ID = 0
		if _, err := s.store.CreateRecurring(ctx, rt); err != nil {
			return stats, fmt.Errorf("merge recurring: %w", err)
		}
		stats.Recurring++
	}
	return stats, nil
}

func (s *LedgerService) importReplace(ctx context.Context, archive Archive) (ImportStats, error) {
	if err := s.store.ClearAll(ctx); err != nil {
		return ImportStats{}, fmt.Errorf("clear store: %w", err)
	}

	var stats ImportStats
	for _, t := range archive.Transactions {
		if err := s.store.RestoreTransaction(ctx, t); err != nil {
			return stats, fmt.Errorf("restore transaction %d: %w", t.ID, err)
		}
		stats.Transactions++
	}
	for _, rt := range archive.RecurringTransactions {
		if err := s.store.RestoreRecurring(ctx, rt); err != nil {
			return stats, fmt.Errorf("restore recurring %d: %w", rt.ID, err)
		}
		stats.Recurring++
	}
	return stats, nil
}
