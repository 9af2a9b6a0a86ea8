package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// maxImportBytes bounds import payloads; archives are small JSON documents.
const maxImportBytes = 10 << 20

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	} else {
		checks["storage"] = "not_configured"
	}

	checks["cache"] = map[string]any{
		"summary_entries":   s.summaryCache.Size(),
		"breakdown_entries": s.breakdownCache.Size(),
		"insight_entries":   s.insightCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.activeClients(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ledger, err := s.ledger.Snapshot(r.Context())
		if err != nil {
			s.serveError(w, r, "List transactions error", err)
			return
		}
		if ledger.Transactions == nil {
			ledger.Transactions = []core.Transaction{}
		}
		writeJSON(w, http.StatusOK, ledger.Transactions)

	case http.MethodPost:
		var tx core.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction payload")
			return
		}
		tx.ID = 0
		s.saveTransaction(w, r, tx, http.StatusCreated)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/transactions/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var tx core.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			writeError(w, http.StatusBadRequest, "invalid transaction payload")
			return
		}
		tx.ID = id
		s.saveTransaction(w, r, tx, http.StatusOK)

	case http.MethodDelete:
		if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
			s.serveError(w, r, "Delete transaction error", err)
			return
		}
		s.invalidateViews()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) saveTransaction(w http.ResponseWriter, r *http.Request, tx core.Transaction, okStatus int) {
	tx.Description = sanitizeInput(tx.Description)
	tx.Category = sanitizeInput(tx.Category)
	tx.Payment = sanitizeInput(tx.Payment)

	id, err := s.ledger.SaveTransaction(r.Context(), tx)
	if err != nil {
		s.serveError(w, r, "Save transaction error", err)
		return
	}

	s.invalidateViews()
	writeJSON(w, okStatus, map[string]int64{"id": id})
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ledger, err := s.ledger.Snapshot(r.Context())
		if err != nil {
			s.serveError(w, r, "List recurring error", err)
			return
		}
		if ledger.Recurring == nil {
			ledger.Recurring = []core.RecurringTransaction{}
		}
		writeJSON(w, http.StatusOK, ledger.Recurring)

	case http.MethodPost:
		var rt core.RecurringTransaction
		if err := json.NewDecoder(r.Body).Decode(&rt); err != nil {
			writeError(w, http.StatusBadRequest, "invalid recurring payload")
			return
		}
		rt.ID = 0
		s.saveRecurring(w, r, rt, http.StatusCreated)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleRecurringByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r.URL.Path, "/api/recurring/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodPut:
		var rt core.RecurringTransaction
		if err := json.NewDecoder(r.Body).Decode(&rt); err != nil {
			writeError(w, http.StatusBadRequest, "invalid recurring payload")
			return
		}
		rt.ID = id
		s.saveRecurring(w, r, rt, http.StatusOK)

	case http.MethodDelete:
		if err := s.ledger.DeleteRecurring(r.Context(), id); err != nil {
			s.serveError(w, r, "Delete recurring error", err)
			return
		}
		s.invalidateViews()
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) saveRecurring(w http.ResponseWriter, r *http.Request, rt core.RecurringTransaction, okStatus int) {
	rt.Description = sanitizeInput(rt.Description)
	rt.Category = sanitizeInput(rt.Category)
	rt.Payment = sanitizeInput(rt.Payment)

	id, err := s.ledger.SaveRecurring(r.Context(), rt)
	if err != nil {
		s.serveError(w, r, "Save recurring error", err)
		return
	}

	s.invalidateViews()
	writeJSON(w, okStatus, map[string]int64{"id": id})
}

// handleProject triggers a projection pass for today. Safe to call
// repeatedly; an in-flight pass is shared, not duplicated.
func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	fired, err := s.ledger.RunProjection(r.Context(), core.Today())
	if err != nil {
		// An advance failure still reports how many transactions were
		// persisted before it; those invalidate the cached views.
		s.invalidateViews()
		s.serveError(w, r, "Projection error", err)
		return
	}
	if fired > 0 {
		s.invalidateViews()
	}

	writeJSON(w, http.StatusOK, map[string]int{"fired": fired})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	month, err := parseMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if summary, found := s.summaryCache.Get(month); found {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.ledger.Summary(r.Context(), month)
	if err != nil {
		s.serveError(w, r, "Summary error", err)
		return
	}

	s.summaryCache.Set(month, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	month, err := parseMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if breakdown, found := s.breakdownCache.Get(month); found {
		writeJSON(w, http.StatusOK, breakdown)
		return
	}

	breakdown, err := s.ledger.Breakdown(r.Context(), month)
	if err != nil {
		s.serveError(w, r, "Breakdown error", err)
		return
	}
	if breakdown == nil {
		breakdown = []services.CategoryAmount{}
	}

	s.breakdownCache.Set(month, breakdown)
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	month, err := parseMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if insight, found := s.insightCache.Get(month); found {
		writeJSON(w, http.StatusOK, insight)
		return
	}

	insight, err := s.ledger.Insights(r.Context(), month)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientData) {
			writeError(w, http.StatusNotFound, "not enough history for insights")
			return
		}
		s.serveError(w, r, "Insights error", err)
		return
	}

	s.insightCache.Set(month, insight)
	writeJSON(w, http.StatusOK, insight)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	suggestions, err := s.ledger.Suggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.serveError(w, r, "Suggestions error", err)
		return
	}
	if suggestions == nil {
		suggestions = []services.Suggestion{}
	}

	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	archive, err := s.ledger.ExportArchive(r.Context())
	if err != nil {
		s.serveError(w, r, "Export error", err)
		return
	}

	stamp := core.Today()
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		payload, err := services.MarshalArchive(archive)
		if err != nil {
			s.serveError(w, r, "Export encode error", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="fintrack-export-`+stamp+`.json"`)
		_, _ = w.Write(payload)

	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="fintrack-export-`+stamp+`.csv"`)
		if err := services.WriteCSV(w, archive.Transactions); err != nil {
			s.logError(r, "Export CSV error", err)
		}

	case "xlsx":
		book, err := services.BuildXLSX(archive)
		if err != nil {
			s.serveError(w, r, "Export XLSX error", err)
			return
		}
		defer book.Close()
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="fintrack-export-`+stamp+`.xlsx"`)
		if err := book.Write(w); err != nil {
			s.logError(r, "Export XLSX write error", err)
		}

	default:
		writeError(w, http.StatusBadRequest, "unsupported format: want json, csv, or xlsx")
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	mode := services.ImportMerge
	switch r.URL.Query().Get("mode") {
	case "", "merge":
	case "replace":
		mode = services.ImportReplace
	default:
		writeError(w, http.StatusBadRequest, "unsupported mode: want merge or replace")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import payload too large")
		return
	}

	stats, err := s.ledger.Import(r.Context(), body, mode)
	if err != nil {
		if errors.Is(err, services.ErrImportFormat) {
			writeError(w, http.StatusBadRequest, "unrecognized import format")
			return
		}
		// A store error can leave part of the archive applied; cached
		// views are stale either way.
		s.invalidateViews()
		s.serveError(w, r, "Import error", err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, stats)
}

// serveError maps service errors onto HTTP statuses and logs them.
func (s *Server) serveError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logError(r, msg, err)

	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidFrequency):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) logError(r *http.Request, msg string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), msg,
		log.FieldError, err.Error(),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
}
