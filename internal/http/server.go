package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// Ledger is the service surface the HTTP layer depends on.
type Ledger interface {
	Snapshot(ctx context.Context) (services.Ledger, error)
	SaveTransaction(ctx context.Context, t core.Transaction) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
	SaveRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error)
	DeleteRecurring(ctx context.Context, id int64) error
	Summary(ctx context.Context, month string) (services.MonthlySummary, error)
	Breakdown(ctx context.Context, month string) ([]services.CategoryAmount, error)
	Insights(ctx context.Context, month string) (*services.MonthlyInsight, error)
	Suggestions(ctx context.Context, partial string) ([]services.Suggestion, error)
	RunProjection(ctx context.Context, today string) (int, error)
	ExportArchive(ctx context.Context) (services.Archive, error)
	Import(ctx context.Context, data []byte, mode services.ImportMode) (services.ImportStats, error)
}

// Pinger reports storage reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes server-side caching.
type Options struct {
	CacheTTL  time.Duration
	CacheSize int
}

func (o *Options) withDefaults() Options {
	opts := Options{CacheTTL: 5 * time.Minute, CacheSize: 100}
	if o == nil {
		return opts
	}
	if o.CacheTTL > 0 {
		opts.CacheTTL = o.CacheTTL
	}
	if o.CacheSize > 0 {
		opts.CacheSize = o.CacheSize
	}
	return opts
}

type Server struct {
	http.Server
	ledger      Ledger
	pinger      Pinger
	logger      *log.Logger
	rateLimiter *rateLimiter

	// Month-keyed read caches; cleared wholesale on any mutation since a
	// write to one month shifts the carry-forward of every later month.
	summaryCache   *cache.LRUCache[services.MonthlySummary]
	breakdownCache *cache.LRUCache[[]services.CategoryAmount]
	insightCache   *cache.LRUCache[*services.MonthlyInsight]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, pinger Pinger, logger *log.Logger, opts *Options) *Server {
	mux := http.NewServeMux()
	o := opts.withDefaults()

	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:      ledger,
		pinger:      pinger,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),

		summaryCache:   cache.NewLRUCache[services.MonthlySummary](o.CacheSize, o.CacheTTL),
		breakdownCache: cache.NewLRUCache[[]services.CategoryAmount](o.CacheSize, o.CacheTTL),
		insightCache:   cache.NewLRUCache[*services.MonthlyInsight](o.CacheSize, o.CacheTTL),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.breakdownCache)
	s.cacheManager.Register(s.insightCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/transactions", s.withSecurityHeaders(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withSecurityHeaders(s.handleTransactionByID))
	mux.HandleFunc("/api/recurring", s.withSecurityHeaders(s.handleRecurring))
	mux.HandleFunc("/api/recurring/project", s.withSecurityHeaders(s.handleProject))
	mux.HandleFunc("/api/recurring/", s.withSecurityHeaders(s.handleRecurringByID))
	mux.HandleFunc("/api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("/api/breakdown", s.withSecurityHeaders(s.handleBreakdown))
	mux.HandleFunc("/api/insights", s.withSecurityHeaders(s.handleInsights))
	mux.HandleFunc("/api/suggestions", s.withSecurityHeaders(s.handleSuggestions))
	mux.HandleFunc("/api/export", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("/api/import", s.withSecurityHeaders(s.handleImport))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateViews drops every cached derived view after a ledger mutation.
func (s *Server) invalidateViews() {
	s.summaryCache.Clear()
	s.breakdownCache.Clear()
	s.insightCache.Clear()
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), log.LoggerContextKey, s.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate-limit mutating requests only; reads are cache-backed.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
