package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"financeflow/internal/backend"
	"financeflow/internal/catalog"
	"financeflow/internal/core"
	applog "financeflow/internal/log"
	"financeflow/internal/middleware/ratelimit"
	"financeflow/internal/middleware/security"
	"financeflow/internal/middleware/trace"
	"financeflow/internal/services"
)

// Pinger reports whether the ledger store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server; zero values select defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Now is the clock used for default dates and catch-up passes.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger    *services.LedgerService
	processor *services.RecurringProcessor
	reports   *services.ReportService
	catalog   *catalog.Catalog
	store     Pinger

	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	now          func() time.Time
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *backend.Ledger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	clientIP := security.NewClientIPResolver()
	s := &Server{
		ledger:    ledger.Service,
		processor: ledger.Processor,
		reports:   ledger.Reports,
		catalog:   ledger.Catalog,
		store:     ledger.Store,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:    trace.NewMiddleware(opts.Logger.WithComponent(applog.ComponentHTTP), clientIP.ExtractClientIP),
		now:       opts.Now,
		started:   time.Now(),
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusNotFound, codeNotFound, "route not found").Write(w)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed").Write(w)
	})

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.limiter.Middleware(clientIP.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded, please try again later").Write(w)
	}))
	s.registerRoutes(api)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(router)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(api *mux.Router) {
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{name}", s.handleRenameAccount).Methods(http.MethodPatch)
	api.HandleFunc("/accounts/{name}", s.handleDeleteAccount).Methods(http.MethodDelete)

	for _, route := range []struct {
		path string
		kind core.Kind
	}{
		{"/expenses", core.KindExpense},
		{"/income", core.KindIncome},
	} {
		api.HandleFunc(route.path, s.handleCreateMovement(route.kind)).Methods(http.MethodPost)
		api.HandleFunc(route.path, s.handleListMovements(route.kind)).Methods(http.MethodGet)
		api.HandleFunc(route.path+"/{id:[0-9]+}", s.handleUpdateMovement(route.kind)).Methods(http.MethodPatch)
		api.HandleFunc(route.path+"/{id:[0-9]+}", s.handleDeleteMovement(route.kind)).Methods(http.MethodDelete)
	}
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/transfers", s.handleTransfer).Methods(http.MethodPost)

	api.HandleFunc("/recurring", s.handleAddRecurring).Methods(http.MethodPost)
	api.HandleFunc("/recurring", s.handleListRecurring).Methods(http.MethodGet)
	api.HandleFunc("/recurring/process", s.handleProcessDue).Methods(http.MethodPost)
	api.HandleFunc("/recurring/{id:[0-9]+}", s.handleUpdateRecurring).Methods(http.MethodPatch)
	api.HandleFunc("/recurring/{id:[0-9]+}", s.handleDeleteRecurring).Methods(http.MethodDelete)

	api.HandleFunc("/analytics/categories", s.handleSummarizeByCategory).Methods(http.MethodGet)
	api.HandleFunc("/analytics/summary", s.handleFinancialSummary).Methods(http.MethodGet)
	api.HandleFunc("/analytics/top", s.handleTopCategories).Methods(http.MethodGet)
	api.HandleFunc("/analytics/trend", s.handleCategoryTrend).Methods(http.MethodGet)

	api.HandleFunc("/budgets", s.handleSetBudget).Methods(http.MethodPut)
	api.HandleFunc("/budgets/{month}", s.handleBudgetStatus).Methods(http.MethodGet)

	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics exposes request counters from the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
