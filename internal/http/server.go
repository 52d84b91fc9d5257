package http

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/services"
)

// Pinger reports whether the ledger storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the ledger use cases the API exposes.
type Services struct {
	Users        *services.UserService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	Reconciler   *services.ReconcilerService
	Storage      Pinger
}

// Options tune the server. Zero values pick defaults.
type Options struct {
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
}

// Server is the JSON API in front of the ledger.
type Server struct {
	http.Server

	svc       Services
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *applog.StructuredLogger
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Level: slog.LevelInfo, Component: applog.ComponentHTTP})
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	structured := applog.NewStructuredLogger(logger)

	s := &Server{
		svc:       svc,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP, structured),
		logger:    structured,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(detector.ExtractClientIP, isMutation, s.rejectRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/users", s.handleRegisterUser)
	mux.HandleFunc("GET /api/me", s.authenticated(s.handleGetMe))
	mux.HandleFunc("DELETE /api/me", s.authenticated(s.handleDeleteMe))

	mux.HandleFunc("GET /api/accounts", s.authenticated(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.authenticated(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}", s.authenticated(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.authenticated(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.authenticated(s.handleDeleteAccount))
	mux.HandleFunc("GET /api/accounts/{id}/reconcile", s.authenticated(s.handleReconcileAccount))

	mux.HandleFunc("GET /api/categories", s.authenticated(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.authenticated(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories/{id}", s.authenticated(s.handleGetCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.authenticated(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.authenticated(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.authenticated(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.authenticated(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.authenticated(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.authenticated(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.authenticated(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/dashboard", s.authenticated(s.handleDashboard))
}

// userHandler serves a request on behalf of an identified user.
type userHandler func(w http.ResponseWriter, r *http.Request, owner core.UserID)

// authenticated resolves the identity header and rejects the request with 401
// when it is missing or malformed.
func (s *Server) authenticated(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ParseUserID(r)
		if err != nil {
			s.fail(w, r, err, "authenticate")
			return
		}
		next(w, r.WithContext(applog.WithUser(r.Context(), owner)), owner)
	}
}

// fail writes the response for err. Only server-side failures are logged here:
// the trace middleware already records the status of every request.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, operation string) {
	resp := ResponseForError(err)
	if resp.statusCode >= http.StatusInternalServerError {
		s.logger.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operation, nil)
	}
	resp.Write(w)
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request, wait time.Duration) {
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		"component", applog.ComponentRateLimit,
		"client_ip", s.detector.ExtractClientIP(r),
		"method", r.Method,
		"path", r.URL.Path)
	TooManyRequestsError(int(math.Ceil(wait.Seconds()))).Write(w)
}

func isMutation(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Shutdown stops background work and drains the HTTP server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
