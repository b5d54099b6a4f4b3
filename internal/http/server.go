package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"zenbudget/internal/auth"
	"zenbudget/internal/cache"
	"zenbudget/internal/changefeed"
	"zenbudget/internal/export"
	"zenbudget/internal/log"
	"zenbudget/internal/middleware/ratelimit"
	"zenbudget/internal/middleware/security"
	"zenbudget/internal/middleware/trace"
	"zenbudget/internal/session"
)

// Pinger reports whether the backing services are reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SheetsExporter publishes a report to a spreadsheet.
type SheetsExporter interface {
	Export(ctx context.Context, r export.Report) (string, error)
}

// Deps are the collaborators of the server. Google and Sheets are optional.
type Deps struct {
	Backend     Pinger
	Sessions    *session.Manager
	Feed        *changefeed.Feed
	Passwords   *auth.PasswordProvider
	Google      *auth.GoogleProvider
	Tokens      *auth.Tokens
	Dashboards  *cache.Dashboards
	Sheets      SheetsExporter
	Limiter     *ratelimit.Limiter
	AuthLimiter *ratelimit.Limiter
	IPs         *security.IPResolver
	Logger      *log.Logger
	Currency    string
	// Location is the calendar used for month and day boundaries.
	Location *time.Location
	Now      func() time.Time
}

type Server struct {
	http.Server
	deps    Deps
	logger  *log.Logger
	tracer  *trace.Tracer
	started time.Time
}

// NewServer wires the routes and returns a server listening on addr.
func NewServer(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = log.Default(log.ComponentHTTP)
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	if d.AuthLimiter == nil {
		d.AuthLimiter = ratelimit.NewLimiter(ratelimit.Config{Requests: 20, Window: time.Minute})
	}
	if d.IPs == nil {
		d.IPs, _ = security.NewIPResolver()
	}
	if d.Dashboards == nil {
		d.Dashboards = cache.NewDashboards(256, time.Minute)
	}

	s := &Server{
		deps:    d,
		logger:  d.Logger.WithComponent(log.ComponentHTTP),
		tracer:  trace.New(),
		started: time.Now(),
	}
	s.Addr = addr
	s.Handler = s.routes()
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = 15 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(log.Middleware(s.logger, trace.FromRequest))
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.deps.Limiter.Middleware(s.deps.IPs.ClientIP, tooManyRequests))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)

		r.Route("/auth", func(r chi.Router) {
			r.With(s.deps.AuthLimiter.Middleware(s.deps.IPs.ClientIP, tooManyRequests)).Group(func(r chi.Router) {
				r.Post("/register", s.handleRegister)
				r.Post("/login", s.handleLogin)
				r.Get("/google", s.handleGoogleStart)
				r.Get("/google/callback", s.handleGoogleCallback)
			})
			r.With(s.requireSession).Post("/logout", s.handleLogout)
		})

		// Protected routes
		r.With(s.requireSession).Group(func(r chi.Router) {
			r.Get("/me", s.handleGetMe)
			r.Put("/me", s.handleUpdateMe)

			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handleUpdatePreferences)
			r.Post("/preferences/theme/toggle", s.handleToggleTheme)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/budgets", s.handleBudgets)

			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Get("/transactions/months", s.handleTransactionMonths)
			r.Put("/transactions/{id}", s.handleUpdateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/export", s.handleExport)
			r.Post("/export/sheets", s.handleExportSheets)

			r.Get("/ws", s.handleWebSocket)
		})
	})
	return r
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

func (s *Server) now() time.Time {
	return s.deps.Now().In(s.deps.Location)
}

// Shutdown stops accepting requests, then closes every open session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	s.deps.Sessions.CloseAll()
	return err
}
