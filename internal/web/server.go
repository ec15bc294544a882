// Package web serves the cleaning engine over HTTP: a JSON API for
// cleaning uploads and browsing run history, plus small HTML run views.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/history"
	"github.com/JonMunkholm/csvclean/internal/rules"
	"github.com/JonMunkholm/csvclean/internal/schema"
	"github.com/JonMunkholm/csvclean/internal/web/middleware"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Config  *config.Config
	Catalog *schema.Catalog
	History history.Store
	// Quantitative loads the answer lookup table on first use.
	Quantitative func() (*rules.QuantitativeTable, error)
	Logger       *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP server for the cleaning API.
type Server struct {
	cfg          *config.Config
	catalog      *schema.Catalog
	history      history.Store
	quantitative func() (*rules.QuantitativeTable, error)
	limiter      *core.CleanLimiter
	logger       *slog.Logger
	now          func() time.Time

	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server and wires its routes.
func NewServer(d Deps) *Server {
	s := &Server{
		cfg:          d.Config,
		catalog:      d.Catalog,
		history:      d.History,
		quantitative: d.Quantitative,
		logger:       d.Logger,
		now:          d.Now,
		router:       chi.NewRouter(),
	}
	if s.history == nil {
		s.history = history.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.limiter = core.NewCleanLimiter(s.cfg.Server.MaxConcurrent, s.cfg.Server.MaxWaitTime)
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/runs/{runID}", s.handleRunPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Get("/datasets", s.handleListDatasets)
		r.Get("/rules", s.handleListRules)
		r.Get("/status", s.handleStatus)

		r.Post("/clean/{dataset}", s.handleClean)

		r.Get("/history", s.handleHistory)
		r.Get("/history/{dataset}", s.handleHistory)
		r.Get("/runs/{runID}", s.handleGetRun)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight cleans.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if drainErr := s.limiter.WaitForDrain(ctx); err == nil {
		err = drainErr
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
