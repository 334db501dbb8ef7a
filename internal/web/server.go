// Package web provides the HTTP API for workbook preview, paging and export.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/sheetinspect/internal/auth"
	"github.com/JonMunkholm/sheetinspect/internal/config"
	"github.com/JonMunkholm/sheetinspect/internal/core"
	mw "github.com/JonMunkholm/sheetinspect/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Identity is the account layer behind /api/auth. It is nil when no
// database is configured.
type Identity interface {
	Signup(ctx context.Context, email, password string) (*auth.Principal, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, bearer string) (*auth.Principal, error)
}

// Server is the HTTP server for the inspection API.
type Server struct {
	service  *core.Service
	identity Identity
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server instance. identity may be nil.
func NewServer(service *core.Service, identity Identity, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		identity: identity,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
// Inspect routes have no request timeout; a client disconnect cancels
// them through the request context.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(corsHandler(s.cfg.Security.CORSAllowedOrigins))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/inspect", func(r chi.Router) {
		preview := r.With()
		if s.cfg.Rate.Enabled {
			preview = r.With(s.newRateLimiter(s.cfg.Rate.UploadLimit).middleware)
		}
		preview.Post("/preview", s.handlePreview)

		r.Get("/sheet", s.handleSheet)
		r.Get("/export/csv", s.handleExportCSV)
		r.Get("/export/json", s.handleExportJSON)
	})

	if s.identity == nil {
		return
	}

	requireAuth := mw.RequireAuth(s.identity, respondError)
	requireAdmin := mw.RequireRole(auth.RoleAdmin, respondError)

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.With(requireAuth).Get("/me", s.handleMe)
		r.With(requireAuth, requireAdmin).Get("/admin/ping", s.handleAdminPing)
	})

	s.router.With(requireAuth, requireAdmin).Get("/api/admin/cache", s.handleCacheStats)
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // 0 by default for streamed exports
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// corsHandler allows the configured origins. "*" allows any origin.
func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:         600,
	}).Handler
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// The API serves no documents, so nothing may be loaded from a response.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
