package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/raysh454/sitesearch/internal/dashboard"
	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/store"
	"github.com/raysh454/sitesearch/internal/view"
)

// Provider is the per-token slice of the hosting provider API the server uses.
type Provider interface {
	dashboard.SiteService
	CurrentUser(ctx context.Context) (*provider.User, error)
}

// ProviderFactory returns a Provider authenticated with token.
type ProviderFactory func(token string) Provider

// SessionStore persists logins and the deletion log.
type SessionStore interface {
	CreateSession(ctx context.Context, in store.NewSession, ttl time.Duration) (*store.Session, error)
	GetSession(ctx context.Context, id string) (*store.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListDeletions(ctx context.Context, userID string, limit int) ([]store.Deletion, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server is built from.
type Deps struct {
	Store     SessionStore
	Providers ProviderFactory
	Dashboard *dashboard.Manager
	Renderer  *view.Renderer
	Logger    logging.Logger
}

// Server is the HTTP surface of the site search dashboard.
type Server struct {
	cfg       Config
	router    chi.Router
	store     SessionStore
	providers ProviderFactory
	dashboard *dashboard.Manager
	renderer  *view.Renderer
	logger    logging.Logger
}

// NewServer wires the routes over deps.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: session store is required")
	}
	if deps.Providers == nil {
		return nil, errors.New("server: provider factory is required")
	}
	if deps.Dashboard == nil {
		return nil, errors.New("server: dashboard is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("server: logger is required")
	}
	if deps.Renderer == nil {
		deps.Renderer = view.New(view.DefaultConfig())
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}
	if cfg.AuthStartURL == "" {
		cfg.AuthStartURL = DefaultConfig().AuthStartURL
	}

	s := &Server{
		cfg:       cfg,
		router:    chi.NewRouter(),
		store:     deps.Store,
		providers: deps.Providers,
		dashboard: deps.Dashboard,
		renderer:  deps.Renderer,
		logger:    deps.Logger.With(logging.Component("server")),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	// Pages
	r.Get("/", s.handleIndex)
	r.Post("/login", s.handleLogin)
	r.Post("/auth/callback", s.handleAuthCallback)
	r.Post("/logout", s.handleLogout)
	r.Get("/sort/{key}", s.handleSort)
	r.Post("/refresh", s.handleRefresh)
	r.Post("/sites/{id}/delete", s.handleDeleteSitePage)

	// CORS preflight
	r.Options("/api/sites", s.optionsHandler("GET"))
	r.Options("/api/sites/{id}", s.optionsHandler("DELETE"))

	// JSON API
	r.Get("/api/sites", s.handleListSites)
	r.Delete("/api/sites/{id}", s.handleDeleteSite)
	r.Get("/api/user", s.handleCurrentUser)
	r.Get("/api/deletions", s.handleListDeletions)
	r.Get("/healthz", s.handleHealth)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler. Request bodies are never logged; the
// auth callback carries the bearer token.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

	s.router.ServeHTTP(ww, r)

	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
		{Key: "status", Value: ww.Status()},
		{Key: "duration", Value: time.Since(start).String()},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q.Encode()})
	}
	s.logger.Info("http_request", fields...)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps a provider failure onto the status we answer with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, provider.ErrMissingToken), errors.Is(err, provider.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) render(w http.ResponseWriter, status int, p view.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := s.renderer.Render(w, p); err != nil {
		s.logger.Error("rendering page", logging.Err(err))
	}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func identityOf(sess *store.Session) dashboard.Identity {
	return dashboard.Identity{
		SessionID: sess.ID,
		Token:     sess.Token,
		UserID:    sess.UserID,
		FullName:  sess.FullName,
		Email:     sess.Email,
	}
}
