// Package mockprovider is a local stand-in for the hosting provider: it
// serves the login redirect and the few REST endpoints the dashboard uses,
// plus a control panel to reset the seeded sites.
package mockprovider

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/sitesearch/internal/auth"
	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/provider"
)

// AuthStartPath is where the mock serves the login redirect.
const AuthStartPath = "/.netlify/functions/auth-start"

// APIPrefix is the mount point of the REST endpoints.
const APIPrefix = "/api/v1"

// Server is a mock hosting provider.
type Server struct {
	cfg    Config
	router chi.Router
	logger logging.Logger
	tmpl   *template.Template

	mu      sync.RWMutex
	sites   []provider.Site
	deleted int
}

// New creates a mock provider seeded from cfg.
func New(cfg Config, logger logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger.With(logging.Component("mockprovider")),
		tmpl:   template.Must(template.New("control").Parse(controlPanelHTML)),
	}
	s.sites = s.seed()
	s.routes()
	return s
}

func (s *Server) seed() []provider.Site {
	if s.cfg.Sites != nil {
		return slices.Clone(s.cfg.Sites)
	}
	return SeedSites()
}

func (s *Server) routes() {
	r := s.router

	r.Get(AuthStartPath, s.authStartHandler)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/sites", s.listSitesHandler)
		r.Delete("/sites/{id}", s.deleteSiteHandler)
		r.Get("/user", s.userHandler)
	})

	// Control panel
	r.Get("/mock/control", s.controlPanelHandler)
	r.Get("/mock/sites", s.stateHandler)
	r.Post("/mock/reset", s.resetHandler)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("mock_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})
	s.router.ServeHTTP(w, r)
}

// Start listens on cfg.Addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock provider listening",
			logging.Field{Key: "addr", Value: s.cfg.Addr},
			logging.Field{Key: "control_panel", Value: "/mock/control"})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Sites returns a copy of the current site list.
func (s *Server) Sites() []provider.Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sites)
}

// Reset restores the seeded site list.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites = s.seed()
	s.deleted = 0
}

// authStartHandler plays the OAuth round trip: it redirects straight back
// to ?url= with the encoded token, the csrf nonce and the user in the
// fragment.
func (s *Server) authStartHandler(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("url")
	csrf := r.URL.Query().Get("csrf")
	if returnTo == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}
	target, err := url.Parse(returnTo)
	if err != nil {
		http.Error(w, "invalid url parameter", http.StatusBadRequest)
		return
	}

	token := s.cfg.Token
	if token == "" {
		token = "mock-token"
	}
	target.Fragment = ""
	target.RawFragment = ""
	fragment := auth.User{
		Token:    auth.EncodeToken(token),
		CSRF:     csrf,
		FullName: s.cfg.User.FullName,
		Email:    s.cfg.User.Email,
		Avatar:   s.cfg.User.AvatarURL,
	}.Fragment()

	s.logger.Info("issued mock login", logging.Field{Key: "return_to", Value: target.String()})
	http.Redirect(w, r, target.String()+"#"+fragment, http.StatusFound)
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		valid := ok && strings.EqualFold(scheme, "Bearer") && token != ""
		if valid && s.cfg.Token != "" {
			valid = token == s.cfg.Token
		}
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "401", "message": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listSitesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sites())
}

func (s *Server) deleteSiteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	i := slices.IndexFunc(s.sites, func(site provider.Site) bool { return site.ID == id })
	if i >= 0 {
		s.sites = slices.Delete(s.sites, i, i+1)
		s.deleted++
	}
	s.mu.Unlock()

	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "404", "message": "Not Found"})
		return
	}
	s.logger.Info("deleted mock site", logging.Field{Key: "site_id", Value: id})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.User)
}

// controlPanelHandler serves the control panel.
func (s *Server) controlPanelHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	data := struct {
		Sites   []provider.Site
		Deleted int
		User    provider.User
	}{
		Sites:   slices.Clone(s.sites),
		Deleted: s.deleted,
		User:    s.cfg.User,
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("rendering control panel", logging.Err(err))
	}
}

// stateHandler reports the current site count and deletions.
func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"sites":   len(s.sites),
		"deleted": s.deleted,
	})
}

// resetHandler restores the seeded sites.
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.Reset()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Sites reset to seed",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const controlPanelHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Mock Provider Control Panel</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 1000px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        h1 { color: #333; border-bottom: 2px solid #00ad9f; padding-bottom: 10px; }
        .site-card { background: white; border-radius: 8px; padding: 12px 20px; margin: 10px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .site-name { font-weight: bold; color: #00ad9f; }
        .site-meta { color: #666; font-size: 0.9em; }
        .global-controls { background: #fff3cd; padding: 20px; border-radius: 8px; margin-bottom: 20px; }
        .reset-btn { padding: 10px 20px; border: none; border-radius: 4px; cursor: pointer; background: #dc3545; color: white; }
        .info-box { background: #e7f3ff; padding: 15px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #007bff; }
    </style>
</head>
<body>
    <h1>Mock Provider Control Panel</h1>

    <div class="info-box">
        Logins sign in as <strong>{{.User.FullName}}</strong> ({{.User.Email}}).
        Point the dashboard's auth-start and API base URLs at this server.
    </div>

    <div class="global-controls">
        <span id="counts">{{len .Sites}} sites, {{.Deleted}} deleted</span>
        <button class="reset-btn" onclick="resetSites()">Reset sites</button>
    </div>

    {{range .Sites}}
    <div class="site-card" data-id="{{.ID}}">
        <span class="site-name">{{.Name}}</span>
        <div class="site-meta">{{.ID}} · {{.AccountName}} · {{.SSLURL}}</div>
    </div>
    {{end}}

    <script>
        function resetSites() {
            fetch('/mock/reset', {method: 'POST'})
            .then(r => r.json())
            .then(data => { if (data.success) location.reload(); });
        }
    </script>
</body>
</html>`
