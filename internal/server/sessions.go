package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/raysh454/sitesearch/internal/dashboard"
	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/store"
)

const (
	sessionCookie = "sitesearch_session"
	csrfCookie    = "sitesearch_csrf"

	csrfMaxAge = 10 * time.Minute
)

func (s *Server) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentSession resolves the session cookie. Stale cookies are cleared.
func (s *Server) currentSession(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	sess, err := s.store.GetSession(r.Context(), c.Value)
	switch {
	case err == nil && sess.UserID != "":
		return sess, true
	case err == nil:
		// Sessions opened before accounts were tracked cannot own deletions.
		s.logger.Debug("dropping session without user id")
		_ = s.store.DeleteSession(r.Context(), sess.ID)
		s.dashboard.Forget(sess.ID)
	case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, store.ErrSessionExpired):
		s.logger.Debug("dropping stale session cookie", logging.Err(err))
		s.dashboard.Forget(c.Value)
	default:
		s.logger.Error("loading session", logging.Err(err))
	}
	s.clearCookie(w, sessionCookie)
	return nil, false
}

// bearer finds the caller's token in the Authorization header or, failing
// that, in the session. A header token is resolved to its account with the
// provider first. It answers the error itself when neither works.
func (s *Server) bearer(w http.ResponseWriter, r *http.Request) (dashboard.Identity, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		token = strings.TrimSpace(token)
		if ok && strings.EqualFold(scheme, "Bearer") && token != "" {
			return s.resolveToken(w, r, token)
		}
	}
	if sess, ok := s.currentSession(w, r); ok {
		return identityOf(sess), true
	}
	writeError(w, http.StatusUnauthorized, "missing bearer token")
	return dashboard.Identity{}, false
}

func (s *Server) resolveToken(w http.ResponseWriter, r *http.Request, token string) (dashboard.Identity, bool) {
	u, err := s.providers(token).CurrentUser(r.Context())
	if err != nil {
		s.logger.Warn("resolving bearer token", logging.Err(err))
		writeError(w, statusFor(err), "bearer token could not be verified")
		return dashboard.Identity{}, false
	}
	if u.ID == "" {
		s.logger.Warn("provider returned an account without an id")
		writeError(w, http.StatusUnauthorized, "bearer token could not be verified")
		return dashboard.Identity{}, false
	}
	return dashboard.Identity{
		Token:    token,
		UserID:   u.ID,
		FullName: u.FullName,
		Email:    u.Email,
	}, true
}
