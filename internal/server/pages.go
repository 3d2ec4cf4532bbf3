package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/raysh454/sitesearch/internal/auth"
	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/sitelist"
	"github.com/raysh454/sitesearch/internal/store"
	"github.com/raysh454/sitesearch/internal/view"
)

var notices = map[string]string{
	"delete-failed":       "Deleting the site failed. Nothing was changed.",
	"delete-unauthorized": "The provider rejected your login. Log out and in again to delete sites.",
	"delete-not-found":    "That site no longer exists at the provider.",
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		s.render(w, http.StatusOK, view.Page{})
		return
	}

	q := r.URL.Query()
	if q.Has("q") {
		s.dashboard.SetFilter(sess.ID, q.Get("q"))
	}
	st := s.dashboard.Mount(identityOf(sess))

	s.render(w, http.StatusOK, view.Page{
		User: &auth.User{
			FullName: sess.FullName,
			Email:    sess.Email,
			Avatar:   sess.Avatar,
		},
		State:  st,
		Notice: notices[q.Get("notice")],
	})
}

// handleLogin starts the provider login with a fresh CSRF nonce.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	csrf, err := auth.NewCSRFToken()
	if err != nil {
		s.logger.Error("creating csrf token", logging.Err(err))
		http.Error(w, "could not start login", http.StatusInternalServerError)
		return
	}

	loginURL, err := auth.LoginURL(s.cfg.AuthStartURL, csrf, s.returnURL(r))
	if err != nil {
		s.logger.Error("building login url", logging.Err(err))
		http.Error(w, "could not start login", http.StatusInternalServerError)
		return
	}

	s.setCookie(w, csrfCookie, csrf, time.Now().Add(csrfMaxAge))
	redirect(w, r, loginURL)
}

func (s *Server) returnURL(r *http.Request) string {
	if s.cfg.PublicURL != "" {
		return s.cfg.PublicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: r.Host, Path: "/"}).String()
}

// handleAuthCallback receives the fragment the login page posts back.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed login callback", http.StatusBadRequest)
		return
	}
	u := auth.ParseHash(r.PostForm.Get("hash"))

	var expected string
	if c, err := r.Cookie(csrfCookie); err == nil {
		expected = c.Value
	}
	s.clearCookie(w, csrfCookie)

	if !auth.VerifyCSRF(expected, u.CSRF) {
		s.logger.Warn("login callback failed csrf check")
		http.Error(w, "login could not be verified, please try again", http.StatusForbidden)
		return
	}
	if !u.HasToken() {
		s.logger.Error("no user token in login callback")
		http.Error(w, "login did not return a token", http.StatusBadRequest)
		return
	}
	token, err := auth.DecodeToken(u.Token)
	if err != nil {
		s.logger.Warn("decoding token", logging.Err(err))
		http.Error(w, "login returned a malformed token", http.StatusBadRequest)
		return
	}

	account, err := s.providers(token).CurrentUser(r.Context())
	if err != nil || account.ID == "" {
		s.logger.Warn("looking up current user", logging.Err(err))
		status := http.StatusBadGateway
		if err != nil && statusFor(err) == http.StatusUnauthorized {
			status = http.StatusUnauthorized
		}
		http.Error(w, "login could not be confirmed with the provider", status)
		return
	}

	in := store.NewSession{
		Token:    token,
		CSRF:     u.CSRF,
		UserID:   account.ID,
		FullName: lo.CoalesceOrEmpty(u.FullName, account.FullName),
		Email:    lo.CoalesceOrEmpty(u.Email, account.Email),
		Avatar:   lo.CoalesceOrEmpty(u.Avatar, account.AvatarURL),
	}

	sess, err := s.store.CreateSession(r.Context(), in, s.cfg.SessionTTL)
	if err != nil {
		s.logger.Error("creating session", logging.Err(err))
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return
	}
	s.setCookie(w, sessionCookie, sess.ID, sess.ExpiresAt)
	s.logger.Info("logged in", logging.Field{Key: "session_id", Value: sess.ID}, logging.Field{Key: "email", Value: sess.Email})
	redirect(w, r, "/")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.currentSession(w, r); ok {
		if err := s.store.DeleteSession(r.Context(), sess.ID); err != nil {
			s.logger.Warn("deleting session", logging.Err(err))
		}
		s.dashboard.Forget(sess.ID)
		s.logger.Info("logged out", logging.Field{Key: "session_id", Value: sess.ID})
	}
	s.clearCookie(w, sessionCookie)
	redirect(w, r, "/")
}

// handleSort toggles the sort column. Unknown keys sort by publish date.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.currentSession(w, r); ok {
		key, _ := sitelist.ParseSortKey(chi.URLParam(r, "key"))
		s.dashboard.ToggleSort(sess.ID, key)
	}
	redirect(w, r, "/")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.currentSession(w, r); ok {
		s.dashboard.Refresh(identityOf(sess))
	}
	redirect(w, r, "/")
}

func (s *Server) handleDeleteSitePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.currentSession(w, r)
	if !ok {
		redirect(w, r, "/")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.dashboard.Delete(r.Context(), identityOf(sess), id); err != nil {
		notice := "delete-failed"
		switch statusFor(err) {
		case http.StatusUnauthorized:
			notice = "delete-unauthorized"
		case http.StatusNotFound:
			notice = "delete-not-found"
		}
		redirect(w, r, "/?notice="+notice)
		return
	}
	redirect(w, r, "/")
}
