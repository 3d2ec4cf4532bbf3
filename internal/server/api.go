package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/sitelist"
)

// handleListSites fetches the caller's sites and applies ?q=, ?sort= and
// ?order= the way the table does.
func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bearer(w, r)
	if !ok {
		return
	}

	sites, err := s.providers(id.Token).ListSites(r.Context(), provider.ListSitesOptions{})
	if err != nil {
		s.logger.Warn("listing sites", logging.Err(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	params := r.URL.Query()
	key, _ := sitelist.ParseSortKey(params.Get("sort"))
	query := sitelist.Query{
		Text:   params.Get("q"),
		SortBy: key,
		Order:  sitelist.ParseOrder(params.Get("order")),
	}
	rows := sitelist.Apply(sites, query)

	s.logger.Info("listed sites", logging.Field{Key: "total", Value: len(sites)}, logging.Field{Key: "count", Value: len(rows)})
	writeJSON(w, http.StatusOK, SitesResponse{
		Query: query,
		Total: len(sites),
		Count: len(rows),
		Sites: rows,
	})
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bearer(w, r)
	if !ok {
		return
	}

	siteID := chi.URLParam(r, "id")
	if err := s.dashboard.Delete(r.Context(), id, siteID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bearer(w, r)
	if !ok {
		return
	}

	u, err := s.providers(id.Token).CurrentUser(r.Context())
	if err != nil {
		s.logger.Warn("getting current user", logging.Err(err))
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleListDeletions returns the caller's own audit entries.
func (s *Server) handleListDeletions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.bearer(w, r)
	if !ok {
		return
	}

	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	ds, err := s.store.ListDeletions(r.Context(), id.UserID, limit)
	if err != nil {
		s.logger.Error("listing deletions", logging.Err(err))
		writeError(w, http.StatusInternalServerError, "could not list deletions")
		return
	}
	writeJSON(w, http.StatusOK, DeletionsResponse{Deletions: ds})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check", logging.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
