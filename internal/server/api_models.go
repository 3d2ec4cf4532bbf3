package server

import (
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/sitelist"
	"github.com/raysh454/sitesearch/internal/store"
)

// SitesResponse is the payload of GET /api/sites.
type SitesResponse struct {
	Query sitelist.Query  `json:"query"`
	Total int             `json:"total"`
	Count int             `json:"count"`
	Sites []provider.Site `json:"sites"`
}

// DeletionsResponse is the payload of GET /api/deletions.
type DeletionsResponse struct {
	Deletions []store.Deletion `json:"deletions"`
}

// HealthResponse is the payload of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
