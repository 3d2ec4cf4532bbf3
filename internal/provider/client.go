package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/webclient"
)

// DefaultBaseURL is the public REST endpoint of the hosting provider.
const DefaultBaseURL = "https://api.netlify.com/api/v1"

var (
	ErrMissingToken = errors.New("provider: missing bearer token")
	ErrUnauthorized = errors.New("provider: unauthorized")
	ErrNotFound     = errors.New("provider: not found")
)

// APIError is returned for any non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("provider: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// ListSitesOptions narrows the site listing.
type ListSitesOptions struct {
	// Filter is passed through as the "filter" query parameter.
	// Empty means "all".
	Filter string
}

// Client is a thin wrapper over the provider REST API, bound to one
// bearer token.
type Client struct {
	baseURL string
	token   string
	wc      webclient.WebClient
	logger  logging.Logger
}

// NewClient returns a Client for token. baseURL may be empty to use
// DefaultBaseURL.
func NewClient(wc webclient.WebClient, baseURL, token string, logger logging.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		wc:      wc,
		logger:  logger.With(logging.Component("provider")),
	}
}

// AccessToken returns the bearer token the client authenticates with.
func (c *Client) AccessToken() string {
	return c.token
}

// ListSites fetches every site visible to the token.
func (c *Client) ListSites(ctx context.Context, opts ListSitesOptions) ([]Site, error) {
	filter := opts.Filter
	if filter == "" {
		filter = "all"
	}
	q := url.Values{}
	q.Set("filter", filter)

	var sites []Site
	if err := c.doJSON(ctx, http.MethodGet, "/sites", q, &sites); err != nil {
		return nil, err
	}
	if sites == nil {
		sites = []Site{}
	}
	c.logger.Debug("listed sites", logging.Field{Key: "count", Value: len(sites)})
	return sites, nil
}

// DeleteSite removes a site by its id.
func (c *Client) DeleteSite(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("provider: site id is required")
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/sites/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.logger.Info("deleted site", logging.Field{Key: "site_id", Value: id})
	return nil
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, out any) error {
	if c.token == "" {
		return ErrMissingToken
	}

	resp, err := c.wc.Do(ctx, &webclient.Request{
		Method: method,
		URL:    c.baseURL + path,
		Query:  query,
		Bearer: c.token,
	})
	if err != nil {
		return fmt.Errorf("provider: %s %s: %w", method, path, err)
	}

	if !resp.OK() {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    errorMessage(resp.Body),
		}
		c.logger.Warn("provider request failed",
			logging.Field{Key: "method", Value: method},
			logging.Field{Key: "path", Value: path},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return apiErr
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("provider: decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts {"message": "..."} or {"error": "..."} bodies and
// falls back to the trimmed raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
