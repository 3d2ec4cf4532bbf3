// Package view renders the dashboard state as HTML.
package view

import (
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/raysh454/sitesearch/internal/auth"
	"github.com/raysh454/sitesearch/internal/dashboard"
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/sitelist"
)

// Title is the page title shown before and after login.
const Title = "Netlify Site Search"

// Config holds rendering options.
type Config struct {
	// AppBaseURL is the provider's web UI, used for team links.
	AppBaseURL string

	// Now is the clock relative times are computed against.
	Now func() time.Time
}

// DefaultConfig returns a Config pointing at the Netlify web UI.
func DefaultConfig() Config {
	return Config{
		AppBaseURL: "https://app.netlify.com",
		Now:        time.Now,
	}
}

// Page is everything one render needs.
type Page struct {
	// User is nil when nobody is logged in.
	User  *auth.User
	State dashboard.View
	// Notice is an optional one-line message above the table.
	Notice string
}

// Renderer turns a Page into HTML.
type Renderer struct {
	tmpl    *template.Template
	appBase string
	now     func() time.Time
}

// New parses the page template.
func New(cfg Config) *Renderer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = DefaultConfig().AppBaseURL
	}
	return &Renderer{
		tmpl:    template.Must(template.New("page").Parse(pageHTML)),
		appBase: strings.TrimRight(cfg.AppBaseURL, "/"),
		now:     cfg.Now,
	}
}

// Row is one rendered table line.
type Row struct {
	ID             string
	Name           string
	AdminURL       string
	ScreenshotURL  string
	SSLURL         string
	AccountName    string
	TeamURL        string
	Published      string
	FunctionCount  int
	FunctionsURL   string
	FunctionsTitle string
	Created        string
	RepoURL        string
	RepoLabel      string
}

// Column is a sortable table header.
type Column struct {
	Label  string
	Key    sitelist.SortKey
	Active bool
	Arrow  string
}

type columnDef struct {
	label string
	key   sitelist.SortKey
}

var columns = []columnDef{
	{"Site", sitelist.SortName},
	{"Team", sitelist.SortAccountName},
	{"Last published", sitelist.SortPublishedAt},
	{"Functions", sitelist.SortFunctions},
	{"Created", sitelist.SortCreatedAt},
	{"Repo", sitelist.SortRepo},
}

type pageData struct {
	Title     string
	LoggedIn  bool
	Greeting  string
	Notice    string
	Filter    string
	Loading   bool
	Empty     bool
	EmptyText string
	Total     int
	Columns   []Column
	Rows      []Row
}

// Render writes the full HTML document for p.
func (r *Renderer) Render(w io.Writer, p Page) error {
	data := pageData{
		Title:    Title,
		LoggedIn: p.User != nil,
		Notice:   p.Notice,
	}
	if p.User != nil {
		st := p.State
		data.Greeting = "Hi " + p.User.DisplayName()
		data.Filter = st.FilterText
		data.Loading = st.Loading || !st.Loaded
		data.Empty = !data.Loading && len(st.Rows) == 0
		data.EmptyText = EmptyMessage(st.FilterText)
		data.Total = st.Total
		data.Columns = r.columns(st)
		data.Rows = lo.Map(st.Rows, func(s provider.Site, _ int) Row { return r.row(s) })
	}
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// EmptyMessage is shown when no site matches the search box.
func EmptyMessage(filter string) string {
	return fmt.Sprintf("No '%s' examples found. Clear your search and try again.", filter)
}

func (r *Renderer) columns(st dashboard.View) []Column {
	return lo.Map(columns, func(c columnDef, _ int) Column {
		col := Column{Label: c.label, Key: c.key, Active: c.key == st.SortBy}
		if col.Active {
			col.Arrow = "▼"
			if st.SortOrder == sitelist.Asc {
				col.Arrow = "▲"
			}
		}
		return col
	})
}

func (r *Renderer) row(s provider.Site) Row {
	fns := s.Functions()
	admin := strings.TrimRight(s.AdminURL, "/")
	return Row{
		ID:            s.ID,
		Name:          s.Name,
		AdminURL:      s.AdminURL,
		ScreenshotURL: s.ScreenshotURL,
		SSLURL:        s.SSLURL,
		AccountName:   s.AccountName,
		TeamURL:       r.TeamURL(s.AccountSlug),
		Published:     r.Ago(s.PublishedAt()),
		FunctionCount: len(fns),
		FunctionsURL:  admin + "/functions",
		FunctionsTitle: strings.Join(lo.Map(fns, func(f provider.Function, _ int) string {
			return f.Name
		}), ", "),
		Created:   r.Ago(s.CreatedAt),
		RepoURL:   s.RepoURL(),
		RepoLabel: RepoLabel(s.RepoURL()),
	}
}

// TeamURL links to the team's site list in the provider UI.
func (r *Renderer) TeamURL(slug string) string {
	if slug == "" {
		return ""
	}
	return r.appBase + "/teams/" + url.PathEscape(slug) + "/sites/"
}

// Ago renders t relative to now, or "NA" when t is missing.
func (r *Renderer) Ago(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "NA"
	}
	return humanize.RelTime(*t, r.now(), "ago", "from now")
}

// RepoLabel strips the https scheme from a repository URL.
func RepoLabel(repo string) string {
	return strings.TrimPrefix(repo, "https://")
}
