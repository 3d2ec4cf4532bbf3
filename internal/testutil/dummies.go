// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/provider"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// WarnMessages returns a copy of the recorded warnings.
func (l *DummyLogger) WarnMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Warns...)
}

// ErrorMessages returns a copy of the recorded errors.
func (l *DummyLogger) ErrorMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.Errors...)
}

// ─── Provider ──────────────────────────────────────────────────────────

// FakeSites implements the site operations of provider.Client in memory.
// Set Gate to hold ListSites until the channel is closed, which lets tests
// observe the loading state.
type FakeSites struct {
	mu        sync.Mutex
	Sites     []provider.Site
	ListErr   error
	DeleteErr error
	Gate      chan struct{}

	ListCalls   int
	DeletedIDs  []string
	LastContext context.Context
}

func (f *FakeSites) ListSites(ctx context.Context, _ provider.ListSitesOptions) ([]provider.Site, error) {
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListCalls++
	f.LastContext = ctx
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]provider.Site(nil), f.Sites...), nil
}

func (f *FakeSites) DeleteSite(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, s := range f.Sites {
		if s.ID == id {
			f.Sites = append(f.Sites[:i], f.Sites[i+1:]...)
			f.DeletedIDs = append(f.DeletedIDs, id)
			return nil
		}
	}
	return &provider.APIError{StatusCode: 404, Method: "DELETE", Path: "/sites/" + id}
}

// Calls returns the number of ListSites calls made so far.
func (f *FakeSites) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ListCalls
}

// Deleted returns a copy of the deleted ids.
func (f *FakeSites) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.DeletedIDs...)
}

// ─── Fixtures ──────────────────────────────────────────────────────────

// Time parses an RFC3339 timestamp and panics on malformed input.
func Time(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// SampleSites returns three sites with varied optional fields.
func SampleSites() []provider.Site {
	return []provider.Site{
		{
			ID:          "id-alpha",
			SiteID:      "id-alpha",
			Name:        "alpha-blog",
			SSLURL:      "https://alpha-blog.netlify.app",
			AdminURL:    "https://app.netlify.com/sites/alpha-blog",
			AccountName: "Personal",
			AccountSlug: "personal",
			CreatedAt:   Time("2023-01-10T10:00:00Z"),
			UpdatedAt:   Time("2024-02-01T10:00:00Z"),
			BuildSettings: &provider.BuildSettings{
				RepoURL: "https://github.com/acme/alpha-blog",
			},
			Published: &provider.PublishedDeploy{
				ID:          "dep-1",
				PublishedAt: Time("2024-02-01T09:00:00Z"),
				AvailableFunctions: []provider.Function{
					{Name: "hello"}, {Name: "auth-start"},
				},
			},
		},
		{
			ID:          "id-bravo",
			SiteID:      "id-bravo",
			Name:        "Bravo-Shop",
			SSLURL:      "https://bravo-shop.netlify.app",
			AdminURL:    "https://app.netlify.com/sites/bravo-shop",
			AccountName: "Acme Team",
			AccountSlug: "acme",
			CreatedAt:   Time("2022-05-01T10:00:00Z"),
			UpdatedAt:   Time("2023-06-01T10:00:00Z"),
			Published: &provider.PublishedDeploy{
				ID:          "dep-2",
				PublishedAt: Time("2023-06-01T09:00:00Z"),
			},
		},
		{
			ID:          "id-charlie",
			SiteID:      "id-charlie",
			Name:        "charlie-docs",
			SSLURL:      "https://charlie-docs.netlify.app",
			AdminURL:    "https://app.netlify.com/sites/charlie-docs",
			AccountName: "Acme Team",
			AccountSlug: "acme",
			BuildSettings: &provider.BuildSettings{
				RepoURL: "https://gitlab.com/acme/charlie-docs",
			},
		},
	}
}

// ErrFake is a generic failure for injecting errors.
var ErrFake = errors.New("fake failure")
