// Package dashboard owns the in-memory state of every logged-in session:
// the fetched site list, the search text and the sort column. It performs
// the fetch-on-mount and the delete-then-prune flows against the provider.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/sitelist"
	"github.com/raysh454/sitesearch/internal/store"
)

// ErrNoSession is returned for operations on a session that never mounted.
var ErrNoSession = errors.New("dashboard: unknown session")

// SiteService is the slice of the provider client the dashboard needs.
type SiteService interface {
	ListSites(ctx context.Context, opts provider.ListSitesOptions) ([]provider.Site, error)
	DeleteSite(ctx context.Context, id string) error
}

// ClientFactory returns a SiteService authenticated with token.
type ClientFactory func(token string) SiteService

// DeletionRecorder receives an audit entry after each successful delete.
type DeletionRecorder interface {
	RecordDeletion(ctx context.Context, d store.Deletion) (*store.Deletion, error)
}

// Identity ties a browser session to its bearer token. UserID is the
// provider account the token belongs to and owns the audit entries.
type Identity struct {
	SessionID string
	Token     string
	UserID    string
	FullName  string
	Email     string
}

func (id Identity) label() string {
	if id.Email != "" {
		return id.Email
	}
	return id.FullName
}

// Config tunes the Manager.
type Config struct {
	// FetchTimeout bounds one site list fetch. Zero means 30 seconds.
	FetchTimeout time.Duration

	// Filter is passed to ListSites; empty means "all".
	Filter string
}

// Manager holds the State of every session.
type Manager struct {
	cfg     Config
	clients ClientFactory
	audit   DeletionRecorder
	logger  logging.Logger

	mu     sync.Mutex
	states map[string]*State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager builds a Manager. audit may be nil.
func NewManager(cfg Config, clients ClientFactory, audit DeletionRecorder, logger logging.Logger) *Manager {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:     cfg,
		clients: clients,
		audit:   audit,
		logger:  logger.With(logging.Component("dashboard")),
		states:  make(map[string]*State),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Mount returns the session's view, creating its state and starting the
// site fetch on the first call. Later calls do not fetch again.
func (m *Manager) Mount(id Identity) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(id.SessionID)
	if !st.mounted {
		st.mounted = true
		m.startFetchLocked(id, st)
	}
	return st.view()
}

// Refresh re-fetches the site list unless a fetch is already running.
func (m *Manager) Refresh(id Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stateLocked(id.SessionID)
	st.mounted = true
	if st.Loading {
		return
	}
	m.startFetchLocked(id, st)
}

// Snapshot returns the current view without side effects.
func (m *Manager) Snapshot(sessionID string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[sessionID]
	if !ok {
		return View{}, ErrNoSession
	}
	return st.view(), nil
}

// SetFilter stores the search box text.
func (m *Manager) SetFilter(sessionID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateLocked(sessionID).FilterText = text
}

// ToggleSort selects a column and inverts the direction.
func (m *Manager) ToggleSort(sessionID string, key sitelist.SortKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateLocked(sessionID).ToggleSort(key)
}

// Delete removes a site at the provider and, once that succeeds, from the
// session's list. On failure the list is left untouched. An identity
// without a mounted session only reaches the provider and the audit log.
func (m *Manager) Delete(ctx context.Context, id Identity, siteID string) error {
	if id.Token == "" {
		return provider.ErrMissingToken
	}

	var site provider.Site
	var known bool
	m.mu.Lock()
	if st, ok := m.states[id.SessionID]; ok {
		site, known = st.find(siteID)
	}
	m.mu.Unlock()

	if err := m.clients(id.Token).DeleteSite(ctx, siteID); err != nil {
		m.logger.Warn("deleting site", logging.Field{Key: "site_id", Value: siteID}, logging.Err(err))
		return fmt.Errorf("delete site %s: %w", siteID, err)
	}

	m.mu.Lock()
	if st, ok := m.states[id.SessionID]; ok {
		st.prune(siteID)
	}
	m.mu.Unlock()

	m.logger.Info("deleted site",
		logging.Field{Key: "site_id", Value: siteID},
		logging.Field{Key: "session_id", Value: id.SessionID})

	if m.audit != nil {
		entry := store.Deletion{SiteID: siteID, DeletedBy: id.label(), UserID: id.UserID}
		if known {
			entry.SiteName = site.Name
			entry.AccountName = site.AccountName
		}
		if _, err := m.audit.RecordDeletion(ctx, entry); err != nil {
			m.logger.Warn("recording deletion", logging.Field{Key: "site_id", Value: siteID}, logging.Err(err))
		}
	}
	return nil
}

// Forget drops a session's state, e.g. on logout.
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionID)
}

// Wait blocks until in-flight fetches finish.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Close cancels in-flight fetches and waits for them.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) stateLocked(sessionID string) *State {
	st, ok := m.states[sessionID]
	if !ok {
		st = NewState()
		m.states[sessionID] = st
	}
	return st
}

// startFetchLocked must be called with m.mu held.
func (m *Manager) startFetchLocked(id Identity, st *State) {
	if id.Token == "" {
		m.logger.Error("no user token, abandoning site fetch", logging.Field{Key: "session_id", Value: id.SessionID})
		return
	}

	st.Loading = true
	client := m.clients(id.Token)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.FetchTimeout)
		defer cancel()

		start := time.Now()
		sites, err := client.ListSites(ctx, provider.ListSitesOptions{Filter: m.cfg.Filter})

		m.mu.Lock()
		defer m.mu.Unlock()

		current, ok := m.states[id.SessionID]
		if !ok || current != st {
			// session logged out while fetching
			return
		}
		if err != nil {
			m.logger.Error("fetching sites",
				logging.Field{Key: "session_id", Value: id.SessionID},
				logging.Err(err))
			st.Loading = false
			st.deleted = nil
			if st.Sites == nil {
				st.Sites = []provider.Site{}
			}
			return
		}

		st.applyFetch(sites)
		m.logger.Info("fetched sites",
			logging.Field{Key: "session_id", Value: id.SessionID},
			logging.Field{Key: "count", Value: len(st.Sites)},
			logging.Field{Key: "duration", Value: time.Since(start).String()})
	}()
}
