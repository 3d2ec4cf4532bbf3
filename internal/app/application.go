package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/raysh454/sitesearch/internal/dashboard"
	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/server"
	"github.com/raysh454/sitesearch/internal/store"
	"github.com/raysh454/sitesearch/internal/view"
	"github.com/raysh454/sitesearch/internal/webclient"
)

// Version is reported in the User-Agent and by `sitesearch --version`.
const Version = "0.1.0"

// purgeInterval is how often expired sessions are removed.
const purgeInterval = time.Hour

// Application is the global runtime state container. It owns the shared
// components and their lifecycle; pass it to whatever needs them rather
// than using package-level variables.
type Application struct {
	Config    *Config
	Logger    logging.Logger
	Store     *store.Store
	WebClient *webclient.NetHTTPClient
	Dashboard *dashboard.Manager
	Server    *server.Server

	httpServer *http.Server
}

// NewApplication opens storage and wires every component from cfg.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		return nil, errors.New("application: logger is required")
	}

	root, err := cfg.StoragePath()
	if err != nil {
		return nil, fmt.Errorf("expanding storage root path: %w", err)
	}
	st, err := store.Open(root, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	wc, err := webclient.NewNetHTTPClient(cfg.WebClientConfig(), logger, nil)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("new webclient: %w", err)
	}

	a := &Application{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		WebClient: wc,
	}

	a.Dashboard = dashboard.NewManager(cfg.DashboardConfig(), func(token string) dashboard.SiteService {
		return a.ProviderClient(token)
	}, st, logger)

	a.Server, err = server.NewServer(cfg.ServerConfig(), server.Deps{
		Store: st,
		Providers: func(token string) server.Provider {
			return a.ProviderClient(token)
		},
		Dashboard: a.Dashboard,
		Renderer:  view.New(cfg.ViewConfig()),
		Logger:    logger,
	})
	if err != nil {
		a.Dashboard.Close()
		_ = st.Close()
		return nil, fmt.Errorf("new server: %w", err)
	}
	return a, nil
}

// ProviderClient returns a REST client bound to token.
func (a *Application) ProviderClient(token string) *provider.Client {
	return provider.NewClient(a.WebClient, a.Config.APIBaseURL, token, a.Logger)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}

	a.httpServer = a.Server.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("application starting",
			logging.Field{Key: "addr", Value: a.Config.ListenAddr},
			logging.Field{Key: "public_url", Value: a.Config.PublicURL},
			logging.Field{Key: "api_base_url", Value: a.Config.APIBaseURL})
		errCh <- a.httpServer.ListenAndServe()
	}()

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go a.purgeSessions(purgeCtx)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.Logger.Error("http server stopped", logging.Err(err))
		stopPurge()
		return errors.Join(fmt.Errorf("http server: %w", err), a.Shutdown(context.Background()))
	case <-ctx.Done():
		return a.Shutdown(context.Background())
	}
}

func (a *Application) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Store.PurgeExpired(ctx)
			if err != nil {
				a.Logger.Warn("purging expired sessions", logging.Err(err))
				continue
			}
			if n > 0 {
				a.Logger.Info("purged expired sessions", logging.Field{Key: "count", Value: n})
			}
		}
	}
}

// Shutdown stops the HTTP server, waits for in-flight fetches and closes
// storage.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	a.Dashboard.Close()
	_ = a.WebClient.Close()
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
