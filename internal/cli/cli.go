// Package cli is the sitesearch command tree. Commands never read os.Args
// directly, so tests can drive them with SetArgs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raysh454/sitesearch/internal/app"
	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/mockprovider"
	"github.com/raysh454/sitesearch/internal/provider"
	"github.com/raysh454/sitesearch/internal/sitelist"
	"github.com/raysh454/sitesearch/internal/view"
	"github.com/raysh454/sitesearch/internal/webclient"
)

// runtime is filled in by the root command before any subcommand runs.
type runtime struct {
	verbose bool
	cfg     *app.Config
	logger  *logging.ZapLogger
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "sitesearch",
		Short: "Search, sort and delete the sites on a hosting account",
		Long: `sitesearch serves a dashboard listing every site the signed-in user
can see, with a search box, sortable columns and a delete button per row.

Configuration comes from SITESEARCH_* environment variables.`,
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load()
			if err != nil {
				return err
			}
			if rt.verbose {
				cfg.LogLevel = "debug"
			}
			logger, err := logging.NewZapLogger(cfg.LoggingOptions())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			rt.cfg, rt.logger = cfg, logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCommand(rt),
		newMockProviderCommand(rt),
		newSitesCommand(rt),
	)
	return root
}

// Execute runs the command tree with ctx and returns the first error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newServeCommand(rt *runtime) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				rt.cfg.ListenAddr = addr
			}
			a, err := app.NewApplication(rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SITESEARCH_LISTEN_ADDR)")
	return cmd
}

func newMockProviderCommand(rt *runtime) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock-provider",
		Short: "Run a local stand-in for the hosting provider",
		Long: `mock-provider serves the login redirect and the sites API with a
seeded site list. Point SITESEARCH_AUTH_START_URL and SITESEARCH_API_BASE_URL
at it for local development. The control panel lives at /mock/control.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.cfg.MockConfig()
			if addr != "" {
				cfg.Addr = addr
			}
			return mockprovider.New(cfg, rt.logger).Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SITESEARCH_MOCK_ADDR)")
	return cmd
}

type sitesOptions struct {
	token   string
	query   string
	sortBy  string
	order   string
	apiBase string
}

func newSitesCommand(rt *runtime) *cobra.Command {
	var opts sitesOptions
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List sites in a table",
		Example: `  sitesearch sites --q docs
  sitesearch sites --sort name --order asc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSites(cmd, rt, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.token, "token", "", "Bearer token (default $SITESEARCH_TOKEN)")
	f.StringVar(&opts.query, "q", "", "Only show sites matching this text")
	f.StringVar(&opts.sortBy, "sort", string(sitelist.DefaultSortKey), "Sort column")
	f.StringVar(&opts.order, "order", string(sitelist.Desc), "Sort order: asc or desc")
	f.StringVar(&opts.apiBase, "api-base-url", "", "Provider API base (overrides SITESEARCH_API_BASE_URL)")
	return cmd
}

func runSites(cmd *cobra.Command, rt *runtime, opts sitesOptions) error {
	token := opts.token
	if token == "" {
		token = rt.cfg.Token
	}
	if token == "" {
		return errors.New("no token: pass --token or set " + app.EnvPrefix + "TOKEN")
	}
	key, ok := sitelist.ParseSortKey(opts.sortBy)
	if !ok {
		return fmt.Errorf("unknown sort column %q", opts.sortBy)
	}
	apiBase := rt.cfg.APIBaseURL
	if opts.apiBase != "" {
		apiBase = opts.apiBase
	}

	wc, err := webclient.NewNetHTTPClient(rt.cfg.WebClientConfig(), rt.logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = wc.Close() }()

	sites, err := provider.NewClient(wc, apiBase, token, rt.logger).
		ListSites(cmd.Context(), provider.ListSitesOptions{})
	if err != nil {
		return fmt.Errorf("list sites: %w", err)
	}

	rows := sitelist.Apply(sites, sitelist.Query{
		Text:   opts.query,
		SortBy: key,
		Order:  sitelist.ParseOrder(opts.order),
	})
	out := cmd.OutOrStdout()
	if len(rows) == 0 && opts.query != "" {
		_, err := fmt.Fprintln(out, view.EmptyMessage(opts.query))
		return err
	}
	return writeTable(out, view.New(rt.cfg.ViewConfig()), rows, len(sites))
}

func writeTable(out io.Writer, r *view.Renderer, sites []provider.Site, total int) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTEAM\tPUBLISHED\tFUNCTIONS\tCREATED\tREPO\tURL")
	for _, s := range sites {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			s.Name,
			dash(s.AccountName),
			r.Ago(s.PublishedAt()),
			len(s.Functions()),
			r.Ago(s.CreatedAt),
			dash(view.RepoLabel(s.RepoURL())),
			dash(s.SSLURL),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\n%d of %d sites\n", len(sites), total)
	return err
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
