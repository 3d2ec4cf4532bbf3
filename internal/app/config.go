package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/raysh454/sitesearch/internal/dashboard"
	"github.com/raysh454/sitesearch/internal/logging"
	"github.com/raysh454/sitesearch/internal/mockprovider"
	"github.com/raysh454/sitesearch/internal/server"
	"github.com/raysh454/sitesearch/internal/view"
	"github.com/raysh454/sitesearch/internal/webclient"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SITESEARCH_"

// Config is the runtime configuration. Every field can be set from the
// environment; see the env tags.
type Config struct {
	ListenAddr   string `env:"LISTEN_ADDR" envDefault:":8080"`
	PublicURL    string `env:"PUBLIC_URL" envDefault:"http://localhost:8080/"`
	AuthStartURL string `env:"AUTH_START_URL" envDefault:"/.netlify/functions/auth-start"`
	APIBaseURL   string `env:"API_BASE_URL" envDefault:"https://api.netlify.com/api/v1"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"https://app.netlify.com"`

	// StorageRoot holds the session database. A leading ~ is expanded.
	StorageRoot string `env:"STORAGE_ROOT" envDefault:"~/.config/sitesearch"`

	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"false"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, production

	// MockAddr is where `mock-provider` listens.
	MockAddr string `env:"MOCK_ADDR" envDefault:":9999"`

	// Token is the bearer token used by `sitesearch sites`. The web server
	// never reads it; browser sessions carry their own.
	Token string `env:"TOKEN"`
}

// DefaultConfig returns a Config populated with the development defaults,
// ignoring the process environment.
func DefaultConfig() *Config {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		// envDefault tags are constants; this only fails on a bad tag.
		panic(err)
	}
	return cfg
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadFrom reads the configuration from environ instead of the process
// environment. Keys carry the SITESEARCH_ prefix.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("config: %sAPI_BASE_URL is required", EnvPrefix)
	}
	if strings.TrimSpace(c.AuthStartURL) == "" {
		return fmt.Errorf("config: %sAUTH_START_URL is required", EnvPrefix)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: %sSESSION_TTL must be positive", EnvPrefix)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: %sREQUEST_TIMEOUT must be positive", EnvPrefix)
	}
	return nil
}

// StoragePath returns StorageRoot with ~ expanded.
func (c *Config) StoragePath() (string, error) {
	return expandPath(c.StorageRoot)
}

func (c *Config) ServerConfig() server.Config {
	return server.Config{
		ListenAddr:    c.ListenAddr,
		PublicURL:     c.PublicURL,
		AuthStartURL:  c.AuthStartURL,
		SessionTTL:    c.SessionTTL,
		SecureCookies: c.SecureCookies,
	}
}

func (c *Config) WebClientConfig() webclient.Config {
	return webclient.Config{
		Timeout:   c.RequestTimeout,
		UserAgent: "sitesearch/" + Version,
	}
}

func (c *Config) DashboardConfig() dashboard.Config {
	return dashboard.Config{FetchTimeout: c.RequestTimeout}
}

func (c *Config) ViewConfig() view.Config {
	return view.Config{AppBaseURL: c.AppBaseURL, Now: time.Now}
}

func (c *Config) MockConfig() mockprovider.Config {
	cfg := mockprovider.DefaultConfig()
	cfg.Addr = c.MockAddr
	return cfg
}

func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Environment: c.Environment}
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
