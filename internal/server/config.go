package server

import "time"

type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string

	// PublicURL is where browsers reach this server. The login flow
	// returns here after authenticating.
	PublicURL string

	// AuthStartURL is the endpoint that begins the provider login. It may
	// be relative to PublicURL.
	AuthStartURL string

	// SessionTTL is how long a login stays valid.
	SessionTTL time.Duration

	// SecureCookies marks cookies Secure; enable behind TLS.
	SecureCookies bool
}

// DefaultConfig returns a Config for local development.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   ":8080",
		PublicURL:    "http://localhost:8080/",
		AuthStartURL: "/.netlify/functions/auth-start",
		SessionTTL:   24 * time.Hour,
	}
}
