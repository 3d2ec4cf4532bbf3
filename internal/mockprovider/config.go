package mockprovider

import "github.com/raysh454/sitesearch/internal/provider"

// Config holds configuration for the mock provider.
type Config struct {
	// Addr is the address the mock provider listens on.
	Addr string

	// Token is the bearer token the login hands out and the API accepts.
	// Empty accepts any non-empty bearer token.
	Token string

	// User is the account the login and /user report.
	User provider.User

	// Sites is the seeded site list; nil means SeedSites().
	Sites []provider.Site
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:  ":9999",
		Token: "mock-token",
		User: provider.User{
			ID:       "user-1",
			Email:    "friend@example.com",
			FullName: "Mock Friend",
		},
	}
}
