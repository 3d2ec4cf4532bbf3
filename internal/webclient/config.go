package webclient

import "time"

// DefaultMaxResponseBytes caps a response body. A large account's site
// list runs to a few megabytes.
const DefaultMaxResponseBytes int64 = 32 << 20

// Config tunes the API transport.
type Config struct {
	// Timeout bounds a whole call including reading the body. Zero means
	// 30 seconds.
	Timeout time.Duration

	// UserAgent is sent on every call when non-empty.
	UserAgent string

	// MaxResponseBytes rejects bodies larger than this. Zero means
	// DefaultMaxResponseBytes.
	MaxResponseBytes int64
}
