// Package webclient is the HTTP transport under the provider REST client.
package webclient

import "context"

// WebClient performs one API call. The provider client depends on this
// interface so tests can substitute their own transport.
type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Close() error
}
