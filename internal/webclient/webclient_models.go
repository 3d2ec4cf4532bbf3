package webclient

import (
	"mime"
	"net/http"
	"net/url"
	"time"
)

// Request describes one API call.
type Request struct {
	Method string
	URL    string

	// Query is merged into URL's existing query string.
	Query url.Values

	Headers http.Header

	// Bearer is sent as "Authorization: Bearer <token>". It is kept out of
	// every log line.
	Bearer string

	Body []byte
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte

	// Duration is the time from sending the request to reading the body.
	Duration time.Duration
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// IsJSON reports whether the body is declared as JSON.
func (r *Response) IsJSON() bool {
	if r == nil {
		return false
	}
	mt, _, err := mime.ParseMediaType(r.Headers.Get("Content-Type"))
	return err == nil && (mt == "application/json" || mt == "application/problem+json")
}
