package webclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raysh454/sitesearch/internal/logging"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrInvalidRequest is returned when Do is called with a nil request.
	ErrInvalidRequest = errors.New("request cannot be nil")

	// ErrResponseTooLarge is returned when a body exceeds MaxResponseBytes.
	ErrResponseTooLarge = errors.New("response body too large")
)

// NetHTTPClient is the net/http backed WebClient.
type NetHTTPClient struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	logger    logging.Logger
}

// NewNetHTTPClient wraps httpClient, or a new client with cfg.Timeout when
// httpClient is nil.
func NewNetHTTPClient(cfg Config, logger logging.Logger, httpClient *http.Client) (*NetHTTPClient, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	return &NetHTTPClient{
		client:    httpClient,
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
		logger:    logger.With(logging.Component("webclient")),
	}, nil
}

// Do sends req and reads the whole body.
func (nhc *NetHTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	target, err := withQuery(req.URL, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if nhc.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", nhc.userAgent)
	}

	fields := []logging.Field{
		{Key: "method", Value: method},
		{Key: "url", Value: req.URL},
	}
	start := time.Now()
	resp, err := nhc.client.Do(httpReq)
	if err != nil {
		nhc.logger.Warn("api call failed", append(fields, logging.Err(err))...)
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, nhc.maxBytes+1))
	if err != nil {
		nhc.logger.Warn("reading api response failed", append(fields, logging.Err(err))...)
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > nhc.maxBytes {
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", method, req.URL, ErrResponseTooLarge, nhc.maxBytes)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
		Duration:   time.Since(start),
	}
	nhc.logger.Debug("api call",
		append(fields,
			logging.Field{Key: "status", Value: out.StatusCode},
			logging.Field{Key: "bytes", Value: len(data)},
			logging.Field{Key: "duration", Value: out.Duration.String()})...)
	return out, nil
}

// Close drops idle connections.
func (nhc *NetHTTPClient) Close() error {
	nhc.client.CloseIdleConnections()
	return nil
}

// HTTPClient returns the underlying *http.Client.
func (nhc *NetHTTPClient) HTTPClient() *http.Client {
	return nhc.client
}

func withQuery(raw string, q url.Values) (string, error) {
	if len(q) == 0 {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	merged := u.Query()
	for k, vs := range q {
		merged[k] = append(merged[k], vs...)
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}
