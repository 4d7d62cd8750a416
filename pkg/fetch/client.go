// Package fetch is the single choke point for outbound HTTP calls to the
// backend: it resolves endpoints against the active base URL, applies default
// headers and a per-request timeout, and translates failures into typed errors.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agrilink/pkg/log"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout applies when neither the client nor the call sets one.
	DefaultTimeout = 30 * time.Second

	// HeaderRequestID carries the per-call request identifier.
	HeaderRequestID = "X-Request-ID"

	defaultUserAgent = "agrilink/1.0"
	maxErrorBody     = 4 << 10
)

// BaseURLProvider supplies the origin relative endpoints are resolved against.
type BaseURLProvider interface {
	BaseURL() string
}

// StaticBaseURL is a BaseURLProvider with a fixed origin.
type StaticBaseURL string

func (s StaticBaseURL) BaseURL() string { return string(s) }

// Client issues requests against the backend.
type Client struct {
	base       BaseURLProvider
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     zerolog.Logger

	// afterFunc arms the per-request timer.
	afterFunc func(time.Duration, func()) *time.Timer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a Client resolving relative endpoints against base.
func New(base BaseURLProvider, opts ...Option) *Client {
	client := &Client{
		base:       base,
		httpClient: &http.Client{Transport: newTransport()},
		timeout:    DefaultTimeout,
		userAgent:  defaultUserAgent,
		logger:     log.For("fetch"),
		afterFunc:  time.AfterFunc,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// newTransport mirrors the default transport with explicit dial and handshake limits.
func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   DefaultTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Timeout returns the default per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// CloseIdleConnections closes keep-alive connections held by the transport.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// ResolveURL returns endpoint unchanged when it is absolute, otherwise the
// active base URL followed by endpoint.
func (c *Client) ResolveURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	return c.base.BaseURL() + endpoint
}

// Do performs a single request. On success the caller owns the response body
// and must close it. Failures are *TimeoutError, *HTTPStatusError or
// *NetworkError. Do never retries.
func (c *Client) Do(ctx context.Context, endpoint string, opts *Options) (*http.Response, error) {
	if opts == nil {
		opts = &Options{}
	}

	fullURL := c.ResolveURL(endpoint)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	reqCtx, cancel := context.WithCancel(ctx)
	timer := c.afterFunc(timeout, cancel)

	req, err := http.NewRequestWithContext(reqCtx, opts.method(), fullURL, opts.Body)
	if err != nil {
		timer.Stop()
		cancel()
		return nil, &NetworkError{URL: fullURL, Err: err}
	}
	if sized, ok := opts.Body.(interface{ Len() int }); ok && req.ContentLength == 0 {
		req.ContentLength = int64(sized.Len())
	}

	req.Header = buildHeaders(opts)
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set(HeaderRequestID, requestID)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("url", fullURL).
		Dur("timeout", timeout).
		Msg("Sending request")

	resp, err := c.httpClient.Do(req)
	stopped := timer.Stop()

	if !stopped {
		// The timer fired; whatever arrived belongs to an aborted request.
		cancel()
		if resp != nil {
			drainAndCloseBody(resp)
		}
		c.logger.Warn().
			Str("request_id", requestID).
			Str("url", fullURL).
			Dur("timeout", timeout).
			Msg("Request timed out")
		return nil, &TimeoutError{URL: fullURL, After: timeout}
	}

	if err != nil {
		cancel()
		c.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Str("url", fullURL).
			Msg("Request failed")
		return nil, &NetworkError{URL: fullURL, Err: unwrapURLError(err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := newHTTPStatusError(fullURL, resp)
		cancel()
		c.logger.Warn().
			Str("request_id", requestID).
			Str("url", fullURL).
			Int("status", resp.StatusCode).
			Msg("Request returned error status")
		return nil, statusErr
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// GetJSON issues a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, endpoint string, out any) error {
	return c.SendJSON(ctx, http.MethodGet, endpoint, nil, out)
}

// SendJSON issues a request with in encoded as the JSON body (when non-nil)
// and decodes the response into out (when non-nil).
func (c *Client) SendJSON(ctx context.Context, method, endpoint string, in, out any) error {
	opts := &Options{Method: method}
	if in != nil {
		body, err := JSONBody(in)
		if err != nil {
			return err
		}
		opts.Body = body
	}

	resp, err := c.Do(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if out == nil {
		drainAndCloseBody(resp)
		return nil
	}
	return DecodeJSON(resp, out)
}

// DecodeJSON decodes the response body into out and closes it.
func DecodeJSON(resp *http.Response, out any) error {
	defer drainAndCloseBody(resp)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

func newHTTPStatusError(fullURL string, resp *http.Response) *HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	drainAndCloseBody(resp)

	code := strconv.Itoa(resp.StatusCode)
	status := strings.TrimSpace(strings.TrimPrefix(resp.Status, code))
	if status == "" {
		status = http.StatusText(resp.StatusCode)
	}

	return &HTTPStatusError{
		StatusCode: resp.StatusCode,
		Status:     status,
		URL:        fullURL,
		Header:     resp.Header.Clone(),
		Body:       string(body),
	}
}

// unwrapURLError strips the *url.Error envelope so messages are not doubled.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

// cancelOnClose releases the request context once the caller is done with the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func drainAndCloseBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
