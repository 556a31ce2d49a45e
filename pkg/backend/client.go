package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/cafe-storefront/pkg/config"
)

const (
	defaultTimeout      = 8 * time.Second
	defaultRetryBackoff = 200 * time.Millisecond
	maxReasonBytes      = 512
)

var errBaseURLRequired = errors.New("backend base url is required")

// Client issues JSON calls against the cafe REST backend on behalf of a shopper session.
// Only idempotent methods (GET, DELETE) are retried; POSTs go out exactly once.
// Each attempt is bounded by the configured timeout unless the caller's
// context already carries a deadline, so callers can grant a call more time.
// Once the backend keeps failing, an optional breaker fails calls fast without
// sending them.
type Client struct {
	baseURL      string
	http         *http.Client
	timeout      time.Duration
	readRetries  uint64
	retryBackoff time.Duration
	breaker      *gobreaker.CircuitBreaker[struct{}]
}

// New builds a backend client from configuration.
func New(cfg config.BackendConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}
	return &Client{
		baseURL:      base,
		http:         &http.Client{},
		timeout:      timeout,
		readRetries:  cfg.ReadRetries,
		retryBackoff: backoff,
		breaker:      newBreaker(cfg),
	}, nil
}

func newBreaker(cfg config.BackendConfig) *gobreaker.CircuitBreaker[struct{}] {
	if cfg.BreakerFailures == 0 {
		return nil
	}
	threshold := cfg.BreakerFailures
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "cafe-backend",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A shopper's 4xx or an abandoned request says nothing about backend health.
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.ClientError()
		},
	})
}

// Request describes a single backend call.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Session string
	Body    any
}

// Get fetches path into out, retrying transient failures.
func (c *Client) Get(ctx context.Context, path, session string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Session: session}, out)
}

// Post sends body to path once and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, query url.Values, session string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Query: query, Session: session, Body: body}, out)
}

// Delete removes the resource at path, retrying transient failures.
func (c *Client) Delete(ctx context.Context, path, session string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Session: session}, nil)
}

// Do executes req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if !idempotent(req.Method) || c.readRetries == 0 {
		return c.once(ctx, req, out)
	}
	backoff := retry.WithMaxRetries(c.readRetries, retry.NewExponential(c.retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.once(ctx, req, out)
		if transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) once(ctx context.Context, req Request, out any) error {
	if c.breaker == nil {
		return c.send(ctx, req, out)
	}
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.send(ctx, req, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	return err
}

func (c *Client) send(ctx context.Context, req Request, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint, err := c.endpoint(req.Path, req.Query)
	if err != nil {
		return err
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", req.Method, req.Path, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if session := strings.TrimSpace(req.Session); session != "" {
		httpReq.Header.Set("Authorization", "Bearer "+session)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &TransportError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			reason: extractReason(resp.Body),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return "", fmt.Errorf("joining backend path %q: %w", path, err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint, nil
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodDelete
}

func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return !errors.Is(err, context.Canceled)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}

// TransportError means no response was received from the backend.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call was abandoned because a deadline passed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method string
	Path   string
	Status int
	reason string
}

func (e *StatusError) Error() string {
	if e.reason == "" {
		return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.Status, e.reason)
}

func (e *StatusError) StatusCode() int {
	return e.Status
}

// Reason is the backend-provided failure message, verbatim.
func (e *StatusError) Reason() string {
	return e.reason
}

// ClientError reports a 4xx response.
func (e *StatusError) ClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

func extractReason(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxReasonBytes))
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return text
	}
	if nested, ok := payload["error"].(map[string]any); ok {
		payload = nested
	}
	for _, key := range []string{"message", "error", "detail", "reason", "msg"} {
		if val, ok := payload[key].(string); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return text
}

// Status returns the backend HTTP status carried by err, or 0 when no response was received.
func Status(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

// Generic reasons for failures that carry no backend message. They are safe to
// show a shopper; the raw error, with its URL and query, stays in the chain.
const (
	ReasonUnreachable = "the payment service did not respond"
	ReasonUnexpected  = "the payment service returned an unexpected response"
)

// Reason returns the backend-provided failure message carried by err. Errors
// without one map to a fixed, shopper-safe text.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.reason != "" {
			return statusErr.reason
		}
		return fmt.Sprintf("request rejected with status %d", statusErr.Status)
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return ReasonUnreachable
	}
	return ReasonUnexpected
}

// Timeout reports whether err is a backend call abandoned at a deadline.
func Timeout(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) && transportErr.Timeout()
}
