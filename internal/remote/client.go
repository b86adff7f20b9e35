// Package remote is the HTTP client for the project service.
//
// Every call runs through a circuit breaker. Failures are reported with the
// qrdeck error taxonomy: transport problems match ErrNetworkFailure, non-2xx
// replies are *errors.ServerError, undecodable bodies match
// ErrMalformedResponse and an open breaker returns ErrCircuitOpen. The
// client never retries; callers decide what a failure means.
package remote

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

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	qerrors "github.com/qrdeck/qrdeck/internal/errors"
	"github.com/qrdeck/qrdeck/internal/logging"
)

// DefaultBaseURL is the hosted project service.
const DefaultBaseURL = "https://legendbackend.onrender.com"

// maxBodySize caps how much of a response is read.
const maxBodySize = 8 << 20

// Config configures a Client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures uint32        // consecutive failures that open the breaker
	OpenTimeout time.Duration // how long the breaker stays open
	HTTPClient  *http.Client  // optional, overrides Timeout
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     10 * time.Second,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// Client talks to the project service.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// New creates a client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultConfig().MaxFailures
	}

	settings := gobreaker.Settings{
		Name:        "project-service",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// breakerSuccess decides what counts against the breaker. Rejections below
// 500 and caller cancellations say nothing about backend health.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	if se, ok := qerrors.AsServerError(err); ok {
		return se.Status < http.StatusInternalServerError
	}
	return false
}

// do sends one request and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = data
	}

	start := time.Now()
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, op, method, c.baseURL+path, body)
	})

	logging.DebugContext(ctx, "backend request",
		logging.KeyOperation, op,
		logging.KeyURL, logging.MaskURL(c.baseURL+path),
		logging.KeyDuration, time.Since(start).Milliseconds(),
		logging.KeyError, errString(err),
	)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", op, qerrors.ErrCircuitOpen)
		}
		return nil, err
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, op, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "qrdeck/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, qerrors.Network(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, qerrors.Network(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &qerrors.ServerError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: serverMessage(data),
		}
	}
	return data, nil
}

// ack is the {ok, message} envelope returned by mutations.
type ack struct {
	OK      *bool  `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	ID      string `json:"id,omitempty"`
}

// serverMessage extracts a human message from an error body, if any.
func serverMessage(data []byte) string {
	var a ack
	if err := json.Unmarshal(data, &a); err != nil {
		return ""
	}
	if a.Message != "" {
		return a.Message
	}
	return a.Error
}

// decodeAck checks a mutation reply. A missing ok field is accepted;
// ok=false is a rejection even with a 2xx status.
func decodeAck(op string, data []byte) (ack, error) {
	var a ack
	if len(bytes.TrimSpace(data)) == 0 {
		return a, nil
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, qerrors.Malformed(op, err)
	}
	if a.OK != nil && !*a.OK {
		msg := a.Message
		if msg == "" {
			msg = a.Error
		}
		return a, &qerrors.ServerError{Op: op, Status: http.StatusOK, Message: msg}
	}
	return a, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func projectPath(route, id string) string {
	return route + "/" + url.PathEscape(id)
}
