// Package gateway is the single chokepoint through which every backend call
// is issued. It injects the bearer token from the session store, classifies
// responses into the client's error taxonomy, and reacts to an expired
// session the same way on every page: clear the session, redirect to login.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/licomnaklavy/edu-platform/internal/nav"
	"github.com/licomnaklavy/edu-platform/internal/session"
)

// Request describes one backend call. It is ephemeral: built per call,
// never persisted.
type Request struct {
	Path   string
	Method string
	Body   any
	Header http.Header
}

// Config holds dependencies for a gateway client
type Config struct {
	BaseURL    string
	Sessions   *session.Store
	Navigator  nav.Navigator
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client executes backend calls with uniform authorization and error
// semantics
type Client struct {
	baseURL  string
	http     *http.Client
	sessions *session.Store
	nav      nav.Navigator
	logger   *slog.Logger

	retrier retrier
	breaker breaker
}

// New creates a gateway client. The navigator is wrapped so that the
// expired-session redirect fires at most once per process, no matter how
// many in-flight calls observe the dead token.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		sessions: cfg.Sessions,
		nav:      nav.Dedupe(cfg.Navigator),
		logger:   logger,
	}
	c.retrier = newRetrier()
	c.breaker = newBreaker(logger)
	return c
}

// Do executes a request and decodes the JSON response into out (which may be
// nil for calls whose body the caller does not need). Read-only requests go
// through the resilience wrappers; mutating requests are issued exactly once.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	op := func(ctx context.Context) ([]byte, error) {
		return c.execute(ctx, req)
	}

	var raw []byte
	var err error
	if req.Method == http.MethodGet {
		raw, err = c.breaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
			return c.retrier.Do(ctx, op)
		})
	} else {
		raw, err = op(ctx)
	}
	if err != nil {
		return err
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// execute performs a single HTTP round trip and classifies the outcome
func (c *Client) execute(ctx context.Context, req Request) ([]byte, error) {
	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.New().String())
	token, hasToken := c.sessions.ReadToken()
	if hasToken {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.Path,
		"has_token", hasToken,
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, c.classifyUnauthorized(req)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{cause: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError(resp.StatusCode, parseDetail(raw))
	}

	return raw, nil
}

// classifyUnauthorized distinguishes the two 401 cases. A 401 from an auth
// endpoint means bad credentials: there is no session yet, nothing to tear
// down. A 401 from any protected endpoint means the persisted token is dead;
// this is the one failure handled inside the gateway, because its recovery
// must not depend on each page implementing it correctly.
func (c *Client) classifyUnauthorized(req Request) error {
	if isAuthPath(req.Path) {
		return ErrInvalidCredentials
	}

	c.logger.Info("session rejected by backend, logging out", "path", req.Path)
	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("clear session", "error", err)
	}
	c.nav.Navigate(nav.PageLogin)
	return ErrAuthRequired
}

// isAuthPath reports whether the path denotes an authentication endpoint
func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}

// parseDetail extracts the backend error envelope's message, if any
func parseDetail(raw []byte) string {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	return envelope.Detail
}
