// Package transport implements the HTTP gateway to the ZamaniVault
// backend: JSON request plumbing, bearer-token attachment, and the
// one-shot token-refresh protocol with single-flight de-duplication.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/zamanivault/zamanivault-go/errors"
	"github.com/zamanivault/zamanivault-go/store"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultRefreshPath = "/auth/token/refresh"

	requestIDHeader = "X-Request-ID"
)

// TokenSource supplies token material to the gateway and receives token
// lifecycle callbacks. The session manager implements it: the gateway
// reads tokens and reports refresh outcomes, but never writes session
// state itself.
type TokenSource interface {
	// AccessToken returns the current access token, if any.
	AccessToken(ctx context.Context) (string, bool)

	// RefreshToken returns the current refresh token, if any.
	RefreshToken(ctx context.Context) (string, bool)

	// SetAccessToken replaces the access token after a successful refresh
	// exchange. The implementation persists it.
	SetAccessToken(ctx context.Context, token string) error

	// ForceLogout tears the session down after a rejected refresh.
	ForceLogout(ctx context.Context) error
}

// Options groups dependencies for NewGateway.
type Options struct {
	// BaseURL is the backend base URL, e.g. "http://localhost:8000/api".
	BaseURL string

	// Store is the credential store read for token material until a
	// TokenSource is bound via BindTokens.
	Store store.Store

	// Client is the HTTP client used for all requests. Defaults to a
	// client with a 15s timeout.
	Client *http.Client

	// RefreshPath overrides the token-refresh endpoint path.
	RefreshPath string

	Logger *slog.Logger
}

// Gateway issues authenticated JSON requests to the backend collaborator.
// On an authorization failure it performs at most one refresh-and-retry
// cycle per logical request; concurrent refresh triggers collapse into a
// single exchange.
type Gateway struct {
	baseURL     string
	refreshPath string
	client      *http.Client
	store       store.Store
	tokens      TokenSource
	logger      *slog.Logger
	refresh     singleflight.Group
}

// NewGateway constructs a Gateway. BaseURL and Store are required.
func NewGateway(opts Options) (*Gateway, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("transport: base URL is required")
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("transport: invalid base URL %q", opts.BaseURL)
	}
	if opts.Store == nil {
		return nil, errors.New("transport: credential store is required")
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	refreshPath := opts.RefreshPath
	if refreshPath == "" {
		refreshPath = defaultRefreshPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		baseURL:     base,
		refreshPath: refreshPath,
		client:      client,
		store:       opts.Store,
		logger:      logger,
	}, nil
}

// BindTokens attaches a TokenSource as the authoritative source of token
// material. Before binding, the gateway falls back to reading the
// credential store directly. Call once during wiring, before serving
// requests.
func (g *Gateway) BindTokens(ts TokenSource) { g.tokens = ts }

// call carries one logical request. The underlying *http.Request is
// rebuilt for every attempt; retry state lives in the caller's frame,
// never on a shared request object.
type call struct {
	method   string
	endpoint string
	body     []byte
}

// Do issues a JSON request and decodes a JSON response into out (which
// may be nil). Failures are returned as classified *errors.AppError
// values: network, unauthorized, validation, conflict, not_found, server.
func (g *Gateway) Do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
		}
		payload = data
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	c := call{method: method, endpoint: endpoint, body: payload}

	token, authed := g.accessToken(ctx)
	if authed && tokenExpired(token, time.Now()) {
		// Proactive refresh for access tokens that carry a readable expiry.
		fresh, err := g.refreshAccessToken(ctx)
		switch {
		case err == nil:
			token = fresh
		case apperrors.IsUnauthorized(err):
			return err
		default:
			// Transient refresh failure: try the stale token and let the
			// reactive 401 path decide.
		}
	}

	err := g.send(ctx, c, token, out)
	if err == nil || !authed || !apperrors.IsUnauthorized(err) {
		return err
	}

	// One refresh attempt per original request. A second 401 after the
	// retry below is returned as-is.
	fresh, refreshErr := g.refreshAccessToken(ctx)
	if refreshErr != nil {
		if errors.Is(refreshErr, errNoRefreshToken) {
			// No refresh token: the original authorization failure stands.
			return err
		}
		return refreshErr
	}
	return g.send(ctx, c, fresh, out)
}

// Get issues a GET request.
func (g *Gateway) Get(ctx context.Context, endpoint string, out any) error {
	return g.Do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post issues a POST request.
func (g *Gateway) Post(ctx context.Context, endpoint string, body, out any) error {
	return g.Do(ctx, http.MethodPost, endpoint, body, out)
}

// Put issues a PUT request.
func (g *Gateway) Put(ctx context.Context, endpoint string, body, out any) error {
	return g.Do(ctx, http.MethodPut, endpoint, body, out)
}

// Delete issues a DELETE request.
func (g *Gateway) Delete(ctx context.Context, endpoint string) error {
	return g.Do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// send performs a single attempt: build the request, attach the bearer
// token when present, classify the outcome.
func (g *Gateway) send(ctx context.Context, c call, token string, out any) error {
	var reader io.Reader
	if len(c.body) > 0 {
		reader = bytes.NewReader(c.body)
	}
	req, err := http.NewRequestWithContext(ctx, c.method, g.baseURL+c.endpoint, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	if len(c.body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeNetwork, "backend unreachable")
	}
	defer closeBody(resp, g.logger)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode response body")
		}
		return nil
	}

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		g.logger.Warn("read error response failed",
			slog.String("endpoint", c.endpoint), slog.Any("error", readErr))
	}
	return classifyStatus(resp.StatusCode, errorMessage(data))
}

// accessToken reads the current access token: from the bound TokenSource
// when present (memory is authoritative), otherwise from the store.
func (g *Gateway) accessToken(ctx context.Context) (string, bool) {
	if g.tokens != nil {
		return g.tokens.AccessToken(ctx)
	}
	value, ok, err := g.store.Load(ctx, store.KeyAccessToken)
	if err != nil {
		g.logger.Warn("load access token failed", slog.Any("error", err))
		return "", false
	}
	return value, ok && value != ""
}

func (g *Gateway) refreshTokenValue(ctx context.Context) (string, bool) {
	if g.tokens != nil {
		return g.tokens.RefreshToken(ctx)
	}
	value, ok, err := g.store.Load(ctx, store.KeyRefreshToken)
	if err != nil {
		g.logger.Warn("load refresh token failed", slog.Any("error", err))
		return "", false
	}
	return value, ok && value != ""
}

func (g *Gateway) storeAccessToken(ctx context.Context, token string) error {
	if g.tokens != nil {
		return g.tokens.SetAccessToken(ctx, token)
	}
	return g.store.Save(ctx, store.KeyAccessToken, token)
}

func (g *Gateway) forceLogout(ctx context.Context) {
	var err error
	if g.tokens != nil {
		err = g.tokens.ForceLogout(ctx)
	} else {
		err = store.ClearAll(ctx, g.store)
	}
	if err != nil {
		g.logger.Warn("forced logout failed", slog.Any("error", err))
	}
}

func closeBody(resp *http.Response, logger *slog.Logger) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logger.Debug("drain response body failed", slog.Any("error", err))
	}
	if err := resp.Body.Close(); err != nil {
		logger.Debug("close response body failed", slog.Any("error", err))
	}
}

// classifyStatus maps an HTTP status to the error taxonomy.
func classifyStatus(status int, message string) error {
	switch {
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(fallbackString(message, "Authorization required"))
	case status == http.StatusForbidden:
		return apperrors.Unauthorized(fallbackString(message, "Access denied"))
	case status == http.StatusNotFound:
		return apperrors.NotFound(fallbackString(message, "Not found"))
	case status == http.StatusConflict:
		return apperrors.Conflict(fallbackString(message, "Conflict"))
	case status >= 400 && status < 500:
		return apperrors.Validation(fallbackString(message, "Invalid request"))
	default:
		return apperrors.Server(fallbackString(message, fmt.Sprintf("Backend error (%d)", status)))
	}
}

// errorMessage extracts a human-readable message from a JSON error body.
// The backend uses {"error": ...}; Django-style collaborators also emit
// {"detail": ...} and per-field serializer errors.
func errorMessage(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"error", "detail", "message"} {
		if msg, ok := payload[key].(string); ok && msg != "" {
			return msg
		}
	}
	// Per-field errors: {"email": ["Email already in use"]}
	for field, value := range payload {
		items, ok := value.([]any)
		if !ok || len(items) == 0 {
			continue
		}
		if msg, ok := items[0].(string); ok && msg != "" {
			return field + ": " + msg
		}
	}
	return ""
}

func fallbackString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
