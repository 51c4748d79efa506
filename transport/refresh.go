package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/zamanivault/zamanivault-go/errors"
)

// refreshKey is the single-flight key: there is only ever one refresh
// exchange in flight per gateway, whatever triggered it.
const refreshKey = "token-refresh"

// errNoRefreshToken marks a refresh attempt that could not even start.
// Callers holding an original authorization failure propagate that one.
var errNoRefreshToken = errors.New("no refresh token available")

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access string `json:"access"`
}

// refreshAccessToken runs the one-shot refresh protocol. Concurrent
// callers share a single exchange and its result; the forced logout on a
// rejected refresh token therefore happens exactly once no matter how
// many requests observed the same authorization failure.
func (g *Gateway) refreshAccessToken(ctx context.Context) (string, error) {
	value, err, shared := g.refresh.Do(refreshKey, func() (any, error) {
		// Detach from the triggering request's cancellation: the result is
		// shared with other callers that may still be interested.
		return g.exchangeRefreshToken(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	if shared {
		g.logger.Debug("reused in-flight token refresh")
	}
	return value.(string), nil
}

// exchangeRefreshToken swaps the refresh token for a new access token at
// the backend's refresh endpoint. It runs inside the single-flight group.
func (g *Gateway) exchangeRefreshToken(ctx context.Context) (string, error) {
	refresh, ok := g.refreshTokenValue(ctx)
	if !ok {
		g.forceLogout(ctx)
		return "", apperrors.Wrap(errNoRefreshToken, apperrors.ErrCodeUnauthorized, "Session expired")
	}

	body, err := json.Marshal(refreshRequest{Refresh: refresh})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode refresh request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+g.refreshPath, bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// Unreachable backend never tears down an established session.
		return "", apperrors.Wrap(err, apperrors.ErrCodeNetwork, "Token refresh failed: backend unreachable")
	}
	defer closeBody(resp, g.logger)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		g.logger.Info("refresh token rejected",
			slog.Int("status", resp.StatusCode),
			slog.String("message", errorMessage(data)))
		g.forceLogout(ctx)
		return "", apperrors.Unauthorized("Session expired")
	}

	var out refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "decode refresh response")
	}
	if out.Access == "" {
		g.forceLogout(ctx)
		return "", apperrors.Unauthorized("Session expired")
	}

	if err := g.storeAccessToken(ctx, out.Access); err != nil {
		g.logger.Warn("persist refreshed access token failed", slog.Any("error", err))
	}
	return out.Access, nil
}
