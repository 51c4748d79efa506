package session

// The manager implements transport.TokenSource: the gateway reads token
// material through these methods and hands refresh outcomes back, so the
// manager stays the only writer of session state. Memory is authoritative
// once populated; the credential store is consulted only before Restore
// has run (a cold read, matching the persisted mirror).

import (
	"context"
	"log/slog"

	"github.com/zamanivault/zamanivault-go/notify"
	"github.com/zamanivault/zamanivault-go/store"
)

// AccessToken returns the current access token.
func (m *Manager) AccessToken(ctx context.Context) (string, bool) {
	m.mu.RLock()
	access := m.access
	populated := m.identity != nil
	m.mu.RUnlock()
	if access != "" {
		return access, true
	}
	if populated {
		return "", false
	}
	return m.coldLoad(ctx, store.KeyAccessToken)
}

// RefreshToken returns the current refresh token.
func (m *Manager) RefreshToken(ctx context.Context) (string, bool) {
	m.mu.RLock()
	refresh := m.refresh
	populated := m.identity != nil
	m.mu.RUnlock()
	if refresh != "" {
		return refresh, true
	}
	if populated {
		return "", false
	}
	return m.coldLoad(ctx, store.KeyRefreshToken)
}

// SetAccessToken replaces the access token after a successful refresh
// exchange and writes it through to the store. Called by the gateway
// mid-request; must not take the operation gate.
func (m *Manager) SetAccessToken(ctx context.Context, token string) error {
	m.mu.Lock()
	m.access = token
	m.mu.Unlock()
	return m.store.Save(ctx, store.KeyAccessToken, token)
}

// ForceLogout tears the session down after a rejected refresh token.
// Like SetAccessToken it runs inside an in-flight request, so it only
// takes the state lock; the operation holding the gate (if any) is the
// one whose request triggered the teardown.
func (m *Manager) ForceLogout(ctx context.Context) error {
	return m.clearSession(ctx, "Session expired", "Please sign in again", notify.SeverityError)
}

func (m *Manager) coldLoad(ctx context.Context, key string) (string, bool) {
	value, ok, err := m.store.Load(ctx, key)
	if err != nil {
		m.logger.Warn("load token from store failed", slog.String("key", key), slog.Any("error", err))
		return "", false
	}
	return value, ok && value != ""
}
