package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zamanivault/zamanivault-go/domain/auth"
)

// SubscriptionStatus describes the account's current plan.
type SubscriptionStatus struct {
	Plan        auth.Tier `json:"plan"`
	Status      string    `json:"status"`
	NextBilling string    `json:"nextBilling,omitempty"`
}

// WatchRecord is one entry in the account's watch history.
type WatchRecord struct {
	ContentID   string  `json:"contentId"`
	Progress    float64 `json:"progress"`
	LastWatched string  `json:"lastWatched"`
}

// AccountClientOptions groups dependencies for NewAccountClient.
type AccountClientOptions struct {
	Backend Backend
	Logger  *slog.Logger
}

// AccountClient reads account-scoped resources. Every call requires an
// authenticated gateway; profile mutation lives on the session manager.
type AccountClient struct {
	backend Backend
	logger  *slog.Logger
}

// NewAccountClient constructs an AccountClient.
func NewAccountClient(opts AccountClientOptions) (*AccountClient, error) {
	if opts.Backend == nil {
		return nil, errors.New("api: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountClient{backend: opts.Backend, logger: logger}, nil
}

// Profile fetches the authenticated user's profile.
func (c *AccountClient) Profile(ctx context.Context) (*auth.Identity, error) {
	var identity auth.Identity
	if err := c.backend.Do(ctx, http.MethodGet, "/user/profile", nil, &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

// Subscription fetches the account's subscription status.
func (c *AccountClient) Subscription(ctx context.Context) (*SubscriptionStatus, error) {
	var status SubscriptionStatus
	if err := c.backend.Do(ctx, http.MethodGet, "/user/subscription", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// WatchHistory fetches the account's watch history, newest first.
func (c *AccountClient) WatchHistory(ctx context.Context) ([]WatchRecord, error) {
	var records []WatchRecord
	if err := c.backend.Do(ctx, http.MethodGet, "/user/history", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
