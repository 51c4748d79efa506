// Package store defines the credential store port: durable key-value
// persistence for the session's identity record and token material.
// Implementations live under store/filestore, store/memstore, and
// store/redisstore.
package store

import (
	"context"
	"errors"
)

// Logical keys persisted by the session manager. Each is an independent
// entry in the backing medium.
const (
	KeyIdentity     = "zamani.identity"
	KeyAccessToken  = "zamani.access_token"
	KeyRefreshToken = "zamani.refresh_token"
)

// Store persists credential entries across process restarts.
//
// Save overwrites unconditionally. Load reports ok=false for a key that
// was never written or previously cleared. Clear is a no-op for an
// absent key.
type Store interface {
	Save(ctx context.Context, key, value string) error
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	Clear(ctx context.Context, key string) error
}

// Keys lists every logical key owned by the session manager.
func Keys() []string {
	return []string{KeyIdentity, KeyAccessToken, KeyRefreshToken}
}

// ClearAll removes every session entry from the store. It keeps going on
// failure so a partial wipe still removes as much as possible.
func ClearAll(ctx context.Context, s Store) error {
	var errs []error
	for _, key := range Keys() {
		if err := s.Clear(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
