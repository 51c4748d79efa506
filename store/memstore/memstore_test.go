package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamanivault/zamanivault-go/store"
)

func TestStore_SaveLoadClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, store.KeyAccessToken, "token-1"))
	value, ok, err := s.Load(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token-1", value)

	require.NoError(t, s.Save(ctx, store.KeyAccessToken, "token-2"))
	value, _, _ = s.Load(ctx, store.KeyAccessToken)
	assert.Equal(t, "token-2", value)

	require.NoError(t, s.Clear(ctx, store.KeyAccessToken))
	_, ok, err = s.Load(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing an absent key is a no-op.
	require.NoError(t, s.Clear(ctx, store.KeyAccessToken))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Save(ctx, store.KeyAccessToken, "t")
				_, _, _ = s.Load(ctx, store.KeyAccessToken)
				_ = s.Clear(ctx, store.KeyRefreshToken)
			}
		}()
	}
	wg.Wait()
}
