package filestore

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamanivault/zamanivault-go/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "creds", "credentials.json"))
	require.NoError(t, err)
	return s
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestStore_RoundtripAcrossInstances(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, store.KeyAccessToken, "token-1"))
	require.NoError(t, s.Save(ctx, store.KeyRefreshToken, "refresh-1"))

	// A second instance over the same path sees the same entries, like a
	// process restart would.
	reopened, err := New(s.Path())
	require.NoError(t, err)

	value, ok, err := reopened.Load(ctx, store.KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token-1", value)

	value, ok, err = reopened.Load(ctx, store.KeyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "refresh-1", value)
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Load(context.Background(), store.KeyIdentity)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, store.KeyIdentity, "record"))
	require.NoError(t, s.Clear(ctx, store.KeyIdentity))
	require.NoError(t, s.Clear(ctx, store.KeyIdentity))

	_, ok, err := s.Load(ctx, store.KeyIdentity)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_CorruptFileSurfacesError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{broken"), 0o600))

	_, _, err := s.Load(context.Background(), store.KeyIdentity)
	require.Error(t, err)
}

func TestStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	s := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), store.KeyAccessToken, "secret"))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
