package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zamanivault/zamanivault-go/config"
	"github.com/zamanivault/zamanivault-go/internal/testutil"
)

func TestLoadConfig_MissingDotEnvIsFine(t *testing.T) {
	t.Chdir(t.TempDir()) // no .env here

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, config.StorageFile, cfg.Storage.Backend)
}

func TestLoadConfig_AppliesEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("API_BASE_URL", "http://backend:9000/api")
	t.Setenv("STORAGE_BACKEND", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000/api", cfg.API.BaseURL)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Backend)
}

func testConfig(baseURL string) config.AppConfig {
	cfg := config.AppConfig{}
	cfg.API.BaseURL = baseURL
	cfg.API.Timeout = 5 * time.Second
	cfg.Storage.Backend = config.StorageMemory
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute
	cfg.Sanitize()
	return cfg
}

func TestNewClient_WiresEverything(t *testing.T) {
	fb := testutil.NewFakeBackend()
	t.Cleanup(fb.Close)

	client, err := NewClient(testConfig(fb.URL()), ClientOptions{})
	require.NoError(t, err)
	require.NotNil(t, client.Gateway)
	require.NotNil(t, client.Session)
	require.NotNil(t, client.Content)
	require.NotNil(t, client.Account)
	require.NotNil(t, client.Analytics)

	ctx := context.Background()
	require.NoError(t, client.Session.Restore(ctx))
	assert.False(t, client.Session.IsAuthenticated())

	// The wired pieces share one store and token source: login through the
	// session, then read an authenticated resource through the gateway.
	_, err = client.Session.Login(ctx, "user@example.com", testutil.SeededPassword)
	require.NoError(t, err)

	identity, err := client.Account.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", identity.Email)

	items, err := client.Content.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, items)
}

func TestNewClient_FileBackend(t *testing.T) {
	fb := testutil.NewFakeBackend()
	t.Cleanup(fb.Close)

	cfg := testConfig(fb.URL())
	cfg.Storage.Backend = config.StorageFile
	cfg.Storage.Path = filepath.Join(t.TempDir(), "credentials.json")

	client, err := NewClient(cfg, ClientOptions{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.Session.Login(ctx, "user@example.com", testutil.SeededPassword)
	require.NoError(t, err)

	// A second client over the same file restores the session, standing in
	// for an app restart.
	reopened, err := NewClient(cfg, ClientOptions{})
	require.NoError(t, err)
	require.NoError(t, reopened.Session.Restore(ctx))
	assert.True(t, reopened.Session.IsAuthenticated())
}

func TestNewClient_InvalidConfig(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.Storage.Backend = config.StorageBackend("vault")

	_, err := NewClient(cfg, ClientOptions{})
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	logger := InitLogger(true)
	require.NotNil(t, logger)
	logger.Debug("dev logger accepts debug")
}
