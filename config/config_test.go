package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.False(t, cfg.IsDev)
	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/auth/token/refresh", cfg.API.RefreshPath)
	assert.Equal(t, StorageFile, cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.Equal(t, "zamani:", cfg.Storage.Prefix)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestAppConfig_FromEnvironment(t *testing.T) {
	t.Setenv("DEV", "true")
	t.Setenv("API_BASE_URL", "https://api.zamanivault.example/api/")
	t.Setenv("API_TIMEOUT", "30s")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("CACHE_TTL", "1m")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.True(t, cfg.IsDev)
	assert.Equal(t, "https://api.zamanivault.example/api", cfg.API.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
}

func TestAppConfig_NodeEnvFallback(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.True(t, cfg.IsDev)
}

func TestStorageBackend_UnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    StorageBackend
		wantErr bool
	}{
		{"file", StorageFile, false},
		{"MEMORY", StorageMemory, false},
		{"Redis", StorageRedis, false},
		{"sqlite", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			var b StorageBackend
			err := b.UnmarshalText([]byte(tc.input))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, b)
		})
	}
}

func TestAPIConfig_SanitizeGuardrails(t *testing.T) {
	cfg := APIConfig{BaseURL: "  http://host/api/ ", Timeout: -1, RefreshPath: "auth/refresh"}
	cfg.Sanitize()

	assert.Equal(t, "http://host/api", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "/auth/refresh", cfg.RefreshPath)
}
