package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StorageBackend represents the credential storage backend for the client.
type StorageBackend string

const (
	// StorageFile persists credentials to a JSON file on disk.
	StorageFile StorageBackend = "file"
	// StorageMemory keeps credentials in process memory only.
	StorageMemory StorageBackend = "memory"
	// StorageRedis persists credentials to Redis.
	StorageRedis StorageBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (s *StorageBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "memory", "redis":
		*s = StorageBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: file, memory, redis)", v)
	}
}

// StorageConfig contains credential storage configuration.
type StorageConfig struct {
	// Backend selects where session credentials are persisted.
	Backend StorageBackend `env:"BACKEND" envDefault:"file"`

	// Path is the credential file location (used when Backend=file).
	Path string `env:"PATH"`

	// Prefix is the Redis key prefix (used when Backend=redis).
	Prefix string `env:"PREFIX" envDefault:"zamani:"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	if s.Backend == "" {
		s.Backend = StorageFile
	}
	if s.Path == "" {
		s.Path = defaultCredentialPath()
	}
	if s.Prefix == "" {
		s.Prefix = "zamani:"
	}
}

func defaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "zamanivault", "credentials.json")
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig contains content cache configuration.
type CacheConfig struct {
	// Enabled turns the content response cache on.
	Enabled bool `env:"CACHE_ENABLED" envDefault:"true"`

	// TTL is the lifetime of cached catalogue responses.
	TTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}
