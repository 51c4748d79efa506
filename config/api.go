package config

import (
	"strings"
	"time"
)

// APIConfig contains backend API configuration.
type APIConfig struct {
	// BaseURL is the root of the backend API, without a trailing slash.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000/api"`

	// Timeout bounds each HTTP request, including the body read.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// RefreshPath is the token refresh endpoint, relative to BaseURL.
	RefreshPath string `env:"REFRESH_PATH" envDefault:"/auth/token/refresh"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
	if a.RefreshPath == "" {
		a.RefreshPath = "/auth/token/refresh"
	}
	if !strings.HasPrefix(a.RefreshPath, "/") {
		a.RefreshPath = "/" + a.RefreshPath
	}
}
