package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Health is the backend liveness state as seen from this client.
type Health string

const (
	HealthOK      Health = "ok"
	HealthOffline Health = "offline"
)

type healthResponse struct {
	Status string `json:"status"`
}

// Health probes GET /health. An unreachable or failing backend degrades
// to HealthOffline rather than an error; the probe never attaches a
// token and never triggers a refresh.
func (g *Gateway) Health(ctx context.Context) Health {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/health", nil)
	if err != nil {
		return HealthOffline
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("health probe failed", slog.Any("error", err))
		return HealthOffline
	}
	defer closeBody(resp, g.logger)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return HealthOffline
	}
	var out healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Status == "" {
		return HealthOK
	}
	return Health(out.Status)
}
