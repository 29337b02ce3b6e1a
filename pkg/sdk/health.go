package transparencia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthStatus represents the aggregated service health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// Health fetches /health. A degraded service answers 503 with a body;
// it is returned without error.
func (c *Client) Health(ctx context.Context) (status HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return HealthStatus{}, fmt.Errorf("transparencia: health: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusServiceUnavailable {
		return HealthStatus{}, apiError(resp.StatusCode(), resp.Body())
	}
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return HealthStatus{}, fmt.Errorf("transparencia: decode health: %w", err)
	}
	return status, nil
}
