package recommender

import (
	"context"
	"strings"
)

// Health is the backend health report. Services maps a dependent service
// name to its textual state, e.g. "healthy", "unhealthy: <reason>" or
// "disabled".
type Health struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Known service names reported by the backend.
const (
	ServiceLLM        = "llm"
	ServiceJobManager = "job_manager"
	ServiceCache      = "cache"
)

// Health probes the backend once. The probe runs under its own short
// deadline so a hung backend cannot stall the caller.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	ctx, cancel := context.WithTimeout(ctx, c.HealthTimeout)
	defer cancel()

	var health Health
	if err := c.getJSON(ctx, HealthPath, &health); err != nil {
		return nil, err
	}

	return &health, nil
}

// DefaultCapabilities is the fixed assumption used until the backend
// reports its services: every known service is taken as available.
func DefaultCapabilities() map[string]bool {
	return map[string]bool{
		ServiceLLM:        true,
		ServiceJobManager: true,
		ServiceCache:      true,
	}
}

// Capabilities derives availability flags from the services map. A service
// counts as available unless it reports itself disabled or unhealthy. When
// the backend omits the map entirely, DefaultCapabilities applies.
func (h *Health) Capabilities() map[string]bool {
	if len(h.Services) == 0 {
		return DefaultCapabilities()
	}

	capabilities := make(map[string]bool, len(h.Services))
	for name, state := range h.Services {
		capabilities[name] = state != "disabled" && !strings.HasPrefix(state, "unhealthy")
	}

	return capabilities
}
