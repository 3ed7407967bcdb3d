package client

import (
	"context"
)

// Connectivity reports whether the API can currently be reached.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// HealthCheck treats the API as online when GET /health answers.
type HealthCheck struct {
	client *Client
}

func (h *HealthCheck) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	_, err := h.client.Health(ctx)
	return err == nil
}

// Static is a fixed connectivity answer, used for a forced offline mode.
type Static bool

func (s Static) Online(context.Context) bool {
	return bool(s)
}
