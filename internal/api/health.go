// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// HealthStatus is the API health payload.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health calls the API health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	err := c.do(ctx, request{
		operation: "health",
		method:    http.MethodGet,
		path:      "/api/health",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
