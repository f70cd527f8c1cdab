// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// SimulateSubscription activates the premium tier without payment.
func (c *Client) SimulateSubscription(ctx context.Context, token string) error {
	return c.do(ctx, request{
		operation: "simulate_subscription",
		method:    http.MethodPost,
		path:      "/api/subscription/simulate",
		token:     token,
	}, nil)
}

// UploadVerification sends a teacher's proof of status for manual review.
func (c *Client) UploadVerification(ctx context.Context, token string, file Upload) error {
	body, contentType, err := multipartBody(nil, "file", &file)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		operation:   "upload_verification",
		method:      http.MethodPost,
		path:        "/api/teacher/verification",
		token:       token,
		body:        body,
		contentType: contentType,
	}, nil)
}
