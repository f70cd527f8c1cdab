// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/olegiv/ecole-go/internal/api"
	"github.com/olegiv/ecole-go/internal/model"
)

// FileInput is a file received from a form.
type FileInput struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// Accepted verification document types by extension.
var verificationTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// sniff detects the content type from the first bytes and rewinds.
func sniff(r io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	ct := http.DetectContentType(head[:n])
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, nil
}

// checkFile validates f against the allowed types and size limit, returning
// its content type. It sets the matching notice on failure.
func (c *Controller) checkFile(f *FileInput, allowed map[string]string, maxSize int64, typeKey string) (string, error) {
	if f == nil || f.Content == nil || f.Filename == "" {
		c.failMessage(c.t("notice.file_required"))
		return "", fmt.Errorf("%w: no file", ErrValidation)
	}
	if f.Size > maxSize {
		c.failMessage(c.t("notice.file_too_large", maxSize>>20))
		return "", fmt.Errorf("%w: file too large", ErrValidation)
	}

	want, ok := allowed[strings.ToLower(filepath.Ext(f.Filename))]
	if !ok {
		c.failMessage(c.t(typeKey))
		return "", fmt.Errorf("%w: extension not allowed", ErrValidation)
	}
	got, err := sniff(f.Content)
	if err != nil {
		c.failMessage(c.t("notice.unexpected_error"))
		return "", fmt.Errorf("reading upload: %w", err)
	}
	if got != want {
		c.failMessage(c.t(typeKey))
		return "", fmt.Errorf("%w: content is %s, expected %s", ErrValidation, got, want)
	}
	return want, nil
}

// Subscribe activates the simulated premium subscription. On success the
// local user is marked premium without refetching the profile.
func (c *Controller) Subscribe(ctx context.Context) error {
	token, err := c.requireToken(ctx)
	if err != nil {
		return err
	}

	if err := c.api.SimulateSubscription(ctx, token); err != nil {
		if c.handleUnauthorized(ctx, err) {
			return err
		}
		c.logger.Warn("subscription failed", "category", model.EventCategoryAuth, "error", err)
		c.fail(err, "notice.subscribe_failed")
		return err
	}

	c.mu.Lock()
	if c.state.User != nil {
		c.state.User.IsPremium = true
	}
	c.mu.Unlock()

	c.logger.Info("premium subscription activated")
	c.success("notice.subscribe_success")
	return nil
}

// UploadVerification sends a teacher's proof of status. Only PDF, JPEG and
// PNG up to the upload limit are accepted; images are normalised first. The
// local user is never marked verified: approval is a manual server-side step.
func (c *Controller) UploadVerification(ctx context.Context, f *FileInput) error {
	token, err := c.requireToken(ctx)
	if err != nil {
		return err
	}

	contentType, err := c.checkFile(f, verificationTypes, c.maxUpload, "notice.file_type_invalid")
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.state.VerificationFile = f.Filename
	c.mu.Unlock()

	var data io.Reader = f.Content
	if c.images != nil && contentType != "application/pdf" {
		normalized, err := c.images.Normalize(f.Content, contentType)
		if err != nil {
			c.logger.Warn("failed to normalize verification image", "error", err)
			c.failMessage(c.t("notice.file_type_invalid"))
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		data = bytes.NewReader(normalized)
	}

	err = c.api.UploadVerification(ctx, token, api.Upload{
		Filename:    filepath.Base(f.Filename),
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		if c.handleUnauthorized(ctx, err) {
			return err
		}
		c.logger.Warn("verification upload failed", "category", model.EventCategoryAuth, "error", err)
		c.fail(err, "notice.verification_failed")
		return err
	}

	c.mu.Lock()
	c.state.VerificationFile = ""
	c.mu.Unlock()

	c.logger.Info("verification document submitted")
	c.success("notice.verification_success")
	return nil
}
