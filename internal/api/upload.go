// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Upload is a file sent as a multipart part.
type Upload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// formField is one plain multipart field, kept ordered for stable requests.
type formField struct {
	name  string
	value string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody encodes fields and an optional file under fileField.
// The body is buffered so the request has a known Content-Length.
func multipartBody(fields []formField, fileField string, file *Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.name, err)
		}
	}

	if file != nil {
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(fileField), quoteEscaper.Replace(file.Filename)))
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := io.Copy(part, file.Data); err != nil {
			return nil, "", fmt.Errorf("copying file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func boolField(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
