// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides helpers for file URLs, download filenames and client
// addresses.
package util

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxFileURLLength is the maximum accepted length for a sheet file URL.
const MaxFileURLLength = 2048

// DefaultDownloadName is used when no usable name can be derived from a URL.
const DefaultDownloadName = "fiche.pdf"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ValidateRelativeURL checks that raw is a server-relative URL path: no
// scheme, no host, an absolute path and no traversal segments. It returns
// the cleaned path including any query string.
func ValidateRelativeURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty file URL")
	}
	if len(raw) > MaxFileURLLength {
		return "", fmt.Errorf("file URL exceeds maximum length of %d characters", MaxFileURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid file URL: %w", err)
	}
	if u.Scheme != "" || u.Host != "" || u.User != nil || strings.HasPrefix(raw, "//") {
		return "", fmt.Errorf("file URL must be server-relative")
	}
	if !strings.HasPrefix(u.Path, "/") {
		return "", fmt.Errorf("file URL must start with /")
	}
	if ContainsPathTraversal(u.Path) {
		return "", fmt.Errorf("path traversal detected in file URL")
	}

	out := path.Clean(u.Path)
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out, nil
}

// ContainsPathTraversal reports whether a URL path has a ".." segment.
func ContainsPathTraversal(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// FilenameFromURL returns the final path segment of a file URL, unescaped.
// It falls back to DefaultDownloadName when the URL has no usable segment.
func FilenameFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == ".." || name == "" {
		return DefaultDownloadName
	}
	return name
}

// ASCIIFilename transliterates name to a safe ASCII filename for the plain
// filename parameter of a Content-Disposition header.
func ASCIIFilename(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, name)

	result = unidecode.Unidecode(result)
	result = strings.ReplaceAll(result, " ", "_")
	result = unsafeFilenameChars.ReplaceAllString(result, "")
	result = strings.Trim(result, "._-")

	if result == "" {
		return DefaultDownloadName
	}
	return result
}
