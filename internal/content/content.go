// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content renders the static Markdown pages shipped with the binary
// and sanitises text that comes from the API or from visitors.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/olegiv/ecole-go/internal/i18n"
)

//go:embed pages
var pagesFS embed.FS

// ErrPageNotFound is returned for an unknown page name.
var ErrPageNotFound = errors.New("page not found")

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Typographer),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)

	// Embedded pages and API descriptions may carry basic formatting.
	ugcPolicy = bluemonday.UGCPolicy()

	// Visitor input keeps no markup at all.
	strictPolicy = bluemonday.StrictPolicy()
)

// Page is a rendered Markdown page.
type Page struct {
	Title string
	Body  template.HTML
}

var (
	pageCacheMu sync.RWMutex
	pageCache   = make(map[string]Page)
)

// Load returns the page name in lang, falling back to the default language.
// Rendered pages are cached for the life of the process.
func Load(name, lang string) (Page, error) {
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLanguage
	}
	cacheKey := name + "." + lang

	pageCacheMu.RLock()
	p, ok := pageCache[cacheKey]
	pageCacheMu.RUnlock()
	if ok {
		return p, nil
	}

	src, err := readPage(name, lang)
	if err != nil {
		return Page{}, err
	}
	p, err = render(src)
	if err != nil {
		return Page{}, fmt.Errorf("rendering page %s: %w", name, err)
	}

	pageCacheMu.Lock()
	pageCache[cacheKey] = p
	pageCacheMu.Unlock()
	return p, nil
}

func readPage(name, lang string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, "./\\") {
		return nil, ErrPageNotFound
	}

	src, err := pagesFS.ReadFile("pages/" + name + "." + lang + ".md")
	if errors.Is(err, fs.ErrNotExist) && lang != i18n.DefaultLanguage {
		src, err = pagesFS.ReadFile("pages/" + name + "." + i18n.DefaultLanguage + ".md")
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", name, err)
	}
	return src, nil
}

// render converts Markdown to sanitised HTML. A leading "# " heading becomes
// the page title and is removed from the body.
func render(src []byte) (Page, error) {
	var p Page
	if rest, ok := bytes.CutPrefix(src, []byte("# ")); ok {
		title, body, _ := bytes.Cut(rest, []byte("\n"))
		p.Title = strings.TrimSpace(string(title))
		src = body
	}

	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return Page{}, err
	}
	p.Body = template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes()))
	return p, nil
}

// Markdown renders untrusted Markdown (such as a sheet description returned
// by the API) to sanitised HTML. On a conversion error the text is shown
// escaped.
func Markdown(s string) template.HTML {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

// PlainText strips every tag from s and returns unescaped text suitable for
// logging or re-escaping by html/template.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
