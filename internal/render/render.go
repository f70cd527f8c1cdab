package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/olegiv/ecole-go/internal/content"
	"github.com/olegiv/ecole-go/internal/i18n"
	"github.com/olegiv/ecole-go/internal/middleware"
	"github.com/olegiv/ecole-go/internal/model"
)

// Page directories. Each file in them becomes a template named
// "<dir>/<file without .html>", parsed with the base layout and partials.
var pageDirs = []string{"pages", "errors"}

const baseLayout = "layouts/base.html"

// blankLinesRegex matches runs of blank lines left behind by template actions.
var blankLinesRegex = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)

// Renderer handles template rendering with caching.
type Renderer struct {
	fsys      fs.FS
	isDev     bool
	version   string
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	// IsDev re-parses templates on every render.
	IsDev   bool
	Version string
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		fsys:    cfg.TemplatesFS,
		isDev:   cfg.IsDev,
		version: cfg.Version,
	}

	templates, err := r.parseTemplates()
	if err != nil {
		return nil, err
	}
	r.templates = templates
	return r, nil
}

// parseTemplates parses all page templates from the filesystem.
func (r *Renderer) parseTemplates() (map[string]*template.Template, error) {
	partials, err := getTemplateFiles(r.fsys, "partials")
	if err != nil {
		return nil, fmt.Errorf("getting partials: %w", err)
	}

	templates := make(map[string]*template.Template)
	for _, dir := range pageDirs {
		pages, err := getTemplateFiles(r.fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("getting %s templates: %w", dir, err)
		}

		for _, tmplPath := range pages {
			name := dir + "/" + strings.TrimSuffix(path.Base(tmplPath), ".html")

			// Parse in order: base layout, partials, page template
			files := []string{baseLayout}
			files = append(files, partials...)
			files = append(files, tmplPath)

			tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(r.fsys, files...)
			if err != nil {
				return nil, fmt.Errorf("parsing template %s: %w", name, err)
			}
			templates[name] = tmpl
		}
	}
	return templates, nil
}

// getTemplateFiles returns all .html files in a directory.
func getTemplateFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Has reports whether a template with name exists.
func (r *Renderer) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[name]
	return ok
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	if r.isDev {
		templates, err := r.parseTemplates()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.templates = templates
		r.mu.Unlock()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}
	return tmpl, nil
}

// TemplateData holds data passed to templates. Render fills the request
// dependent fields; handlers set Title and Data.
type TemplateData struct {
	Title string
	Data  any

	Lang      string
	Languages []string
	Path      string
	View      string
	User      *model.User
	IsAdmin   bool

	// Notice is taken from the visitor's slot, so it is rendered once.
	Notice   model.Notice
	NoticeMS int64

	Device   string
	IsMobile bool

	Levels      []model.Level
	Subjects    []model.Subject
	CurrentYear int
	Version     string
}

func (r *Renderer) prepare(req *http.Request, data *TemplateData) {
	data.Lang = middleware.GetLanguage(req)
	data.Languages = i18n.SupportedLanguages
	data.Path = req.URL.Path
	data.Device = middleware.GetDevice(req)
	data.IsMobile = middleware.IsMobile(req)
	data.Levels = model.Levels()
	data.Subjects = model.Subjects()
	data.CurrentYear = time.Now().Year()
	data.Version = r.version

	if ctrl := middleware.GetPortal(req); ctrl != nil {
		data.User = ctrl.User()
		data.IsAdmin = ctrl.IsAdmin()
		if data.View == "" {
			data.View = string(ctrl.View())
		}
		notice, remaining := ctrl.Notices().Take()
		data.Notice = notice
		data.NoticeMS = remaining.Milliseconds()
	}
	if data.Title != "" {
		data.Title = i18n.T(data.Lang, data.Title)
	}
}

// Render renders a page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a page with the given status code. Data.Title is a
// message key translated to the request language.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, err := r.lookup(name)
	if err != nil {
		return err
	}

	r.prepare(req, &data)

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n")))
	return err
}

// Error renders errors/<status>, or a plain text response when that page
// cannot be rendered.
func (r *Renderer) Error(w http.ResponseWriter, req *http.Request, status int) {
	name := fmt.Sprintf("errors/%d", status)
	if err := r.RenderStatus(w, req, status, name, TemplateData{Title: fmt.Sprintf("error.%d.title", status)}); err != nil {
		slog.Error("failed to render error page", "status", status, "error", err)
		http.Error(w, http.StatusText(status), status)
	}
}

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"T":        i18n.T,
		"markdown": content.Markdown,
		"subjectLabel": func(lang string, s model.Subject) string {
			return i18n.T(lang, "subject."+string(s))
		},
		"formatDate": formatDate,
		"truncate": func(s string, length int) string {
			if utf8.RuneCountInString(s) <= length {
				return s
			}
			return string([]rune(s)[:length]) + "…"
		},
		"add": func(a, b int) int {
			return a + b
		},
		"dict": dict,
		"filterQuery": func(f model.Filter) string {
			if q := f.Query(); q != "" {
				return "?" + q
			}
			return ""
		},
	}
}

// formatDate formats an API timestamp as DD/MM/YYYY. Unparseable values are
// returned unchanged.
func formatDate(s string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return s
}

// dict builds a map from key/value pairs for passing several values to a
// partial.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
