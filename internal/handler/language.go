package handler

import (
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ecole-go/internal/i18n"
	"github.com/olegiv/ecole-go/internal/session"
)

// LanguageHandler stores the UI language preference.
type LanguageHandler struct {
	sessionManager *scs.SessionManager
}

// NewLanguageHandler creates a new LanguageHandler.
func NewLanguageHandler(sm *scs.SessionManager) *LanguageHandler {
	return &LanguageHandler{sessionManager: sm}
}

// SetLanguage handles POST /language and returns to the page named by
// "next". Unsupported languages are ignored.
func (h *LanguageHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, RouteRoot) {
		return
	}

	if lang := strings.ToLower(r.PostFormValue("lang")); i18n.IsSupported(lang) {
		session.SetLanguage(r.Context(), h.sessionManager, lang)
	}
	redirect(w, r, safeNext(r.PostFormValue("next")))
}

// safeNext returns next if it is a local path, else the root.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return RouteRoot
	}
	return next
}
