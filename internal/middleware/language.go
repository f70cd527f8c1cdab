package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ecole-go/internal/i18n"
	"github.com/olegiv/ecole-go/internal/session"
)

// Language resolves the UI language of the request and stores it in the
// context. Priority order:
//  1. Query parameter ?lang=XX (explicit switch, remembered in the session)
//  2. Language remembered in the session
//  3. Accept-Language header
//  4. Default language
//
// It must run inside the session middleware.
func Language(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			lang := ""
			if q := r.URL.Query().Get("lang"); q != "" && i18n.IsSupported(q) {
				lang = strings.ToLower(q)
				session.SetLanguage(ctx, sm, lang)
			}
			if lang == "" {
				if stored := session.Language(ctx, sm); i18n.IsSupported(stored) {
					lang = stored
				}
			}
			if lang == "" {
				if accept := r.Header.Get("Accept-Language"); accept != "" {
					lang = i18n.MatchLanguage(accept)
				}
			}
			if lang == "" {
				lang = i18n.DefaultLanguage
			}

			next.ServeHTTP(w, r.WithContext(WithLanguage(ctx, lang)))
		})
	}
}

// WithLanguage returns a copy of ctx carrying lang.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ContextKeyLanguage, lang)
}

// GetLanguage returns the UI language of the request, or the default.
func GetLanguage(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLanguage).(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}
