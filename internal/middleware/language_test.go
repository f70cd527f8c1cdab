package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLanguage(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"default", "/", "", "fr"},
		{"accept-language english", "/", "en-GB,en;q=0.9", "en"},
		{"accept-language unsupported", "/", "de-DE", "fr"},
		{"query wins", "/?lang=en", "fr-FR", "en"},
		{"query upper case", "/?lang=EN", "", "en"},
		{"unknown query ignored", "/?lang=xx", "", "fr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newSessionClient(t)
			var got string
			handler := Language(c.sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetLanguage(r)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			c.do(handler, req)

			if got != tt.want {
				t.Errorf("language = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLanguage_RememberedInSession(t *testing.T) {
	c := newSessionClient(t)
	var got string
	handler := Language(c.sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLanguage(r)
	}))

	c.get(handler, "/?lang=en")

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	req.Header.Set("Accept-Language", "fr-FR")
	c.do(handler, req)

	if got != "en" {
		t.Errorf("language = %q, want the remembered en", got)
	}
}

func TestGetLanguage_Default(t *testing.T) {
	if got := GetLanguage(httptest.NewRequest(http.MethodGet, "/", nil)); got != "fr" {
		t.Errorf("GetLanguage = %q, want fr", got)
	}
}
