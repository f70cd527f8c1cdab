package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/about", "/about"},
		{"/dashboard?level=CP", "/dashboard?level=CP"},
		{"", RouteRoot},
		{"about", RouteRoot},
		{"//evil.example", RouteRoot},
		{`/\evil.example`, RouteRoot},
		{"https://evil.example/", RouteRoot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeNext(tt.next), tt.next)
	}
}

func TestSetLanguage(t *testing.T) {
	e := newTestEnv(t)

	rec := e.post(RouteLanguage, url.Values{"lang": {"en"}, "next": {"/about"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/about", rec.Header().Get("Location"))

	rec = e.get(RouteRoot)
	assert.Contains(t, rec.Body.String(), `<html lang="en">`)

	// Unsupported languages are ignored.
	e.post(RouteLanguage, url.Values{"lang": {"de"}, "next": {"/"}})
	rec = e.get(RouteRoot)
	assert.Contains(t, rec.Body.String(), `<html lang="en">`)
}
