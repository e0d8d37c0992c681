package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := AuthMiddleware("secret", ok)

	tests := []struct {
		name     string
		target   string
		header   string
		expected int
	}{
		{"no token", "/api/accidents", "", http.StatusUnauthorized},
		{"bearer", "/api/accidents", "Bearer secret", http.StatusTeapot},
		{"wrong bearer", "/api/accidents", "Bearer nope", http.StatusUnauthorized},
		{"basic scheme ignored", "/api/accidents", "Basic secret", http.StatusUnauthorized},
		{"query token", "/api/alerts?token=secret", "", http.StatusTeapot},
		{"empty query token", "/api/alerts?token=", "", http.StatusUnauthorized},
		{"health is public", "/healthz", "", http.StatusTeapot},
		{"metrics is public", "/metrics", "", http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	AuthMiddleware("", ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accidents", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
