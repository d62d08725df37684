package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := AuthMiddleware(ok)

	tests := []struct {
		name     string
		path     string
		cookie   bool
		expected int
	}{
		{"login page is public", "/login", false, http.StatusTeapot},
		{"metrics are public", "/metrics", false, http.StatusTeapot},
		{"assets are public", "/css/site.css", false, http.StatusTeapot},
		{"static files are public", "/static/js/setup.js", false, http.StatusTeapot},
		{"api without cookie", "/api/calibration", false, http.StatusUnauthorized},
		{"page without cookie", "/setup", false, http.StatusSeeOther},
		{"api with cookie", "/api/calibration", true, http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: "authenticated", Value: "true"})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.expected {
				t.Errorf("%s: expected %d, got %d", tt.path, tt.expected, rec.Code)
			}
		})
	}
}
