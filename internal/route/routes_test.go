package route

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartgarage/internal/config"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/repository/sqlite"
	"smartgarage/internal/service"
)

func newTestRouter(t *testing.T, metricsEnabled bool) http.Handler {
	t.Helper()

	dir := t.TempDir()
	static := filepath.Join(dir, "static")
	if err := os.MkdirAll(static, 0755); err != nil {
		t.Fatal(err)
	}
	for name, body := range map[string]string{
		"login.html": "<h1>login</h1>",
		"index.html": "<h1>dashboard</h1>",
		"setup.html": "<h1>setup</h1>",
	} {
		if err := os.WriteFile(filepath.Join(static, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Password:               "secret",
		StaticDirectory:        static,
		BackendURL:             "http://127.0.0.1:1",
		BackendWebsocketURL:    "ws://127.0.0.1:1",
		TelemetryBufferLimit:   10,
		TelemetryFlushInterval: 60,
		MetricsEnabled:         metricsEnabled,
	}
	log := logger.NewDiscard()
	manager := service.NewManager(cfg, log, metrics.New(),
		sqlite.NewCalibrationRepository(db), sqlite.NewTelemetryRepository(db), nil, nil)

	return SetupRoutes(manager, cfg, log)
}

func get(h http.Handler, path string, authenticated bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authenticated {
		req.AddCookie(&http.Cookie{Name: "authenticated", Value: "true"})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetupRoutes_Pages(t *testing.T) {
	h := newTestRouter(t, true)

	tests := []struct {
		name          string
		path          string
		authenticated bool
		status        int
		body          string
	}{
		{"login is public", "/login", false, http.StatusOK, "login"},
		{"index needs auth", "/", false, http.StatusSeeOther, ""},
		{"index", "/", true, http.StatusOK, "dashboard"},
		{"setup page", "/setup", true, http.StatusOK, "setup"},
		{"missing page", "/nope", true, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(h, tt.path, tt.authenticated)
			if rec.Code != tt.status {
				t.Fatalf("GET %s: expected %d, got %d", tt.path, tt.status, rec.Code)
			}
			if tt.body != "" && !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("GET %s: body %q missing %q", tt.path, rec.Body.String(), tt.body)
			}
		})
	}
}

func TestSetupRoutes_API(t *testing.T) {
	h := newTestRouter(t, true)

	if rec := get(h, "/api/charts", false); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without cookie, got %d", rec.Code)
	}

	rec := get(h, "/api/charts/traffic.svg", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Body.String(), "<svg") {
		t.Errorf("expected an SVG document, got %q", rec.Body.String())
	}

	rec = get(h, "/metrics", false)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "garage_") {
		t.Errorf("expected metrics exposition, got %d", rec.Code)
	}
}

func TestSetupRoutes_MetricsDisabled(t *testing.T) {
	h := newTestRouter(t, false)

	// falls through to the HTML handler, which has no metrics page
	if rec := get(h, "/metrics", false); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when metrics are disabled, got %d", rec.Code)
	}
}
