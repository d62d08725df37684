package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"smartgarage/internal/chart"
	"smartgarage/internal/logger"
	"smartgarage/internal/service"
)

const (
	defaultPNGWidth = 600
	maxPNGWidth     = 2000
	maxSpecBytes    = 1 << 20
)

// ListChartsHandler handles GET /api/charts.
func ListChartsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, service.ChartNames)
	}
}

// ChartHandler handles GET /api/charts/{name}, /api/charts/{name}.svg and
// /api/charts/{name}.png.
func ChartHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		name := r.PathValue("name")
		format := "json"
		if base, ext, ok := strings.Cut(name, "."); ok {
			name, format = base, ext
		}

		scene, err := manager.GetDashboardService().Render(name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeScene(w, r, scene, format, logger)
	}
}

// RenderChartHandler handles POST /api/charts/render: a chart spec in, SVG out
// (or PNG/JSON with ?format=).
func RenderChartHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var spec chart.Spec
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSpecBytes)).Decode(&spec); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		scene, err := manager.GetDashboardService().RenderSpec(spec)
		if err != nil {
			writeError(w, err)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = "svg"
		}
		writeScene(w, r, scene, format, logger)
	}
}

func writeScene(w http.ResponseWriter, r *http.Request, scene chart.Scene, format string, logger *logger.Logger) {
	switch format {
	case "json":
		writeJSON(w, scene)

	case "svg":
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := chart.WriteSVG(w, scene); err != nil {
			logger.Error("Failed to write SVG: %v", err)
		}

	case "png":
		width := atoiDefault(r.URL.Query().Get("width"), defaultPNGWidth)
		if width > maxPNGWidth {
			width = maxPNGWidth
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := chart.WritePNG(w, scene, width); err != nil {
			logger.Error("Failed to write PNG: %v", err)
		}

	default:
		http.Error(w, "Unsupported format: "+format, http.StatusBadRequest)
	}
}

// atoiDefault parses a positive integer or returns def.
func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
