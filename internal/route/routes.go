package route

import (
	"net/http"
	"os"
	"path/filepath"

	"smartgarage/internal/config"
	"smartgarage/internal/handler"
	"smartgarage/internal/logger"
	"smartgarage/internal/middleware"
	"smartgarage/internal/service"
)

// dynamicHTMLHandler serves /path as {dir}/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(dir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// Calibration
	mux.HandleFunc("/api/calibration", handler.CalibrationStateHandler(manager))
	mux.HandleFunc("/api/calibration/click", handler.CalibrationClickHandler(manager, logger))
	mux.HandleFunc("/api/calibration/reset", handler.CalibrationResetHandler(manager))
	mux.HandleFunc("/api/calibration/save", handler.CalibrationSaveHandler(manager, logger))
	mux.HandleFunc("/api/calibration/latest", handler.LatestCalibrationHandler(manager, logger))

	// Charts
	mux.HandleFunc("/api/charts", handler.ListChartsHandler())
	mux.HandleFunc("/api/charts/render", handler.RenderChartHandler(manager, logger))
	mux.HandleFunc("/api/charts/{name}", handler.ChartHandler(manager, logger))

	// Live data and backend control
	mux.HandleFunc("/api/live", handler.LiveWebsocketHandler(manager, logger))
	mux.HandleFunc("/api/live/stats", handler.LiveStatsHandler(manager))
	mux.HandleFunc("/api/backend/start", handler.StartProcessingHandler(manager, logger))
	mux.HandleFunc("/api/backend/stop", handler.StopProcessingHandler(manager, logger))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", manager.GetMetrics().Handler())
	}

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /setup -> static/setup.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDirectory))

	// Apply middleware
	return middleware.AuthMiddleware(mux)
}
