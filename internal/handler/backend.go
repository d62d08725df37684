package handler

import (
	"net/http"

	"smartgarage/internal/logger"
	"smartgarage/internal/service"
)

type processingResponse struct {
	Status string `json:"status"`
}

// StartProcessingHandler handles POST /api/backend/start.
func StartProcessingHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		if err := manager.StartProcessing(r.Context()); err != nil {
			logger.Error("Failed to start processing: %v", err)
			writeJSONWithStatus(w, errorResponse{Error: err.Error()}, http.StatusBadGateway)
			return
		}
		logger.Info("Processing started")
		writeJSON(w, processingResponse{Status: "started"})
	}
}

// StopProcessingHandler handles POST /api/backend/stop.
func StopProcessingHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		if err := manager.StopProcessing(r.Context()); err != nil {
			logger.Error("Failed to stop processing: %v", err)
			writeJSONWithStatus(w, errorResponse{Error: err.Error()}, http.StatusBadGateway)
			return
		}
		logger.Info("Processing stopped")
		writeJSON(w, processingResponse{Status: "stopped"})
	}
}
