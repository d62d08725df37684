package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"smartgarage/internal/dto"
	"smartgarage/internal/logger"
	"smartgarage/internal/service"
)

// CalibrationStateHandler handles GET /api/calibration.
func CalibrationStateHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, dto.NewCalibrationState(manager.GetCalibrationService().State()))
	}
}

// CalibrationClickHandler handles POST /api/calibration/click with a
// pointer position and the bounding box of the video element.
func CalibrationClickHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var req dto.ClickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		session, err := manager.GetCalibrationService().Click(req.X, req.Y, req.Rect)
		if err != nil {
			logger.Warning("Calibration click rejected: %v", err)
			writeError(w, err)
			return
		}
		writeJSON(w, dto.NewCalibrationState(session))
	}
}

// CalibrationResetHandler handles POST /api/calibration/reset.
func CalibrationResetHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		writeJSON(w, dto.NewCalibrationState(manager.GetCalibrationService().Reset()))
	}
}

// CalibrationSaveHandler handles POST /api/calibration/save.
func CalibrationSaveHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		record, err := manager.GetCalibrationService().Save(r.Context())
		if err != nil {
			if errors.Is(err, service.ErrBackendUnavailable) && record != nil {
				// stored, the operator can retry applying it by starting processing
				writeJSONWithStatus(w, struct {
					Error       string      `json:"error"`
					Calibration interface{} `json:"calibration"`
				}{err.Error(), record}, http.StatusBadGateway)
				return
			}
			logger.Error("Failed to save calibration: %v", err)
			writeError(w, err)
			return
		}
		writeJSONWithStatus(w, record, http.StatusCreated)
	}
}

// LatestCalibrationHandler handles GET /api/calibration/latest.
func LatestCalibrationHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		latest, err := manager.GetCalibrationService().Latest()
		if err != nil {
			logger.Error("Error loading calibration: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if latest == nil {
			writeJSONWithStatus(w, errorResponse{Error: "no calibration saved"}, http.StatusNotFound)
			return
		}
		writeJSON(w, latest)
	}
}
