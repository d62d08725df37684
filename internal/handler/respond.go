package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"smartgarage/internal/calibration"
	"smartgarage/internal/chart"
	"smartgarage/internal/geometry"
	"smartgarage/internal/service"
	"smartgarage/internal/service/backend"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":"%s"}`, err.Error())
	}
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	writeJSONWithStatus(w, errorResponse{Error: err.Error()}, statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, geometry.ErrInvalidGeometry), errors.Is(err, service.ErrOutOfFrame):
		return http.StatusBadRequest
	case errors.Is(err, calibration.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, chart.ErrUnknownKind), errors.Is(err, chart.ErrTooManyItems),
		errors.Is(err, calibration.ErrInvalidPayload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUnknownChart):
		return http.StatusNotFound
	case errors.Is(err, service.ErrBackendUnavailable), errors.Is(err, backend.ErrRejected):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
