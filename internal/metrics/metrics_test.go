package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.CalibrationClicks.Add(3)
	m.SetConnected(true)
	m.UpdateProcessLatency(2500 * time.Microsecond)
	m.RegisterAccuracy(func() float64 { return 97.5 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"garage_calibration_clicks_total 3",
		"garage_telemetry_connected 1",
		"garage_process_latency_ms 2.5",
		"garage_detection_accuracy_percent 97.5",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}

func TestSetConnected_Toggles(t *testing.T) {
	m := New()
	m.SetConnected(true)
	m.SetConnected(false)
	if m.TelemetryConnected.Load() != 0 {
		t.Error("expected disconnected gauge")
	}
}
