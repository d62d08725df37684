// TelemetryFilter narrows the stored telemetry history.
package dto

import "time"

type TelemetryFilter struct {
	Since time.Time
	Until time.Time
	Limit int
}
