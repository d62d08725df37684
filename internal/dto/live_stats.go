package dto

import "encoding/json"

// LiveStats is one message of the detection backend's live statistics stream.
type LiveStats struct {
	TotalVehicles      int            `json:"totalVehicles"`
	TotalSeats         int            `json:"totalSeats"`
	IncomingVehicles   int            `json:"incomingVehicles"`
	OutgoingVehicles   int            `json:"outgoingVehicles"`
	CurrentSeatsInside int            `json:"currentSeatsInside"`
	DetectionAccuracy  float64        `json:"detectionAccuracy"` // percent, 0-100
	ProcessingTimeMs   int            `json:"processingTimeMs"`
	LastUpdate         string         `json:"lastUpdate"`
	VehicleTypes       map[string]int `json:"vehicleTypes,omitempty"`
}

// UnmarshalJSON also accepts "processingTime", the field name older backends send.
func (s *LiveStats) UnmarshalJSON(data []byte) error {
	type Alias LiveStats
	aux := struct {
		ProcessingTime *int `json:"processingTime"`
		*Alias
	}{Alias: (*Alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.ProcessingTime != nil && s.ProcessingTimeMs == 0 {
		s.ProcessingTimeMs = *aux.ProcessingTime
	}
	return nil
}
