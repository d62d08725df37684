package dto

import (
	"smartgarage/internal/calibration"
	"smartgarage/internal/geometry"
)

// ProcessingRequest is the body of the backend's /start endpoint.
type ProcessingRequest struct {
	ROIPoints     []geometry.Point           `json:"roi_points"`
	CountingLines []calibration.CountingLine `json:"counting_lines"`
}

// NewProcessingRequest converts a calibration payload; a nil payload yields empty lists.
func NewProcessingRequest(p *calibration.Payload) ProcessingRequest {
	req := ProcessingRequest{
		ROIPoints:     []geometry.Point{},
		CountingLines: []calibration.CountingLine{},
	}
	if p == nil {
		return req
	}
	req.ROIPoints = append(req.ROIPoints, p.RegionPoints[:]...)
	req.CountingLines = append(req.CountingLines, p.CountingLines[:]...)
	return req
}
