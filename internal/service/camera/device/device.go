// Package device captures frames from a local camera and draws the
// calibration overlay with OpenCV.
package device

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"smartgarage/internal/calibration"
	"smartgarage/internal/geometry"
	"smartgarage/internal/logger"
	"smartgarage/internal/service/camera"
	"smartgarage/internal/service/detection"

	"gocv.io/x/gocv"
)

// Source reads frames from a V4L/USB device (an index such as "0" or a URL)
// and JPEG-encodes them.
type Source struct {
	device string
	fps    int
	logger *logger.Logger
}

func NewSource(device string, fps int, logger *logger.Logger) *Source {
	if fps <= 0 {
		fps = 30
	}
	return &Source{device: device, fps: fps, logger: logger}
}

func (s *Source) Name() string {
	return "device:" + s.device
}

// Run captures at most fps frames per second until ctx is cancelled.
func (s *Source) Run(ctx context.Context, frames chan<- camera.Frame) error {
	capture, err := gocv.OpenVideoCapture(s.device)
	if err != nil {
		return fmt.Errorf("failed to open capture device %s: %w", s.device, err)
	}
	defer capture.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	s.logger.Info("Capturing from %s at %d fps", s.device, s.fps)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if ok := capture.Read(&mat); !ok {
			return fmt.Errorf("capture device %s closed", s.device)
		}
		if mat.Empty() {
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
		if err != nil {
			s.logger.Error("Failed to encode frame: %v", err)
			continue
		}
		data := make([]byte, len(buf.GetBytes()))
		copy(data, buf.GetBytes())
		buf.Close()

		camera.Offer(frames, camera.Frame{Camera: s.device, Data: data, CapturedAt: time.Now()})
	}
}

var (
	regionColor   = color.RGBA{R: 59, G: 130, B: 246, A: 0}
	incomingColor = color.RGBA{R: 34, G: 197, B: 94, A: 0}
	outgoingColor = color.RGBA{R: 239, G: 68, B: 68, A: 0}
	vehicleColor  = color.RGBA{R: 245, G: 158, B: 11, A: 0}
)

// Overlay draws the region, counting lines and vehicle boxes on JPEG frames.
type Overlay struct{}

// Annotate returns a re-encoded JPEG with the overlay drawn on it.
func (Overlay) Annotate(frame []byte, vehicles []detection.Vehicle, payload *calibration.Payload) ([]byte, error) {
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	w, h := float64(mat.Cols()), float64(mat.Rows())
	toPixel := func(p geometry.Point) image.Point {
		x, y := geometry.Denormalize(p, w, h)
		return image.Pt(int(x), int(y))
	}

	if payload != nil {
		region := make([]image.Point, 0, len(payload.RegionPoints))
		for _, p := range payload.RegionPoints {
			region = append(region, toPixel(p))
		}
		pv := gocv.NewPointsVectorFromPoints([][]image.Point{region})
		gocv.Polylines(&mat, pv, true, regionColor, 2)
		pv.Close()

		for _, line := range payload.CountingLines {
			if !line.Complete() {
				continue
			}
			c := incomingColor
			if line.Direction == calibration.Outgoing {
				c = outgoingColor
			}
			a, b := toPixel(line.Points[0]), toPixel(line.Points[1])
			gocv.Line(&mat, a, b, c, 3)
			gocv.PutText(&mat, line.Direction.String(), toPixel(geometry.Midpoint(line.Points[0], line.Points[1])),
				gocv.FontHersheySimplex, 0.5, c, 1)
		}
	}

	for _, v := range vehicles {
		rect := image.Rect(v.BBox[0], v.BBox[1], v.BBox[0]+v.BBox[2], v.BBox[1]+v.BBox[3])
		if err := gocv.Rectangle(&mat, rect, vehicleColor, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %v", err)
		}
		label := fmt.Sprintf("%s (%.2f)", v.Type, v.Confidence)
		if err := gocv.PutText(&mat, label, image.Pt(v.BBox[0], v.BBox[1]-5), gocv.FontHersheySimplex, 0.5, vehicleColor, 1); err != nil {
			return nil, fmt.Errorf("failed to draw text: %v", err)
		}
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
