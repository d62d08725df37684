package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"smartgarage/internal/chart"
	"smartgarage/internal/dto"
	"smartgarage/internal/logger"
	"smartgarage/internal/metrics"
	"smartgarage/internal/model"
	"smartgarage/internal/repository"
	"smartgarage/internal/service/detection"
)

// ErrUnknownChart is returned for a chart name the dashboard does not know.
var ErrUnknownChart = errors.New("unknown chart")

const (
	ChartSeats        = "seats"
	ChartVehicleTypes = "vehicle-types"
	ChartTraffic      = "traffic"
)

// ChartNames lists the dashboard charts in display order.
var ChartNames = []string{ChartSeats, ChartVehicleTypes, ChartTraffic}

var vehicleTypeLabels = map[detection.VehicleType]string{
	detection.SmallCar: "Small cars",
	detection.SUV:      "SUV",
	detection.Minivan:  "Minivans",
	detection.FullBus:  "Buses",
}

// Sample data shown until enough telemetry history exists.
var (
	sampleSeats = chart.Series{
		{Label: "6", Value: 80}, {Label: "8", Value: 95}, {Label: "10", Value: 120},
		{Label: "12", Value: 110}, {Label: "14", Value: 134}, {Label: "16", Value: 145},
	}
	sampleVehicleTypes = map[detection.VehicleType]int{
		detection.SmallCar: 18,
		detection.SUV:      8,
		detection.Minivan:  3,
		detection.FullBus:  1,
	}
	sampleTraffic = chart.Series{
		{Label: "6", Value: 5}, {Label: "8", Value: 12}, {Label: "10", Value: 8},
		{Label: "12", Value: 15}, {Label: "14", Value: 20}, {Label: "16", Value: 18},
		{Label: "18", Value: 25}, {Label: "20", Value: 22}, {Label: "22", Value: 28},
		{Label: "24", Value: 15},
	}
)

// DashboardService builds the dashboard's chart specs from telemetry history.
type DashboardService struct {
	telemetryRepo repository.TelemetryRepository
	metrics       *metrics.Metrics
	logger        *logger.Logger
	window        time.Duration
	now           func() time.Time
}

func NewDashboardService(telemetryRepo repository.TelemetryRepository, metrics *metrics.Metrics, logger *logger.Logger) *DashboardService {
	return &DashboardService{
		telemetryRepo: telemetryRepo,
		metrics:       metrics,
		logger:        logger,
		window:        24 * time.Hour,
		now:           time.Now,
	}
}

// Chart returns the spec for a named chart.
func (s *DashboardService) Chart(name string) (chart.Spec, error) {
	switch name {
	case ChartSeats:
		return chart.Spec{Kind: chart.KindLine, Title: "Seat availability", Series: s.seatSeries()}, nil
	case ChartVehicleTypes:
		return chart.Spec{Kind: chart.KindPie, Title: "Vehicle types", Series: s.vehicleTypeSeries()}, nil
	case ChartTraffic:
		return chart.Spec{Kind: chart.KindBar, Title: "Entries per hour", Series: s.trafficSeries(), AccentColor: "#22c55e"}, nil
	}
	return chart.Spec{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
}

// Render computes the drawable scene of a named chart.
func (s *DashboardService) Render(name string) (chart.Scene, error) {
	spec, err := s.Chart(name)
	if err != nil {
		return chart.Scene{}, err
	}
	return s.RenderSpec(spec)
}

// RenderSpec computes the scene of an arbitrary chart spec.
func (s *DashboardService) RenderSpec(spec chart.Spec) (chart.Scene, error) {
	scene, err := chart.Render(spec)
	if err != nil {
		return chart.Scene{}, err
	}
	if s.metrics != nil {
		s.metrics.ChartsRendered.Add(1)
	}
	return scene, nil
}

type hourBucket struct {
	label string
	last  dto.LiveStats
	prev  *dto.LiveStats
}

// hourly groups the window's history by hour, oldest first.
func (s *DashboardService) hourly() []hourBucket {
	if s.telemetryRepo == nil {
		return nil
	}
	history, err := s.telemetryRepo.GetAll(&dto.TelemetryFilter{Since: s.now().Add(-s.window)})
	if err != nil {
		s.logger.Error("Failed to load telemetry history: %v", err)
		return nil
	}

	var buckets []hourBucket
	var lastHour time.Time
	for i := range history {
		snap := history[i]
		hour := snap.ReceivedAt.Local().Truncate(time.Hour)
		if len(buckets) == 0 || !hour.Equal(lastHour) {
			b := hourBucket{label: strconv.Itoa(hour.Hour())}
			if len(buckets) > 0 {
				prev := buckets[len(buckets)-1].last
				b.prev = &prev
			}
			buckets = append(buckets, b)
			lastHour = hour
		}
		buckets[len(buckets)-1].last = snap.Stats
	}
	return buckets
}

func (s *DashboardService) seatSeries() chart.Series {
	buckets := s.hourly()
	if len(buckets) < 2 {
		return sampleSeats
	}
	series := make(chart.Series, 0, len(buckets))
	for _, b := range buckets {
		series = append(series, chart.Item{Label: b.label, Value: float64(b.last.TotalSeats - b.last.CurrentSeatsInside)})
	}
	return series
}

func (s *DashboardService) trafficSeries() chart.Series {
	buckets := s.hourly()
	if len(buckets) < 2 {
		return sampleTraffic
	}
	series := make(chart.Series, 0, len(buckets))
	for _, b := range buckets {
		entered := b.last.IncomingVehicles
		if b.prev != nil && b.prev.IncomingVehicles <= entered {
			entered -= b.prev.IncomingVehicles
		}
		series = append(series, chart.Item{Label: b.label, Value: float64(entered)})
	}
	return series
}

func (s *DashboardService) vehicleTypeSeries() chart.Series {
	counts := sampleVehicleTypes
	if s.telemetryRepo != nil {
		latest, err := s.telemetryRepo.Latest()
		if err != nil {
			s.logger.Error("Failed to load latest telemetry: %v", err)
		} else if latest != nil && len(latest.Stats.VehicleTypes) > 0 {
			counts = make(map[detection.VehicleType]int, len(latest.Stats.VehicleTypes))
			for k, v := range latest.Stats.VehicleTypes {
				counts[detection.VehicleType(k)] = v
			}
		}
	}

	series := make(chart.Series, 0, len(detection.VehicleTypes))
	for _, t := range detection.VehicleTypes {
		series = append(series, chart.Item{Label: vehicleTypeLabels[t], Value: float64(counts[t])})
	}
	return series
}

// Snapshot is what the live statistics endpoint returns.
type Snapshot struct {
	Connected bool           `json:"connected"`
	Stats     *dto.LiveStats `json:"stats"`
	FPS       int            `json:"fps"`
	Running   bool           `json:"running"`
}

// fromHistory returns the newest stored snapshot for use before the stream delivers one.
func fromHistory(repo repository.TelemetryRepository) *model.TelemetrySnapshot {
	if repo == nil {
		return nil
	}
	latest, err := repo.Latest()
	if err != nil {
		return nil
	}
	return latest
}
