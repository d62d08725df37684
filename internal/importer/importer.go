// Package importer reads calibrations exported by other tools: payload JSON
// documents and click logs.
package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"smartgarage/internal/calibration"
	"smartgarage/internal/geometry"
)

// clickLog is the JSON form of a click log.
type clickLog struct {
	Points []geometry.Point `json:"points"`
}

// Parse decodes a calibration file by extension. ".json" files hold either a
// payload or {"points": [...]}; ".log", ".txt" and ".csv" files hold one
// "x,y" percentage pair per line (blank lines and "#" comments ignored).
func Parse(name string, data []byte) (calibration.Payload, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return parseJSON(data)
	case ".log", ".txt", ".csv":
		points, err := parseClicks(data)
		if err != nil {
			return calibration.Payload{}, err
		}
		return fromClicks(points)
	}
	return calibration.Payload{}, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
}

func parseJSON(data []byte) (calibration.Payload, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return calibration.Payload{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if _, ok := probe["points"]; ok {
		var log clickLog
		if err := json.Unmarshal(data, &log); err != nil {
			return calibration.Payload{}, fmt.Errorf("invalid click log: %w", err)
		}
		return fromClicks(log.Points)
	}

	var p calibration.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return calibration.Payload{}, fmt.Errorf("invalid payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return calibration.Payload{}, err
	}
	return p, nil
}

func parseClicks(data []byte) ([]geometry.Point, error) {
	var points []geometry.Point
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		xs, ys, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"x,y\"", line)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("line %d: invalid coordinates %q", line, text)
		}
		points = append(points, geometry.Point{X: x, Y: y})
	}
	return points, scanner.Err()
}

// fromClicks replays clicks through the calibration workflow. Clicks beyond
// the eighth are ignored, as the interactive screen does.
func fromClicks(points []geometry.Point) (calibration.Payload, error) {
	session := calibration.Replay(points)
	p, err := calibration.ToPayload(session)
	if err != nil {
		return calibration.Payload{}, fmt.Errorf("%d clicks leave the calibration at %s: %w", len(points), session.Stage(), err)
	}
	if err := p.Validate(); err != nil {
		return calibration.Payload{}, err
	}
	return p, nil
}
