package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// LineWidth and LineHeight are the logical canvas of a line chart.
	LineWidth  = 200.0
	LineHeight = 100.0
	// lineHeadroom keeps the tallest point below the top edge.
	lineHeadroom = 0.8
	// MarkerRadius is the radius of the dot drawn at every line point.
	MarkerRadius = 3.0

	// PieSize is the logical canvas of a pie chart; the circle sits in its centre.
	PieSize   = 120.0
	PieCenter = 60.0
	PieRadius = 50.0
)

// Vec is a position on a chart canvas.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bar is one row of a bar chart.
type Bar struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Fraction float64 `json:"fraction"`
	Color    string  `json:"color"`
}

// BarGeometry sizes every bar relative to the largest value.
func BarGeometry(series Series, color string) []Bar {
	values := series.values()
	maxValue := maxOf(values)

	bars := make([]Bar, len(series))
	for i, item := range series {
		fraction := 0.0
		if maxValue > 0 {
			fraction = values[i] / maxValue
		}
		bars[i] = Bar{Label: item.Label, Value: item.Value, Fraction: fraction, Color: color}
	}
	return bars
}

// Marker is the dot drawn at a line chart point.
type Marker struct {
	Center Vec     `json:"center"`
	Radius float64 `json:"radius"`
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
}

// LineScene is a polyline over the LineWidth x LineHeight canvas.
type LineScene struct {
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Points  []Vec    `json:"points"`
	Markers []Marker `json:"markers"`
	Color   string   `json:"color"`
}

// LineGeometry places points evenly left to right and scales values so the
// maximum reaches 80% of the canvas height.
func LineGeometry(series Series, color string) LineScene {
	values := series.values()
	maxValue := maxOf(values)
	n := len(series)

	scene := LineScene{
		Width:   LineWidth,
		Height:  LineHeight,
		Points:  make([]Vec, n),
		Markers: make([]Marker, n),
		Color:   color,
	}
	for i, item := range series {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1) * LineWidth
		}
		y := LineHeight
		if maxValue > 0 {
			y = LineHeight - values[i]/maxValue*LineHeight*lineHeadroom
		}
		scene.Points[i] = Vec{X: x, Y: y}
		scene.Markers[i] = Marker{Center: scene.Points[i], Radius: MarkerRadius, Label: item.Label, Value: item.Value}
	}
	return scene
}

// Slice is one wedge of a pie chart. Angles are in degrees, 0 at 12 o'clock,
// increasing clockwise.
type Slice struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Fraction   float64 `json:"fraction"`
	StartAngle float64 `json:"startAngle"`
	EndAngle   float64 `json:"endAngle"`
	Start      Vec     `json:"start"`
	End        Vec     `json:"end"`
	LargeArc   bool    `json:"largeArc"`
	Color      string  `json:"color"`
	Path       string  `json:"path"`
}

// PieGeometry walks the series in order and gives every item an angular span
// proportional to its share of the total. A zero total yields no slices.
func PieGeometry(series Series) []Slice {
	values := series.values()
	total := sumOf(values)
	if total == 0 {
		return nil
	}

	slices := make([]Slice, len(series))
	cumulative := 0.0
	for i, item := range series {
		start := cumulative / total * 360
		end := (cumulative + values[i]) / total * 360
		fraction := values[i] / total
		cumulative += values[i]

		s := Slice{
			Label:      item.Label,
			Value:      item.Value,
			Fraction:   fraction,
			StartAngle: start,
			EndAngle:   end,
			Start:      pointOnCircle(start),
			End:        pointOnCircle(end),
			LargeArc:   fraction > 0.5,
			Color:      Palette[i%len(Palette)],
		}
		s.Path = wedgePath(s)
		slices[i] = s
	}
	return slices
}

func pointOnCircle(angle float64) Vec {
	rad := (angle - 90) * math.Pi / 180
	return Vec{
		X: PieCenter + PieRadius*math.Cos(rad),
		Y: PieCenter + PieRadius*math.Sin(rad),
	}
}

// wedgePath builds the SVG path of a slice. A slice covering the whole circle
// has coincident endpoints, so it is drawn as two half arcs.
func wedgePath(s Slice) string {
	var b strings.Builder
	if s.Fraction >= 1 {
		mid := pointOnCircle(s.StartAngle + 180)
		fmt.Fprintf(&b, "M %s %s A %s %s 0 1 1 %s %s A %s %s 0 1 1 %s %s Z",
			num(s.Start.X), num(s.Start.Y),
			num(PieRadius), num(PieRadius), num(mid.X), num(mid.Y),
			num(PieRadius), num(PieRadius), num(s.Start.X), num(s.Start.Y))
		return b.String()
	}

	flag := 0
	if s.LargeArc {
		flag = 1
	}
	fmt.Fprintf(&b, "M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
		num(PieCenter), num(PieCenter),
		num(s.Start.X), num(s.Start.Y),
		num(PieRadius), num(PieRadius), flag,
		num(s.End.X), num(s.End.Y))
	return b.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
