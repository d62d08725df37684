// Package chart turns numeric series into drawable line, bar and pie geometry.
//
// Geometry is computed from plain numbers only; WriteSVG and WritePNG are the
// drawing layer and consume nothing but a Scene.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned by Render for a chart kind it cannot draw.
	ErrUnknownKind = errors.New("unknown chart kind")
	// ErrTooManyItems is returned for a series longer than MaxItems.
	ErrTooManyItems = errors.New("too many chart items")
)

// MaxItems bounds the series length Render accepts.
const MaxItems = 200

// DefaultAccent is used for line and bar charts without an accent color.
const DefaultAccent = "#3b82f6"

// Palette colors pie slices by index; series longer than the palette cycle through it.
var Palette = []string{
	"#3b82f6", // small car
	"#22c55e", // suv
	"#f59e0b", // minivan
	"#ef4444", // full bus
}

// Kind selects the chart algorithm.
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
	KindPie  Kind = "pie"
)

// Item is one labelled value of a series.
type Item struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// UnmarshalJSON accepts "name" as an alias of "label", the dashboard's field name.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label *string `json:"label"`
		Name  *string `json:"name"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.Value = raw.Value
	i.Label = ""
	switch {
	case raw.Label != nil:
		i.Label = *raw.Label
	case raw.Name != nil:
		i.Label = *raw.Name
	}
	return nil
}

// Series is displayed in insertion order.
type Series []Item

// values returns the series values with negatives clamped to zero.
func (s Series) values() []float64 {
	out := make([]float64, len(s))
	for i, item := range s {
		if item.Value > 0 {
			out[i] = item.Value
		}
	}
	return out
}

func maxOf(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

func sumOf(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Spec is the chart input contract shared by live and mock data sources.
type Spec struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Series      Series `json:"series"`
	AccentColor string `json:"accentColor,omitempty"`
}

func (s Spec) accent() string {
	if s.AccentColor == "" {
		return DefaultAccent
	}
	return s.AccentColor
}

// Validate rejects specs Render cannot dispatch or that are too long to draw.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindLine, KindBar, KindPie:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
	if len(s.Series) > MaxItems {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(s.Series), MaxItems)
	}
	return nil
}
