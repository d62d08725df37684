// Package geometry holds the percentage-space coordinate types shared by the
// calibration workflow and the camera overlay.
package geometry

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is returned when a bounding rectangle has no area.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a location expressed as a percentage of frame width/height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the on-screen bounding box of the element that received a pointer event.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Normalize converts a pointer position into percentage space relative to rect.
// The result is not clamped; events outside rect yield values outside [0,100].
func Normalize(pointerX, pointerY float64, rect Rect) (Point, error) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return Point{}, fmt.Errorf("%w: container is %gx%g", ErrInvalidGeometry, rect.Width, rect.Height)
	}

	return Point{
		X: (pointerX - rect.Left) / rect.Width * 100,
		Y: (pointerY - rect.Top) / rect.Height * 100,
	}, nil
}

// Denormalize maps p back to pixel coordinates of a width x height frame.
func Denormalize(p Point, width, height float64) (float64, float64) {
	return p.X / 100 * width, p.Y / 100 * height
}

// InBounds reports whether both coordinates lie in [0,100].
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X <= 100 && p.Y >= 0 && p.Y <= 100
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
