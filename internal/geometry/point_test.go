package geometry

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalize_ValidRect(t *testing.T) {
	tests := []struct {
		name     string
		x, y     float64
		rect     Rect
		expected Point
	}{
		{"top-left corner", 10, 20, Rect{Left: 10, Top: 20, Width: 200, Height: 100}, Point{0, 0}},
		{"bottom-right corner", 210, 120, Rect{Left: 10, Top: 20, Width: 200, Height: 100}, Point{100, 100}},
		{"centre", 110, 70, Rect{Left: 10, Top: 20, Width: 200, Height: 100}, Point{50, 50}},
		{"quarter", 320, 180, Rect{Left: 0, Top: 0, Width: 1280, Height: 720}, Point{25, 25}},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.x, tt.y, tt.rect)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !almostEqual(got.X, tt.expected.X) || !almostEqual(got.Y, tt.expected.Y) {
			t.Errorf("%s: Normalize(%v, %v) = %+v, expected %+v", tt.name, tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestNormalize_OutsideRectIsNotClamped(t *testing.T) {
	got, err := Normalize(-50, 250, Rect{Width: 100, Height: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got.X, -50) || !almostEqual(got.Y, 125) {
		t.Errorf("expected (-50, 125), got %+v", got)
	}
	if got.InBounds() {
		t.Error("point outside the container should not be in bounds")
	}
}

func TestNormalize_InvalidRect(t *testing.T) {
	rects := []Rect{
		{Width: 0, Height: 100},
		{Width: 100, Height: 0},
		{Width: -10, Height: 100},
		{Width: 100, Height: -1},
	}

	for _, rect := range rects {
		if _, err := Normalize(1, 1, rect); !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("Normalize with rect %+v: expected ErrInvalidGeometry, got %v", rect, err)
		}
	}
}

func TestDenormalize(t *testing.T) {
	x, y := Denormalize(Point{X: 25, Y: 50}, 1280, 720)
	if !almostEqual(x, 320) || !almostEqual(y, 360) {
		t.Errorf("expected (320, 360), got (%v, %v)", x, y)
	}
}

func TestMidpoint(t *testing.T) {
	got := Midpoint(Point{10, 20}, Point{30, 60})
	if got != (Point{20, 40}) {
		t.Errorf("expected {20 40}, got %+v", got)
	}
}
