package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/vector"
)

var defaultAccentRGBA = color.RGBA{0x3b, 0x82, 0xf6, 0xff}

// maxRasterPixels bounds the image size; tall bar charts are drawn narrower.
const maxRasterPixels = 1 << 23

// arcStep is the angular resolution, in degrees, used to flatten pie arcs.
const arcStep = 2.0

// canvas scales a logical chart canvas onto a raster image.
type canvas struct {
	img   *image.RGBA
	z     *vector.Rasterizer
	scale float32
}

func newCanvas(logicalW, logicalH float64, width int) *canvas {
	scale := float64(width) / logicalW
	if logicalW*logicalH*scale*scale > maxRasterPixels {
		scale = math.Sqrt(maxRasterPixels / (logicalW * logicalH))
		width = int(logicalW * scale)
		scale = float64(width) / logicalW
	}
	height := int(math.Ceil(logicalH * scale))
	if height < 1 {
		height = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return &canvas{
		img:   img,
		z:     vector.NewRasterizer(width, height),
		scale: float32(scale),
	}
}

// fill rasterizes one closed polygon given in logical coordinates.
func (c *canvas) fill(points []Vec, col color.Color) {
	if len(points) < 3 {
		return
	}
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
	c.z.MoveTo(float32(points[0].X)*c.scale, float32(points[0].Y)*c.scale)
	for _, p := range points[1:] {
		c.z.LineTo(float32(p.X)*c.scale, float32(p.Y)*c.scale)
	}
	c.z.ClosePath()
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func (c *canvas) rect(x, y, w, h float64, col color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	c.fill([]Vec{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, col)
}

// stroke draws a segment as a quad of the given logical width.
func (c *canvas) stroke(a, b Vec, width float64, col color.Color) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.fill([]Vec{{a.X + nx, a.Y + ny}, {b.X + nx, b.Y + ny}, {b.X - nx, b.Y - ny}, {a.X - nx, a.Y - ny}}, col)
}

func (c *canvas) circle(center Vec, r float64, col color.Color) {
	points := make([]Vec, 0, 36)
	for a := 0.0; a < 360; a += 10 {
		rad := a * math.Pi / 180
		points = append(points, Vec{center.X + r*math.Cos(rad), center.Y + r*math.Sin(rad)})
	}
	c.fill(points, col)
}

// WritePNG rasterizes scene into a PNG image width pixels wide.
func WritePNG(w io.Writer, scene Scene, width int) error {
	if width <= 0 {
		return fmt.Errorf("invalid raster width %d", width)
	}

	var c *canvas
	switch scene.Kind {
	case KindLine:
		c = newCanvas(LineWidth, LineHeight, width)
		if scene.Line != nil {
			rasterLine(c, *scene.Line)
		}
	case KindBar:
		rows := math.Max(1, float64(len(scene.Bars)))
		c = newCanvas(LineWidth, rows*barRowHeight, width)
		rasterBars(c, scene.Bars)
	case KindPie:
		c = newCanvas(PieSize, PieSize, width)
		rasterPie(c, scene.Pie)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, scene.Kind)
	}

	return png.Encode(w, c.img)
}

func rasterLine(c *canvas, line LineScene) {
	col := parseColor(line.Color)
	for i := 1; i < len(line.Points); i++ {
		c.stroke(line.Points[i-1], line.Points[i], 2, col)
	}
	for _, m := range line.Markers {
		c.circle(m.Center, m.Radius, col)
	}
}

func rasterBars(c *canvas, bars []Bar) {
	track := LineWidth - barLabelWidth - barValueWidth
	trackColor := parseColor(barTrackColor)
	for i, b := range bars {
		y := float64(i)*barRowHeight + 5
		c.rect(barLabelWidth, y, track, 6, trackColor)
		c.rect(barLabelWidth, y, track*b.Fraction, 6, parseColor(b.Color))
	}
}

func rasterPie(c *canvas, slices []Slice) {
	for _, s := range slices {
		if s.Fraction == 0 {
			continue
		}
		points := []Vec{{PieCenter, PieCenter}}
		for a := s.StartAngle; a < s.EndAngle; a += arcStep {
			points = append(points, pointOnCircle(a))
		}
		points = append(points, pointOnCircle(s.EndAngle))
		col := parseColor(s.Color)
		r, g, b, _ := col.RGBA()
		// same 0.8 opacity as the SVG wedges
		c.fill(points, color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 204})
	}
}

// parseColor understands #rgb and #rrggbb; anything else falls back to DefaultAccent.
func parseColor(s string) color.Color {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return defaultAccentRGBA
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return defaultAccentRGBA
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}
