package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
)

const (
	barRowHeight  = 16.0
	barLabelWidth = 40.0
	barValueWidth = 30.0
	barTrackColor = "#e5e7eb"
	outlineColor  = "#d1d5db"
)

// WriteSVG draws scene as a standalone SVG document.
func WriteSVG(w io.Writer, scene Scene) error {
	bw := bufio.NewWriter(w)

	switch scene.Kind {
	case KindLine:
		writeLineSVG(bw, scene)
	case KindBar:
		writeBarSVG(bw, scene)
	case KindPie:
		writePieSVG(bw, scene)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, scene.Kind)
	}

	return bw.Flush()
}

func writeHeader(w *bufio.Writer, width, height float64, title string) {
	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="100%%" viewBox="0 0 %s %s">`, num(width), num(height))
	if title != "" {
		fmt.Fprintf(w, "<title>%s</title>", html.EscapeString(title))
	}
}

func writeLineSVG(w *bufio.Writer, scene Scene) {
	writeHeader(w, LineWidth, LineHeight, scene.Title)
	if scene.Line != nil && len(scene.Line.Points) > 0 {
		points := make([]string, len(scene.Line.Points))
		for i, p := range scene.Line.Points {
			points[i] = num(p.X) + "," + num(p.Y)
		}
		fmt.Fprintf(w, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`,
			html.EscapeString(scene.Line.Color), strings.Join(points, " "))
		for _, m := range scene.Line.Markers {
			fmt.Fprintf(w, `<circle cx="%s" cy="%s" r="%s" fill="%s"><title>%s: %s</title></circle>`,
				num(m.Center.X), num(m.Center.Y), num(m.Radius), html.EscapeString(scene.Line.Color),
				html.EscapeString(m.Label), num(m.Value))
		}
	}
	w.WriteString("</svg>")
}

func writeBarSVG(w *bufio.Writer, scene Scene) {
	height := barRowHeight * float64(len(scene.Bars))
	if height == 0 {
		height = barRowHeight
	}
	track := LineWidth - barLabelWidth - barValueWidth

	writeHeader(w, LineWidth, height, scene.Title)
	for i, b := range scene.Bars {
		y := float64(i) * barRowHeight
		fmt.Fprintf(w, `<text x="0" y="%s" font-size="8">%s</text>`, num(y+11), html.EscapeString(b.Label))
		fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="6" rx="3" fill="%s"/>`,
			num(barLabelWidth), num(y+5), num(track), barTrackColor)
		fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="6" rx="3" fill="%s"/>`,
			num(barLabelWidth), num(y+5), num(track*b.Fraction), html.EscapeString(b.Color))
		fmt.Fprintf(w, `<text x="%s" y="%s" font-size="8">%s</text>`,
			num(LineWidth-barValueWidth+4), num(y+11), num(b.Value))
	}
	w.WriteString("</svg>")
}

func writePieSVG(w *bufio.Writer, scene Scene) {
	writeHeader(w, PieSize, PieSize, scene.Title)
	fmt.Fprintf(w, `<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="2"/>`,
		num(PieCenter), num(PieCenter), num(PieRadius), outlineColor)
	for _, s := range scene.Pie {
		if s.Fraction == 0 {
			continue
		}
		fmt.Fprintf(w, `<path d="%s" fill="%s" opacity="0.8"><title>%s (%s)</title></path>`,
			s.Path, html.EscapeString(s.Color), html.EscapeString(s.Label), num(s.Value))
	}
	w.WriteString("</svg>")
}
