package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// SVGSurface records drawing calls as SVG elements.
type SVGSurface struct {
	width, height int
	body          strings.Builder
}

// NewSVGSurface creates a width x height SVG surface.
func NewSVGSurface(width, height int) *SVGSurface {
	return &SVGSurface{width: max(width, 1), height: max(height, 1)}
}

func (s *SVGSurface) PixelRatio() float64 { return 1 }

func (s *SVGSurface) Clear(bg colorful.Color) {
	s.body.Reset()
	s.body.WriteString(fmt.Sprintf("  <rect width=\"%d\" height=\"%d\" fill=\"%s\"/>\n", s.width, s.height, bg.Clamped().Hex()))
}

func (s *SVGSurface) Line(from, to pt, width float64, c colorful.Color, alpha float64) {
	s.body.WriteString(fmt.Sprintf("  <line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-opacity=\"%.2f\" stroke-width=\"%.2f\" stroke-linecap=\"round\"/>\n",
		from.X, from.Y, to.X, to.Y, c.Clamped().Hex(), alpha, width))
}

func (s *SVGSurface) Circle(centre pt, radius float64, fill colorful.Color, alpha float64, outline colorful.Color, outlineWidth float64) {
	s.body.WriteString(fmt.Sprintf("  <circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%.2f\" opacity=\"%.2f\"/>\n",
		centre.X, centre.Y, radius, fill.Clamped().Hex(), outline.Clamped().Hex(), outlineWidth, alpha))
}

func (s *SVGSurface) Text(at pt, size float64, text string, c colorful.Color, alpha float64) {
	s.body.WriteString(fmt.Sprintf("  <text x=\"%.2f\" y=\"%.2f\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%.1f\" fill=\"%s\" fill-opacity=\"%.2f\">%s</text>\n",
		at.X, at.Y, size, c.Clamped().Hex(), alpha, html.EscapeString(text)))
}

// String returns the complete SVG document.
func (s *SVGSurface) String() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		s.width, s.height, s.width, s.height))
	sb.WriteString(s.body.String())
	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteTo writes the SVG document to w.
func (s *SVGSurface) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}
