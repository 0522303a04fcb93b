package main

import (
	"math"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
)

// One terminal cell covers cellW x cellH logical pixels.
const (
	cellW = 8.0
	cellH = 16.0
)

type cell struct {
	ch     rune
	fg, bg colorful.Color
}

// termSurface rasterises engine drawing calls into a grid of cells.
type termSurface struct {
	cols, rows int
	cells      []cell
}

func newTermSurface(cols, rows int) *termSurface {
	s := &termSurface{}
	s.resize(cols, rows)
	return s
}

func (s *termSurface) resize(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.cells = make([]cell, s.cols*s.rows)
	for i := range s.cells {
		s.cells[i].ch = ' '
	}
}

// logicalSize is the canvas size the engine sees.
func (s *termSurface) logicalSize() (w, h float64) {
	return float64(s.cols) * cellW, float64(s.rows) * cellH
}

func (s *termSurface) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return nil
	}
	return &s.cells[row*s.cols+col]
}

func cellOf(p forcegraph.Point) (col, row int) {
	return int(math.Floor(p.X / cellW)), int(math.Floor(p.Y / cellH))
}

func cellCentre(col, row int) forcegraph.Point {
	return forcegraph.Pt((float64(col)+0.5)*cellW, (float64(row)+0.5)*cellH)
}

func blend(under, over colorful.Color, alpha float64) colorful.Color {
	return under.BlendRgb(over, math.Max(0, math.Min(1, alpha))).Clamped()
}

func (s *termSurface) PixelRatio() float64 { return 1 }

func (s *termSurface) Clear(bg colorful.Color) {
	for i := range s.cells {
		s.cells[i] = cell{ch: ' ', fg: bg, bg: bg}
	}
}

func (s *termSurface) Line(from, to forcegraph.Point, width float64, c colorful.Color, alpha float64) {
	d := to.Sub(from)
	steps := int(2*math.Max(math.Abs(d.X)/cellW, math.Abs(d.Y)/cellH)) + 1
	glyph := lineGlyph(d)
	for i := 0; i <= steps; i++ {
		p := from.Add(d.Scale(float64(i) / float64(steps)))
		if cl := s.at(cellOf(p)); cl != nil {
			cl.ch = glyph
			cl.fg = blend(cl.bg, c, alpha)
		}
	}
}

// lineGlyph picks a box-drawing rune for the direction of d, measured in
// cells so the terminal aspect ratio is accounted for.
func lineGlyph(d forcegraph.Point) rune {
	deg := math.Atan2(-d.Y/cellH, d.X/cellW) * 180 / math.Pi
	if deg < 0 {
		deg += 180
	}
	switch {
	case deg < 22.5 || deg >= 157.5:
		return '─'
	case deg < 67.5:
		return '╱'
	case deg < 112.5:
		return '│'
	default:
		return '╲'
	}
}

func (s *termSurface) Circle(centre forcegraph.Point, radius float64, fill colorful.Color, alpha float64, outline colorful.Color, outlineWidth float64) {
	c0, r0 := cellOf(forcegraph.Pt(centre.X-radius, centre.Y-radius))
	c1, r1 := cellOf(forcegraph.Pt(centre.X+radius, centre.Y+radius))
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cl := s.at(col, row)
			if cl == nil || cellCentre(col, row).Dist(centre) > radius {
				continue
			}
			cl.bg = blend(cl.bg, fill, alpha)
			cl.ch = ' '
		}
	}

	// The centre cell always carries a dot so small nodes stay visible.
	if cl := s.at(cellOf(centre)); cl != nil {
		cl.ch = '●'
		if outlineWidth > 0 {
			cl.ch = '◉'
		}
		cl.fg = blend(cl.bg, fill, alpha)
		if cl.fg == cl.bg {
			cl.fg = blend(cl.bg, outline, alpha)
		}
	}
}

func (s *termSurface) Text(at forcegraph.Point, size float64, text string, c colorful.Color, alpha float64) {
	col, row := cellOf(at)
	for _, r := range text {
		if cl := s.at(col, row); cl != nil {
			cl.ch = r
			cl.fg = blend(cl.bg, c, alpha)
		}
		col++
	}
}

// flush copies the grid to the screen with its top-left cell at (x, y).
func (s *termSurface) flush(screen tcell.Screen, x, y int) {
	for row := 0; row < s.rows; row++ {
		for col := 0; col < s.cols; col++ {
			cl := s.cells[row*s.cols+col]
			style := tcell.StyleDefault.Foreground(tcellColour(cl.fg)).Background(tcellColour(cl.bg))
			screen.SetContent(x+col, y+row, cl.ch, nil, style)
		}
	}
}

func tcellColour(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
