package forcegraph

import (
	"sort"
	"unicode/utf8"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Surface is a 2D drawing target. All coordinates and sizes passed to it
// are device pixels: logical values multiplied by PixelRatio.
type Surface interface {
	PixelRatio() float64
	Clear(bg colorful.Color)
	Line(from, to Point, width float64, c colorful.Color, alpha float64)
	Circle(centre Point, radius float64, fill colorful.Color, alpha float64, outline colorful.Color, outlineWidth float64)
	Text(at Point, size float64, s string, c colorful.Color, alpha float64)
}

// EdgeWidth is the logical line width for an edge weight.
func EdgeWidth(weight int) float64 {
	return max(0.5, 1+0.7*float64(weight-3))
}

// Truncate shortens s to LabelRunes runes plus an ellipsis.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= LabelRunes {
		return s
	}
	return string([]rune(s)[:LabelRunes]) + "…"
}

// Draw paints the current state onto the surface.
func (e *Engine) Draw() {
	s := e.surface
	if s == nil {
		return
	}
	ratio := s.PixelRatio()
	if ratio <= 0 {
		ratio = 1
	}
	s.Clear(e.theme.Background)
	if len(e.nodes) == 0 {
		return
	}

	for _, ed := range e.edges {
		a, b := e.nodes[ed.A].Pos, e.nodes[ed.B].Pos
		s.Line(a.Scale(ratio), b.Scale(ratio), EdgeWidth(ed.Weight)*ratio, e.theme.Edge, e.EdgeAlpha(ed))
	}

	lit := e.litNodes()
	for i := range e.nodes {
		n := &e.nodes[i]
		s.Circle(n.Pos.Scale(ratio), n.Radius*ratio, n.Colour, nodeAlpha(lit, i), e.theme.Outline, ratio)
	}

	size := e.theme.FontSize * ratio
	for i, show := range e.Labelled() {
		if !show {
			continue
		}
		n := &e.nodes[i]
		at := Point{n.Pos.X + n.Radius + 4, n.Pos.Y + 4}
		s.Text(at.Scale(ratio), size, Truncate(n.Label()), e.theme.Label, nodeAlpha(lit, i))
	}
}

// EdgeAlpha is the opacity of ed: full focus unless a hovered node exists
// and ed does not touch it.
func (e *Engine) EdgeAlpha(ed SimEdge) float64 {
	if e.hovered >= 0 && !ed.Touches(e.hovered) {
		return DimEdgeAlpha
	}
	return EdgeAlpha
}

// NodeAlpha is the opacity of node i.
func (e *Engine) NodeAlpha(i int) float64 {
	return nodeAlpha(e.litNodes(), i)
}

// litNodes marks the hovered node and its neighbours, or returns nil when
// nothing is hovered.
func (e *Engine) litNodes() []bool {
	if e.hovered < 0 {
		return nil
	}
	lit := make([]bool, len(e.nodes))
	lit[e.hovered] = true
	for _, ed := range e.edges {
		if ed.A == e.hovered {
			lit[ed.B] = true
		} else if ed.B == e.hovered {
			lit[ed.A] = true
		}
	}
	return lit
}

func nodeAlpha(lit []bool, i int) float64 {
	if lit == nil || lit[i] {
		return 1
	}
	return DimNodeAlpha
}

// Labelled reports which nodes carry a label: all of them in small graphs,
// otherwise the TopLabels nodes of highest degree plus the hovered node.
func (e *Engine) Labelled() []bool {
	n := len(e.nodes)
	out := make([]bool, n)
	if n <= LabelAllLimit {
		for i := range out {
			out[i] = true
		}
		return out
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.nodes[order[a]].Degree > e.nodes[order[b]].Degree
	})
	for _, i := range order[:TopLabels] {
		out[i] = true
	}
	if e.hovered >= 0 {
		out[e.hovered] = true
	}
	return out
}
