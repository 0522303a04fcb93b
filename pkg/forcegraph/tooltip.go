package forcegraph

import "strings"

// Tooltip shows node details next to the pointer. Sizes and positions
// are in logical pixels.
type Tooltip interface {
	Measure(text string) (w, h float64)
	Show(text string, at Point)
	Hide()
}

// Tooltip placement.
const (
	TooltipOffset = 12.0
	TooltipMargin = 10.0
	TooltipTags   = 8
)

// TooltipText composes the tooltip of a node: the title, a "year · authors"
// line, up to TooltipTags tags, then a blank line and the summary.
func TooltipText(n SimNode) string {
	lines := []string{n.Label()}

	var meta []string
	if n.Year != "" {
		meta = append(meta, n.Year)
	}
	if n.Authors != "" {
		meta = append(meta, n.Authors)
	}
	if len(meta) > 0 {
		lines = append(lines, strings.Join(meta, " · "))
	}

	if len(n.Tags) > 0 {
		tags := n.Tags
		if len(tags) > TooltipTags {
			tags = tags[:TooltipTags]
		}
		lines = append(lines, strings.Join(tags, ", "))
	}

	if n.Summary != "" {
		lines = append(lines, "", n.Summary)
	}
	return strings.Join(lines, "\n")
}

// PlaceTooltip positions a tooltip of size (w, h) near the pointer inside
// a viewport of size (vw, vh).
func PlaceTooltip(pointer Point, w, h, vw, vh float64) Point {
	x := pointer.X + TooltipOffset
	y := pointer.Y + TooltipOffset
	if x+w > vw-TooltipMargin {
		x = vw - w - TooltipMargin
	}
	if y+h > vh-TooltipMargin {
		y = vh - h - TooltipMargin
	}
	return Point{max(x, TooltipMargin), max(y, TooltipMargin)}
}

func (e *Engine) showTooltip(i int, p Point) {
	if e.tooltip == nil {
		return
	}
	text := TooltipText(e.nodes[i])
	w, h := e.tooltip.Measure(text)
	e.tooltip.Show(text, PlaceTooltip(p, w, h, e.width, e.height))
	e.tipShown = true
}

func (e *Engine) hideTooltip() {
	if e.tooltip == nil || !e.tipShown {
		return
	}
	e.tooltip.Hide()
	e.tipShown = false
}
