package server

import (
	"strings"
	"time"
	"unicode/utf8"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
)

// Frame is one drawn frame as sent to websocket clients. Coordinates are
// logical pixels.
type Frame struct {
	Type       string        `json:"type"`
	Seq        uint64        `json:"seq"`
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Background string        `json:"background"`
	Edges      []FrameLine   `json:"edges"`
	Nodes      []FrameCircle `json:"nodes"`
	Labels     []FrameText   `json:"labels"`
	Tooltip    *FrameTooltip `json:"tooltip,omitempty"`
}

type FrameLine struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Width float64 `json:"width"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

type FrameCircle struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	R            float64 `json:"r"`
	Fill         string  `json:"fill"`
	Alpha        float64 `json:"alpha"`
	Outline      string  `json:"outline"`
	OutlineWidth float64 `json:"outline_width"`
}

type FrameText struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

type FrameTooltip struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Approximate tooltip metrics for clients rendering 12px text.
const (
	tipCharWidth  = 7.0
	tipLineHeight = 16.0
	tipPadding    = 8.0
)

// frameRecorder is the engine's surface and tooltip. It collects draw
// calls into the next Frame; dirty is set whenever something changed
// since the last take.
type frameRecorder struct {
	frame Frame
	seq   uint64
	dirty bool
}

var (
	_ forcegraph.Surface = (*frameRecorder)(nil)
	_ forcegraph.Tooltip = (*frameRecorder)(nil)
)

func (f *frameRecorder) PixelRatio() float64 { return 1 }

func (f *frameRecorder) Clear(bg colorful.Color) {
	f.frame.Background = bg.Hex()
	f.frame.Edges = f.frame.Edges[:0]
	f.frame.Nodes = f.frame.Nodes[:0]
	f.frame.Labels = f.frame.Labels[:0]
	f.dirty = true
}

func (f *frameRecorder) Line(from, to forcegraph.Point, width float64, c colorful.Color, alpha float64) {
	f.frame.Edges = append(f.frame.Edges, FrameLine{
		X1: from.X, Y1: from.Y, X2: to.X, Y2: to.Y,
		Width: width, Color: c.Hex(), Alpha: alpha,
	})
}

func (f *frameRecorder) Circle(centre forcegraph.Point, radius float64, fill colorful.Color, alpha float64, outline colorful.Color, outlineWidth float64) {
	f.frame.Nodes = append(f.frame.Nodes, FrameCircle{
		X: centre.X, Y: centre.Y, R: radius,
		Fill: fill.Hex(), Alpha: alpha,
		Outline: outline.Hex(), OutlineWidth: outlineWidth,
	})
}

func (f *frameRecorder) Text(at forcegraph.Point, size float64, s string, c colorful.Color, alpha float64) {
	f.frame.Labels = append(f.frame.Labels, FrameText{
		X: at.X, Y: at.Y, Size: size, Text: s, Color: c.Hex(), Alpha: alpha,
	})
}

func (f *frameRecorder) Measure(text string) (w, h float64) {
	lines := strings.Split(text, "\n")
	widest := 0
	for _, l := range lines {
		widest = max(widest, utf8.RuneCountInString(l))
	}
	return float64(widest)*tipCharWidth + 2*tipPadding, float64(len(lines))*tipLineHeight + 2*tipPadding
}

func (f *frameRecorder) Show(text string, at forcegraph.Point) {
	f.frame.Tooltip = &FrameTooltip{X: at.X, Y: at.Y, Text: text}
	f.dirty = true
}

func (f *frameRecorder) Hide() {
	f.frame.Tooltip = nil
	f.dirty = true
}

// take returns a copy of the pending frame and clears dirty, or false when
// nothing changed.
func (f *frameRecorder) take(w, h float64) (Frame, bool) {
	if !f.dirty {
		return Frame{}, false
	}
	f.dirty = false
	f.seq++

	out := f.frame
	out.Type = "frame"
	out.Seq = f.seq
	out.Width, out.Height = w, h
	out.Edges = append(make([]FrameLine, 0, len(f.frame.Edges)), f.frame.Edges...)
	out.Nodes = append(make([]FrameCircle, 0, len(f.frame.Nodes)), f.frame.Nodes...)
	out.Labels = append(make([]FrameText, 0, len(f.frame.Labels)), f.frame.Labels...)
	if f.frame.Tooltip != nil {
		tip := *f.frame.Tooltip
		out.Tooltip = &tip
	}
	return out, true
}

// publishingScheduler runs after once every animation frame so the frame
// the engine just drew is sent out.
type publishingScheduler struct {
	*forcegraph.LoopScheduler
	after func()
}

func (p publishingScheduler) RequestFrame(fn func(time.Time)) forcegraph.FrameID {
	return p.LoopScheduler.RequestFrame(func(now time.Time) {
		fn(now)
		p.after()
	})
}
