// Package forcegraph lays out a paper relationship graph with a small
// force-directed simulation and makes it interactive: hover highlighting,
// drag to pin, click to open.
//
// An Engine is owned by one view. It is not safe for concurrent use; hosts
// that drive it from several goroutines serialise calls, for example through
// LoopScheduler.Do.
package forcegraph

import (
	"math/rand"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
)

// Layout and rendering constants.
const (
	Margin          = 18.0
	MinViewport     = 10.0
	Repulsion       = 5600.0
	Regularisation  = 0.01
	SpringStiffness = 0.015
	SpringShrink    = 0.08
	Gravity         = 0.012
	WarmupDamping   = 0.82
	AnimatedDamping = 0.88
	LoopBudget      = 2200 * time.Millisecond
	MinRadius       = 10.0
	MaxRadius       = 24.0
	HitSlop         = 3.0
	SeedJitter      = 6.0
	MaxWarmup       = 420
	LabelAllLimit   = 25
	TopLabels       = 10
	LabelRunes      = 16
	EdgeAlpha       = 0.55
	DimEdgeAlpha    = 0.12
	DimNodeAlpha    = 0.25
)

// Theme holds the non-node colours used by Draw.
type Theme struct {
	Background colorful.Color
	Edge       colorful.Color
	Outline    colorful.Color
	Label      colorful.Color
	FontSize   float64 // logical pixels
}

// DefaultTheme is a light theme.
func DefaultTheme() Theme {
	return Theme{
		Background: colorful.Color{R: 1, G: 1, B: 1},
		Edge:       colorful.Color{R: 0.58, G: 0.64, B: 0.72},
		Outline:    colorful.Color{R: 0.2, G: 0.25, B: 0.33},
		Label:      colorful.Color{R: 0.12, G: 0.16, B: 0.22},
		FontSize:   12,
	}
}

// Options configures an Engine. Only Width and Height are required.
type Options struct {
	Width, Height float64

	Surface   Surface   // nil disables drawing
	Scheduler Scheduler // nil uses a ManualScheduler
	Tooltip   Tooltip   // nil disables tooltips
	Navigator Navigator // nil ignores clicks
	Theme     *Theme
	Logger    *zap.Logger
	Rand      *rand.Rand       // seeding jitter; fixed seed when nil
	Now       func() time.Time // clock for the loop budget
}

// Engine holds the simulation state of one graph view.
type Engine struct {
	log     *zap.Logger
	rnd     *rand.Rand
	now     func() time.Time
	sched   Scheduler
	surface Surface
	tooltip Tooltip
	nav     Navigator
	theme   Theme

	width, height float64

	nodes  []SimNode
	edges  []SimEdge
	index  map[string]int
	report graphdoc.Report

	hovered  int
	dragging int
	pressAt  Point
	moved    bool // the current press turned into a drag
	tipShown bool

	state   LoopState
	frame   FrameID
	started time.Time

	unobserve func()
	closed    bool
}

// New creates an engine with an empty graph.
func New(opts Options) *Engine {
	e := &Engine{
		log:      opts.Logger,
		rnd:      opts.Rand,
		now:      opts.Now,
		sched:    opts.Scheduler,
		surface:  opts.Surface,
		tooltip:  opts.Tooltip,
		nav:      opts.Navigator,
		theme:    DefaultTheme(),
		hovered:  -1,
		dragging: -1,
		index:    map[string]int{},
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.rnd == nil {
		e.rnd = rand.New(rand.NewSource(1))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.sched == nil {
		e.sched = NewManualScheduler()
	}
	if opts.Theme != nil {
		e.theme = *opts.Theme
	}
	e.width = max(opts.Width, MinViewport)
	e.height = max(opts.Height, MinViewport)
	return e
}

// Size returns the viewport in logical pixels.
func (e *Engine) Size() (w, h float64) { return e.width, e.height }

// Nodes returns a copy of the laid out nodes.
func (e *Engine) Nodes() []SimNode {
	out := make([]SimNode, len(e.nodes))
	copy(out, e.nodes)
	for i := range out {
		out[i].Tags = append([]string(nil), out[i].Tags...)
	}
	return out
}

// Edges returns a copy of the edges.
func (e *Engine) Edges() []SimEdge {
	return append([]SimEdge(nil), e.edges...)
}

// Index returns the position of the node with the given id, or -1.
func (e *Engine) Index(id string) int {
	if i, ok := e.index[id]; ok {
		return i
	}
	return -1
}

// Report returns what the last SetGraph kept and dropped.
func (e *Engine) Report() graphdoc.Report { return e.report }

// Hovered returns the hovered node index, or -1.
func (e *Engine) Hovered() int { return e.hovered }

// Dragging returns the dragged node index, or -1.
func (e *Engine) Dragging() int { return e.dragging }

// Positions snapshots node positions by id.
func (e *Engine) Positions() map[string]Point {
	out := make(map[string]Point, len(e.nodes))
	for _, n := range e.nodes {
		out[n.ID] = n.Pos
	}
	return out
}

// RestorePositions moves known nodes to saved positions, clamped into the
// viewport, and stops their motion. Unknown ids are ignored.
func (e *Engine) RestorePositions(pos map[string]Point) int {
	restored := 0
	for id, p := range pos {
		i, ok := e.index[id]
		if !ok {
			continue
		}
		n := &e.nodes[i]
		n.Pos = e.clampPoint(p)
		n.Vel = Point{}
		restored++
	}
	if restored > 0 {
		e.Draw()
	}
	return restored
}

// Resize changes the viewport. Each dimension is at least MinViewport.
// Positions are clamped into the new box and the graph is redrawn without
// reseeding or restarting the loop.
func (e *Engine) Resize(w, h float64) {
	e.width = max(w, MinViewport)
	e.height = max(h, MinViewport)
	for i := range e.nodes {
		e.nodes[i].Pos = e.clampPoint(e.nodes[i].Pos)
	}
	e.Draw()
}

// SizeSource reports size changes of the container that holds the surface.
type SizeSource interface {
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn func(w, h float64)) (cancel func())
}

// Observe resizes the engine whenever src reports a new size. A previous
// observer is released first.
func (e *Engine) Observe(src SizeSource) {
	if e.closed || src == nil {
		return
	}
	e.release()
	e.unobserve = src.Subscribe(e.Resize)
}

func (e *Engine) release() {
	if e.unobserve != nil {
		e.unobserve()
		e.unobserve = nil
	}
}

// Close stops the animation loop and releases the size observer. Calling
// it again does nothing.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.Stop()
	e.release()
	e.hideTooltip()
	e.closed = true
}

func (e *Engine) clampPoint(p Point) Point {
	return Point{clampAxis(p.X, e.width), clampAxis(p.Y, e.height)}
}

func (e *Engine) centre() Point {
	return Point{e.width / 2, e.height / 2}
}
