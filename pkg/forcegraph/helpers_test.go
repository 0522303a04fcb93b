package forcegraph

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
	colorful "github.com/lucasb-eyer/go-colorful"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

type drawCall struct {
	op     string
	a, b   Point
	size   float64
	alpha  float64
	text   string
	colour colorful.Color
}

type recordingSurface struct {
	ratio float64
	calls []drawCall
}

func (s *recordingSurface) PixelRatio() float64 { return s.ratio }

func (s *recordingSurface) Clear(bg colorful.Color) {
	s.calls = append(s.calls[:0], drawCall{op: "clear", colour: bg})
}

func (s *recordingSurface) Line(from, to Point, width float64, c colorful.Color, alpha float64) {
	s.calls = append(s.calls, drawCall{op: "line", a: from, b: to, size: width, colour: c, alpha: alpha})
}

func (s *recordingSurface) Circle(centre Point, radius float64, fill colorful.Color, alpha float64, outline colorful.Color, outlineWidth float64) {
	s.calls = append(s.calls, drawCall{op: "circle", a: centre, size: radius, colour: fill, alpha: alpha})
}

func (s *recordingSurface) Text(at Point, size float64, text string, c colorful.Color, alpha float64) {
	s.calls = append(s.calls, drawCall{op: "text", a: at, size: size, text: text, colour: c, alpha: alpha})
}

func (s *recordingSurface) ops(op string) []drawCall {
	var out []drawCall
	for _, c := range s.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

type recordingTooltip struct {
	visible bool
	text    string
	at      Point
	shows   int
	hides   int
}

func (t *recordingTooltip) Measure(text string) (float64, float64) { return 100, 40 }

func (t *recordingTooltip) Show(text string, at Point) {
	t.visible, t.text, t.at = true, text, at
	t.shows++
}

func (t *recordingTooltip) Hide() {
	t.visible = false
	t.hides++
}

type harness struct {
	eng     *Engine
	sched   *ManualScheduler
	surface *recordingSurface
	tip     *recordingTooltip
	clock   *fakeClock
	opened  []string
}

func newHarness(t *testing.T, w, h float64) *harness {
	t.Helper()
	hs := &harness{
		sched:   NewManualScheduler(),
		surface: &recordingSurface{ratio: 1},
		tip:     &recordingTooltip{},
		clock:   &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	hs.eng = New(Options{
		Width:     w,
		Height:    h,
		Surface:   hs.surface,
		Scheduler: hs.sched,
		Tooltip:   hs.tip,
		Navigator: NavigatorFunc(func(id string) { hs.opened = append(hs.opened, id) }),
		Rand:      rand.New(rand.NewSource(7)),
		Now:       hs.clock.Now,
	})
	return hs
}

// place moves nodes to fixed positions so pointer tests are exact.
func (hs *harness) place(pos map[string]Point) {
	hs.eng.RestorePositions(pos)
}

func wp(f float64) *float64 { return &f }

func rawNodes(ids ...string) []graphdoc.RawNode {
	out := make([]graphdoc.RawNode, len(ids))
	for i, id := range ids {
		out[i] = graphdoc.RawNode{ID: id, Title: "Paper " + id}
	}
	return out
}

func edge(a, b string, w float64) graphdoc.RawEdge {
	return graphdoc.RawEdge{Source: a, Target: b, Weight: wp(w)}
}

// ringDoc is a ring of n nodes with weights cycling through 1..5.
func ringDoc(n int) *graphdoc.Document {
	doc := &graphdoc.Document{}
	for i := 0; i < n; i++ {
		doc.Nodes = append(doc.Nodes, graphdoc.RawNode{ID: fmt.Sprintf("n%02d", i)})
	}
	for i := 0; i < n; i++ {
		doc.Edges = append(doc.Edges, edge(doc.Nodes[i].ID, doc.Nodes[(i+1)%n].ID, float64(1+i%5)))
	}
	return doc
}

func assertInside(t *testing.T, e *Engine) {
	t.Helper()
	w, h := e.Size()
	for _, n := range e.Nodes() {
		if n.Pos.X < Margin || n.Pos.X > w-Margin || n.Pos.Y < Margin || n.Pos.Y > h-Margin {
			t.Errorf("node %s at %+v outside [%v,%v]x[%v,%v]", n.ID, n.Pos, Margin, w-Margin, Margin, h-Margin)
		}
	}
}
