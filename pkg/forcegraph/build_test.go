package forcegraph

import (
	"math/rand"
	"testing"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
)

func messyDoc() *graphdoc.Document {
	return &graphdoc.Document{
		Nodes: []graphdoc.RawNode{
			{ID: "a", Title: "Alpha", Tags: []string{"nlp"}},
			{ID: ""},
			{ID: "b", Title: "Beta"},
			{ID: "c", Title: "Gamma"},
			{ID: "d", Title: "Delta"},
		},
		Edges: []graphdoc.RawEdge{
			edge("a", "b", 5),
			edge("a", "a", 3),
			edge("a", "ghost", 3),
			edge("b", "c", 0.2),
			edge("c", "a", 9),
			{Source: "d", Target: "a"},
		},
		Clusters: []graphdoc.RawCluster{
			{NodeIDs: []string{"ghost"}},
			{NodeIDs: []string{"c", "d"}},
			{NodeIDs: []string{"d"}},
		},
	}
}

func TestSetGraph_Invariants(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(messyDoc())

	ns := hs.eng.Nodes()
	es := hs.eng.Edges()
	if len(ns) != 4 {
		t.Fatalf("got %d nodes, want 4", len(ns))
	}
	if len(es) != 4 {
		t.Fatalf("got %d edges, want 4", len(es))
	}

	degree := make([]int, len(ns))
	for _, e := range es {
		if e.A < 0 || e.A >= len(ns) || e.B < 0 || e.B >= len(ns) {
			t.Fatalf("edge %+v has an endpoint outside the node list", e)
		}
		if e.A == e.B {
			t.Errorf("edge %+v is a self-loop", e)
		}
		if e.Weight < 1 || e.Weight > 5 {
			t.Errorf("edge %+v weight out of range", e)
		}
		degree[e.A]++
		degree[e.B]++
	}
	for i, n := range ns {
		if n.ID == "" {
			t.Errorf("node %d has an empty id", i)
		}
		if n.Degree != degree[i] {
			t.Errorf("node %s degree = %d, want %d", n.ID, n.Degree, degree[i])
		}
		if n.Radius < MinRadius || n.Radius > MaxRadius {
			t.Errorf("node %s radius %v out of range", n.ID, n.Radius)
		}
		if n.Fixed {
			t.Errorf("node %s is fixed after build", n.ID)
		}
	}
	assertInside(t, hs.eng)
}

func TestSetGraph_WeightsRounded(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(messyDoc())

	want := []int{5, 1, 5, 3}
	for i, e := range hs.eng.Edges() {
		if e.Weight != want[i] {
			t.Errorf("edge %d weight = %d, want %d", i, e.Weight, want[i])
		}
	}
}

func TestNodeRadius(t *testing.T) {
	prev := 0.0
	for d := 0; d < 40; d++ {
		r := NodeRadius(d)
		if r < prev {
			t.Errorf("radius decreased at degree %d: %v < %v", d, r, prev)
		}
		if r < MinRadius || r > MaxRadius {
			t.Errorf("radius %v out of range at degree %d", r, d)
		}
		prev = r
	}
	if got := NodeRadius(5); got != 16 {
		t.Errorf("NodeRadius(5) = %v, want 16", got)
	}
}

func TestWarmupTicks(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 0},
		{1, 86},
		{10, 140},
		{56, 416},
		{57, 420},
		{500, 420},
	}
	for _, tt := range tests {
		if got := WarmupTicks(tt.n); got != tt.want {
			t.Errorf("WarmupTicks(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestHash31(t *testing.T) {
	tests := []struct {
		in   string
		want int32
	}{
		{"", 0},
		{"a", 97},
		{"hello", 99162322},
		{"polygenelubricants", -2147483648},
		{"nlp,transformer", 444942559},
		{"论文", 1134861},
		{"😀", 1772899},
	}
	for _, tt := range tests {
		if got := Hash31(tt.in); got != tt.want {
			t.Errorf("Hash31(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPaletteIndex(t *testing.T) {
	tests := []struct {
		name    string
		cluster int
		tags    []string
		title   string
		want    int
	}{
		{"cluster", 1, []string{"x"}, "t", 1},
		{"cluster wraps", 13, nil, "", 1},
		{"tags", -1, []string{"nlp", "transformer"}, "ignored", 7},
		{"title", -1, nil, "hello", 10},
		{"min int32", -1, nil, "polygenelubricants", 8},
		{"empty", -1, nil, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paletteIndex(tt.cluster, tt.tags, tt.title); got != tt.want {
				t.Errorf("paletteIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSetGraph_Colours(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(messyDoc())
	first := hs.eng.Nodes()

	// A different seed moves nodes but must not change colours.
	other := New(Options{Width: 800, Height: 600, Rand: rand.New(rand.NewSource(99))})
	other.SetGraph(messyDoc())
	second := other.Nodes()

	for i := range first {
		if first[i].Colour != second[i].Colour {
			t.Errorf("node %s colour differs between builds", first[i].ID)
		}
	}

	pal := Palette()
	byID := map[string]SimNode{}
	for _, n := range first {
		byID[n.ID] = n
	}
	// The ghost-only cluster is dropped, so c and d fall in cluster 0.
	if byID["c"].Colour != pal[0] || byID["d"].Colour != pal[0] {
		t.Errorf("cluster members not coloured with palette[0]")
	}
	if want := NodeColour(-1, []string{"nlp"}, "Alpha"); byID["a"].Colour != want {
		t.Errorf("a colour = %v, want tag colour %v", byID["a"].Colour, want)
	}
	if want := NodeColour(-1, nil, "Beta"); byID["b"].Colour != want {
		t.Errorf("b colour = %v, want title colour %v", byID["b"].Colour, want)
	}
}

func TestSetGraph_ReplacesStateAndClearsInteraction(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(&graphdoc.Document{Nodes: rawNodes("a", "b"), Edges: []graphdoc.RawEdge{edge("a", "b", 3)}})
	hs.place(map[string]Point{"a": {200, 200}, "b": {600, 400}})

	hs.eng.PointerMove(Pt(600, 400))
	hs.eng.PointerDown(Pt(200, 200))
	if hs.eng.Hovered() != 1 || hs.eng.Dragging() != 0 {
		t.Fatalf("setup: hovered=%d dragging=%d", hs.eng.Hovered(), hs.eng.Dragging())
	}

	hs.eng.SetGraph(&graphdoc.Document{Nodes: rawNodes("x", "y", "z")})
	if hs.eng.Hovered() != -1 || hs.eng.Dragging() != -1 {
		t.Errorf("rebuild kept interaction: hovered=%d dragging=%d", hs.eng.Hovered(), hs.eng.Dragging())
	}
	if hs.tip.visible {
		t.Error("tooltip still visible after rebuild")
	}
	ns := hs.eng.Nodes()
	if len(ns) != 3 || ns[0].ID != "x" {
		t.Fatalf("nodes not replaced: %+v", ns)
	}
	if hs.eng.Index("a") != -1 || hs.eng.Index("z") != 2 {
		t.Error("id index not rebuilt")
	}
	for _, n := range ns {
		if n.Fixed {
			t.Errorf("node %s fixed after rebuild", n.ID)
		}
	}
}

func TestSetGraph_SeedsOnCircle(t *testing.T) {
	e := New(Options{Width: 800, Height: 600})
	e.nodes = make([]SimNode, 4)
	e.seed()

	// radius max(120, 0.32*600) = 192, jitter at most 6 per axis
	c := Pt(400, 300)
	for i, n := range e.nodes {
		d := n.Pos.Dist(c)
		if d < 192-9 || d > 192+9 {
			t.Errorf("node %d seeded at distance %v from centre", i, d)
		}
	}
	if e.nodes[0].Pos.X < 400+192-6 {
		t.Errorf("node 0 should start at angle 0, got %+v", e.nodes[0].Pos)
	}
}

func TestSetGraph_Empty(t *testing.T) {
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(&graphdoc.Document{})
	hs.eng.SetGraph(nil)

	if len(hs.eng.Nodes()) != 0 {
		t.Fatal("expected no nodes")
	}
	hs.eng.Tick(AnimatedDamping)
	hs.eng.Draw()
	if got := hs.eng.HitTest(Pt(400, 300)); got != -1 {
		t.Errorf("HitTest on empty graph = %d", got)
	}
	hs.eng.PointerMove(Pt(1, 1))
	hs.eng.PointerDown(Pt(1, 1))
	hs.eng.PointerUp(Pt(1, 1))
	hs.eng.Click(Pt(1, 1))
	hs.eng.PointerLeave()
	hs.eng.Start()

	if hs.eng.State() != Idle || hs.sched.Pending() != 0 {
		t.Errorf("empty graph started the loop")
	}
	if len(hs.surface.calls) != 1 || hs.surface.calls[0].op != "clear" {
		t.Errorf("empty draw should only clear, got %+v", hs.surface.calls)
	}
	if len(hs.opened) != 0 {
		t.Errorf("empty graph navigated to %v", hs.opened)
	}
}

func TestSetGraph_DuplicateEdgesCountOnce(t *testing.T) {
	e := New(Options{Width: 800, Height: 600})
	e.SetGraph(&graphdoc.Document{
		Nodes: rawNodes("A", "B"),
		Edges: []graphdoc.RawEdge{edge("A", "B", 3), edge("B", "A", 3), edge("A", "B", 5)},
	})

	if got := len(e.Edges()); got != 1 {
		t.Fatalf("edges = %d, want 1", got)
	}
	a := e.Nodes()[0]
	if a.Degree != 1 || a.Radius != NodeRadius(1) {
		t.Errorf("A: degree=%d radius=%v, want 1 and %v", a.Degree, a.Radius, NodeRadius(1))
	}
	rep := e.Report()
	if rep.EdgesKept != 1 || rep.EdgesDuplicate != 2 {
		t.Errorf("report kept=%d duplicate=%d, want 1 and 2", rep.EdgesKept, rep.EdgesDuplicate)
	}

	e.SetGraph(&graphdoc.Document{Nodes: rawNodes("A")})
	if rep := e.Report(); rep.EdgesIn != 0 || rep.NodesKept != 1 {
		t.Errorf("report not replaced: %+v", rep)
	}
}
