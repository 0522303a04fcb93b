package forcegraph

import (
	"testing"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
)

func pairHarness(t *testing.T) *harness {
	t.Helper()
	hs := newHarness(t, 800, 600)
	hs.eng.SetGraph(&graphdoc.Document{
		Nodes: rawNodes("X", "Y", "Z"),
		Edges: []graphdoc.RawEdge{edge("X", "Y", 3)},
	})
	hs.place(map[string]Point{"X": {200, 200}, "Y": {400, 300}, "Z": {600, 450}})
	return hs
}

func TestHitTest(t *testing.T) {
	hs := pairHarness(t)
	r := hs.eng.Nodes()[0].Radius

	tests := []struct {
		name string
		p    Point
		want int
	}{
		{"centre", Pt(200, 200), 0},
		{"inside slop", Pt(200+r+HitSlop-0.1, 200), 0},
		{"outside slop", Pt(200+r+HitSlop+0.1, 200), -1},
		{"other node", Pt(400, 301), 1},
		{"empty space", Pt(50, 500), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hs.eng.HitTest(tt.p); got != tt.want {
				t.Errorf("HitTest(%+v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestHitTest_TopmostWins(t *testing.T) {
	hs := pairHarness(t)
	hs.place(map[string]Point{"X": {300, 300}, "Y": {305, 300}, "Z": {310, 300}})
	if got := hs.eng.HitTest(Pt(305, 300)); got != 2 {
		t.Errorf("HitTest over overlapping nodes = %d, want last node 2", got)
	}
}

func TestHover_TooltipAndHighlight(t *testing.T) {
	hs := pairHarness(t)

	hs.eng.PointerMove(Pt(201, 199))
	if hs.eng.Hovered() != 0 {
		t.Fatalf("hovered = %d, want 0", hs.eng.Hovered())
	}
	if !hs.tip.visible || hs.tip.text != "Paper X" {
		t.Errorf("tooltip = %+v", hs.tip)
	}
	if hs.tip.at != Pt(213, 211) {
		t.Errorf("tooltip at %+v, want pointer + 12", hs.tip.at)
	}

	hs.eng.PointerMove(Pt(50, 500))
	if hs.eng.Hovered() != -1 || hs.tip.visible {
		t.Errorf("moving off a node kept hover=%d tooltip=%v", hs.eng.Hovered(), hs.tip.visible)
	}
	hides := hs.tip.hides
	hs.eng.PointerMove(Pt(60, 500))
	if hs.tip.hides != hides {
		t.Error("tooltip hidden again while already hidden")
	}
}

func TestDrag(t *testing.T) {
	hs := pairHarness(t)

	hs.eng.PointerDown(Pt(203, 202))
	x := hs.eng.Nodes()[0]
	if !x.Fixed || x.Pos != Pt(203, 202) {
		t.Fatalf("press: fixed=%v pos=%+v", x.Fixed, x.Pos)
	}

	hs.eng.PointerMove(Pt(50, 50))
	x = hs.eng.Nodes()[0]
	if x.Pos != Pt(50, 50) || !x.Fixed {
		t.Errorf("drag: pos=%+v fixed=%v, want (50,50) pinned", x.Pos, x.Fixed)
	}
	if hs.eng.Hovered() != -1 {
		t.Error("dragging changed hover")
	}

	// Frames while dragging leave the node where the pointer put it.
	hs.sched.Step(hs.clock.Advance(16e6))
	hs.sched.Step(hs.clock.Advance(16e6))
	if got := hs.eng.Nodes()[0].Pos; got != Pt(50, 50) {
		t.Errorf("node drifted to %+v while pinned", got)
	}

	hs.eng.PointerUp(Pt(700, 10))
	if hs.eng.Nodes()[0].Fixed || hs.eng.Dragging() != -1 {
		t.Error("release did not unpin")
	}
	hs.sched.Step(hs.clock.Advance(16e6))
	if got := hs.eng.Nodes()[0].Pos; got == Pt(50, 50) {
		t.Error("released node did not move under physics")
	}
}

func TestDrag_ClampedToViewport(t *testing.T) {
	hs := pairHarness(t)

	hs.eng.PointerDown(Pt(200, 200))
	tests := []struct {
		to, want Point
	}{
		{Pt(-150, 900), Pt(Margin, 600-Margin)},
		{Pt(1000, -40), Pt(800-Margin, Margin)},
		{Pt(300, 700), Pt(300, 600-Margin)},
	}
	for _, tt := range tests {
		hs.eng.PointerMove(tt.to)
		if got := hs.eng.Nodes()[0].Pos; got != tt.want {
			t.Errorf("drag to %+v: pos=%+v, want %+v", tt.to, got, tt.want)
		}
	}
	hs.eng.PointerUp(Pt(-150, 900))

	// A press inside the hit slop of a node at the edge snaps it into the box.
	hs.place(map[string]Point{"Z": {20, 20}})
	hs.eng.PointerDown(Pt(12, 12))
	if hs.eng.Dragging() != 2 {
		t.Fatalf("dragging = %d, want Z", hs.eng.Dragging())
	}
	if got := hs.eng.Nodes()[2].Pos; got != Pt(Margin, Margin) {
		t.Errorf("press: pos=%+v, want (%v,%v)", got, Margin, Margin)
	}
}

func TestPointerDown_ReleasesHeldDrag(t *testing.T) {
	hs := pairHarness(t)

	hs.eng.PointerDown(Pt(200, 200))
	hs.eng.PointerDown(Pt(600, 450))
	nodes := hs.eng.Nodes()
	if nodes[0].Fixed {
		t.Error("second press left X pinned")
	}
	if !nodes[2].Fixed || hs.eng.Dragging() != 2 {
		t.Errorf("second press: Z fixed=%v dragging=%d", nodes[2].Fixed, hs.eng.Dragging())
	}

	hs.eng.PointerUp(Pt(600, 450))
	for i := 0; i < 30; i++ {
		hs.eng.Tick(AnimatedDamping)
	}
	for _, n := range hs.eng.Nodes() {
		if n.Fixed {
			t.Errorf("%s still pinned after release", n.ID)
		}
	}
	if got := hs.eng.Nodes()[0].Pos; got == Pt(200, 200) {
		t.Error("X ignored physics after the second press")
	}

	// A second press on empty space also ends the held drag.
	hs.eng.PointerDown(hs.eng.Nodes()[1].Pos)
	held := hs.eng.Dragging()
	if held < 0 {
		t.Fatal("press on Y missed")
	}
	hs.eng.PointerDown(Pt(400, 2))
	if hs.eng.Dragging() != -1 || hs.eng.Nodes()[held].Fixed {
		t.Errorf("press on empty space: dragging=%d fixed=%v", hs.eng.Dragging(), hs.eng.Nodes()[held].Fixed)
	}
}

func TestClick_Navigates(t *testing.T) {
	hs := pairHarness(t)

	hs.eng.PointerDown(Pt(400, 300))
	hs.eng.PointerUp(Pt(400, 300))
	hs.eng.Click(Pt(400, 300))
	if len(hs.opened) != 1 || hs.opened[0] != "Y" {
		t.Errorf("opened = %v, want [Y]", hs.opened)
	}

	hs.eng.Click(Pt(10, 590))
	if len(hs.opened) != 1 {
		t.Errorf("click on empty space navigated: %v", hs.opened)
	}
}

func TestClick_SuppressedAfterDrag(t *testing.T) {
	hs := pairHarness(t)

	hs.eng.PointerDown(Pt(400, 300))
	hs.eng.PointerMove(Pt(420, 310))
	hs.eng.PointerUp(Pt(420, 310))
	hs.eng.Click(Pt(420, 310))
	if len(hs.opened) != 0 {
		t.Errorf("drag ended in navigation: %v", hs.opened)
	}

	// The next plain click works again.
	hs.eng.PointerDown(Pt(200, 200))
	hs.eng.PointerUp(Pt(200, 200))
	hs.eng.Click(Pt(200, 200))
	if len(hs.opened) != 1 || hs.opened[0] != "X" {
		t.Errorf("opened = %v, want [X]", hs.opened)
	}
}

func TestClick_NoNavigator(t *testing.T) {
	e := New(Options{Width: 800, Height: 600})
	e.SetGraph(&graphdoc.Document{Nodes: rawNodes("a")})
	p := e.Nodes()[0].Pos
	e.Click(p)
}

func TestPointerLeave(t *testing.T) {
	hs := pairHarness(t)

	hs.eng.PointerMove(Pt(400, 300))
	hs.eng.PointerDown(Pt(400, 300))
	hs.eng.PointerMove(Pt(500, 320))
	hs.eng.PointerLeave()

	if hs.eng.Hovered() != -1 || hs.eng.Dragging() != -1 {
		t.Errorf("leave kept hovered=%d dragging=%d", hs.eng.Hovered(), hs.eng.Dragging())
	}
	if hs.eng.Nodes()[1].Fixed {
		t.Error("leave kept the node pinned")
	}
	if hs.tip.visible {
		t.Error("leave kept the tooltip")
	}
}
