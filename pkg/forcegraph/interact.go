package forcegraph

import "go.uber.org/zap"

// Navigator opens the detail view of a node.
type Navigator interface {
	Open(id string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(id string)

func (f NavigatorFunc) Open(id string) { f(id) }

// HitTest returns the topmost node whose centre lies within its radius
// plus HitSlop of p, or -1. Later nodes are on top.
func (e *Engine) HitTest(p Point) int {
	for i := len(e.nodes) - 1; i >= 0; i-- {
		n := &e.nodes[i]
		if n.Pos.Dist(p) <= n.Radius+HitSlop {
			return i
		}
	}
	return -1
}

// PointerMove handles pointer movement. While dragging, the dragged node
// follows the pointer and the loop keeps running; otherwise the hovered
// node is updated without touching the loop.
func (e *Engine) PointerMove(p Point) {
	if len(e.nodes) == 0 {
		return
	}
	if e.dragging >= 0 {
		if p != e.pressAt {
			e.moved = true
		}
		e.nodes[e.dragging].Pos = e.clampPoint(p)
		e.restart()
		e.Draw()
		if e.hovered >= 0 {
			e.showTooltip(e.hovered, p)
		}
		return
	}

	hit := e.HitTest(p)
	if hit != e.hovered {
		e.hovered = hit
		e.Draw()
	}
	if hit >= 0 {
		e.showTooltip(hit, p)
	} else {
		e.hideTooltip()
	}
}

// PointerDown pins the node under the pointer, snaps it to the pointer and
// restarts the loop. A drag still held from an earlier press is released
// first. Presses on empty space do nothing else.
func (e *Engine) PointerDown(p Point) {
	if e.dragging >= 0 {
		e.nodes[e.dragging].Fixed = false
		e.dragging = -1
		e.restart()
	}
	e.moved = false
	hit := e.HitTest(p)
	if hit < 0 {
		return
	}
	e.dragging = hit
	e.pressAt = p
	n := &e.nodes[hit]
	n.Fixed = true
	n.Pos = e.clampPoint(p)
	n.Vel = Point{}
	e.restart()
	e.Draw()
}

// PointerUp releases a drag wherever the pointer is and lets the loop
// settle the released node.
func (e *Engine) PointerUp(p Point) {
	if e.dragging < 0 {
		return
	}
	e.nodes[e.dragging].Fixed = false
	e.dragging = -1
	e.restart()
	e.Draw()
}

// Click opens the node under the pointer, unless the press that preceded
// it dragged a node.
func (e *Engine) Click(p Point) {
	if e.moved {
		e.moved = false
		return
	}
	hit := e.HitTest(p)
	if hit < 0 || e.nav == nil {
		return
	}
	id := e.nodes[hit].ID
	e.log.Debug("open node", zap.String("id", id))
	e.nav.Open(id)
}

// PointerLeave clears hover and any drag in progress.
func (e *Engine) PointerLeave() {
	if len(e.nodes) == 0 {
		return
	}
	if e.dragging >= 0 {
		e.nodes[e.dragging].Fixed = false
		e.dragging = -1
	}
	e.moved = false
	e.hideTooltip()
	if e.hovered >= 0 {
		e.hovered = -1
		e.Draw()
	}
}
