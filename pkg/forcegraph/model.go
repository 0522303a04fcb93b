package forcegraph

import colorful "github.com/lucasb-eyer/go-colorful"

// SimNode is one paper as the engine lays it out.
type SimNode struct {
	ID      string
	Title   string
	Authors string
	Year    string
	Tags    []string
	Summary string

	Colour colorful.Color

	Pos   Point
	Vel   Point
	Force Point

	Radius float64
	Degree int
	Fixed  bool // pinned under the pointer
}

// Label is the text drawn next to the node.
func (n *SimNode) Label() string {
	if n.Title != "" {
		return n.Title
	}
	return n.ID
}

// SimEdge joins two node indices. A and B always differ.
type SimEdge struct {
	A, B   int
	Type   string
	Weight int
	Reason string
}

// Touches reports whether i is one of the edge's endpoints.
func (e SimEdge) Touches(i int) bool { return e.A == i || e.B == i }
