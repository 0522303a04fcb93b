package forcegraph

import (
	"math"

	"github.com/ha1tch/relgraph/pkg/graphdoc"
	"go.uber.org/zap"
)

// SetGraph replaces the whole graph with the contents of doc. Invalid nodes
// and edges are dropped, positions are seeded on a circle and warmed up so
// the first frame is already arranged, then the animation loop starts.
// Hover and drag state is cleared.
func (e *Engine) SetGraph(doc *graphdoc.Document) {
	if e.closed {
		return
	}
	norm, rep := graphdoc.Normalize(doc)

	nodes := make([]SimNode, len(norm.Nodes))
	index := make(map[string]int, len(norm.Nodes))
	for i, n := range norm.Nodes {
		nodes[i] = SimNode{
			ID:      n.ID,
			Title:   n.Title,
			Authors: n.Authors,
			Year:    n.Year,
			Tags:    n.Tags,
			Summary: n.Summary,
		}
		index[n.ID] = i
	}

	edges := make([]SimEdge, 0, len(norm.Edges))
	for _, ed := range norm.Edges {
		a, b := index[ed.Source], index[ed.Target]
		edges = append(edges, SimEdge{A: a, B: b, Type: ed.Type, Weight: ed.Weight, Reason: ed.Reason})
		nodes[a].Degree++
		nodes[b].Degree++
	}

	owner := make(map[string]int)
	for ci, c := range norm.Clusters {
		for _, id := range c.NodeIDs {
			if _, ok := owner[id]; !ok {
				owner[id] = ci
			}
		}
	}

	for i := range nodes {
		n := &nodes[i]
		n.Radius = NodeRadius(n.Degree)
		cluster, ok := owner[n.ID]
		if !ok {
			cluster = -1
		}
		n.Colour = NodeColour(cluster, n.Tags, n.Title)
	}

	e.hideTooltip()
	e.nodes, e.edges, e.index = nodes, edges, index
	e.report = rep
	e.hovered, e.dragging, e.moved = -1, -1, false
	e.seed()

	warm := WarmupTicks(len(nodes))
	for i := 0; i < warm; i++ {
		e.Tick(WarmupDamping)
	}

	e.log.Debug("graph built",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)),
		zap.Int("clusters", len(norm.Clusters)),
		zap.Int("dropped", rep.Dropped()),
		zap.Int("warmup", warm))

	e.Draw()
	if len(nodes) == 0 {
		e.Stop()
		return
	}
	e.restart()
}

// NodeRadius maps a degree to a radius in [MinRadius, MaxRadius].
func NodeRadius(degree int) float64 {
	return clamp(MinRadius+1.2*float64(degree), MinRadius, MaxRadius)
}

// WarmupTicks is the number of synchronous ticks run after a build.
func WarmupTicks(n int) int {
	if n == 0 {
		return 0
	}
	return min(MaxWarmup, 80+6*n)
}

// seed places nodes on a circle around the centre with a little jitter.
func (e *Engine) seed() {
	n := len(e.nodes)
	c := e.centre()
	r := math.Max(120, 0.32*math.Min(e.width, e.height))
	for i := range e.nodes {
		angle := 2 * math.Pi * float64(i) / float64(n)
		p := Point{
			X: c.X + r*math.Cos(angle) + e.jitter(),
			Y: c.Y + r*math.Sin(angle) + e.jitter(),
		}
		e.nodes[i].Pos = e.clampPoint(p)
		e.nodes[i].Vel = Point{}
		e.nodes[i].Force = Point{}
		e.nodes[i].Fixed = false
	}
}

func (e *Engine) jitter() float64 {
	return (e.rnd.Float64()*2 - 1) * SeedJitter
}
