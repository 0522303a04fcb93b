package forcegraph

import "math"

// Tick advances the simulation by one step with the given damping.
// It does nothing on an empty graph.
func (e *Engine) Tick(damping float64) {
	nodes := e.nodes
	if len(nodes) == 0 {
		return
	}

	for i := range nodes {
		nodes[i].Force = Point{}
	}

	// Repulsion between all pairs.
	for i := 0; i < len(nodes); i++ {
		a := &nodes[i]
		for j := i + 1; j < len(nodes); j++ {
			b := &nodes[j]
			d := a.Pos.Sub(b.Pos)
			dist := d.Len() + Regularisation
			f := d.Scale(Repulsion / (dist * dist) / dist)
			a.Force = a.Force.Add(f)
			b.Force = b.Force.Sub(f)
		}
	}

	// Springs along edges; heavier edges rest shorter.
	base := e.baseDistance()
	for _, ed := range e.edges {
		a, b := &nodes[ed.A], &nodes[ed.B]
		w := float64(ed.Weight)
		d := b.Pos.Sub(a.Pos)
		dist := d.Len() + Regularisation
		rest := base * (1 - SpringShrink*(w-3))
		f := d.Scale(SpringStiffness * w * (dist - rest) / dist)
		a.Force = a.Force.Add(f)
		b.Force = b.Force.Sub(f)
	}

	c := e.centre()
	for i := range nodes {
		n := &nodes[i]
		n.Force = n.Force.Add(c.Sub(n.Pos).Scale(Gravity))
	}

	for i := range nodes {
		n := &nodes[i]
		if n.Fixed {
			n.Vel = Point{}
		} else {
			n.Vel = n.Vel.Add(n.Force).Scale(damping)
			n.Pos = n.Pos.Add(n.Vel)
		}
		n.Pos = e.clampPoint(n.Pos)
	}
}

// baseDistance is the rest length of a weight-3 edge.
func (e *Engine) baseDistance() float64 {
	return clamp(0.18*math.Min(e.width, e.height), 80, 180)
}

// KineticEnergy returns the sum of squared node velocities.
func (e *Engine) KineticEnergy() float64 {
	var sum float64
	for _, n := range e.nodes {
		sum += n.Vel.X*n.Vel.X + n.Vel.Y*n.Vel.Y
	}
	return sum
}
