package sim

// Params are the per-tick infection settings.
type Params struct {
	Strain Strain
	// Probability is the base chance of an infected node infecting a healthy neighbour.
	Probability float64
	// Multiplier scales Probability by strain. DefaultMultiplier is used when nil.
	Multiplier func(Strain) float64
}

// Chance is the per-attempt infection probability. Values of 1 or more always infect.
func (p Params) Chance() float64 {
	mult := p.Multiplier
	if mult == nil {
		mult = DefaultMultiplier
	}
	return p.Probability * mult(p.Strain)
}

// Step advances g by one tick on DefaultCanvas.
func Step(g Graph, p Params, rnd Source) (Graph, int) {
	return DefaultCanvas.Step(g, p, rnd)
}

// Step advances g by one tick and returns the new graph and its infected count. g is
// not modified.
//
// Infection attempts only originate from nodes that were infected before the tick and
// only target nodes that were healthy before the tick. All successes are applied
// together once every edge has been evaluated, so an infection spreads at most one hop
// per tick. Every attempt consumes one draw from rnd, in edge order.
func (c Canvas) Step(g Graph, p Params, rnd Source) (Graph, int) {
	next := g.Clone()

	if chance := p.Chance(); chance > 0 {
		hit := make([]bool, len(g.Nodes))
		for _, e := range g.Edges {
			// An edge carries an attempt only when exactly one endpoint is infected.
			from, to := e.Source, e.Target
			if g.Nodes[to].Infected {
				from, to = to, from
			}
			if !g.Nodes[from].Infected || g.Nodes[to].Infected {
				continue
			}
			if rnd.Float64() < chance {
				hit[to] = true
			}
		}
		for id, h := range hit {
			if h {
				next.Nodes[id].Infected = true
				next.Nodes[id].Strain = p.Strain
			}
		}
	}

	for i := range next.Nodes {
		c.move(&next.Nodes[i])
	}

	return next, next.InfectedCount()
}

// move applies one tick of velocity and flips the velocity component of any axis on
// which the node left the walls. The position itself is not clamped.
func (c Canvas) move(n *Node) {
	n.X += n.VX
	n.Y += n.VY
	if n.X < c.Walls.MinX || n.X > c.Walls.MaxX {
		n.VX = -n.VX
	}
	if n.Y < c.Walls.MinY || n.Y > c.Walls.MaxY {
		n.VY = -n.VY
	}
}
