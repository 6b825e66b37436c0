package sim

// scriptedSource replays fixed draws so tests can steer individual attempts. It
// panics when a test consumes more draws than it scripted.
type scriptedSource struct {
	floats []float64
	ints   []int
}

func (s *scriptedSource) Float64() float64 {
	f := s.floats[0]
	s.floats = s.floats[1:]
	return f
}

func (s *scriptedSource) IntN(n int) int {
	i := s.ints[0] % n
	s.ints = s.ints[1:]
	return i
}

// constSource always returns the same draw.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }
func (c constSource) IntN(n int) int   { return int(float64(c) * float64(n)) }

// pair is a two node graph joined by one edge with node 0 infected.
func pair(strain Strain) Graph {
	return Graph{
		Nodes: []Node{
			{ID: 0, X: 100, Y: 100, Infected: true, Strain: strain},
			{ID: 1, X: 200, Y: 200},
		},
		Edges: []Edge{{Source: 0, Target: 1}},
	}
}

// line is a path graph 0-1-...-(n-1) with node 0 infected.
func line(n int, strain Strain) Graph {
	g := Graph{Nodes: make([]Node, n)}
	for i := range g.Nodes {
		g.Nodes[i] = Node{ID: i, X: 300, Y: 300}
		if i > 0 {
			g.Edges = append(g.Edges, Edge{Source: i - 1, Target: i})
		}
	}
	g.Nodes[0].Infected = true
	g.Nodes[0].Strain = strain
	return g
}
