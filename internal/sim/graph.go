package sim

import (
	"github.com/psidex/malsim/internal/frontier"
)

// Node is a host in the contact graph. Position and velocity change every tick,
// Infected and Strain only ever go from healthy to infected.
type Node struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Infected bool    `json:"infected"`
	Strain   Strain  `json:"strain"`
}

// Edge is an undirected contact between two distinct nodes.
type Edge struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Other returns the endpoint of e that is not id, and false if id is not an endpoint.
func (e Edge) Other(id int) (int, bool) {
	switch id {
	case e.Source:
		return e.Target, true
	case e.Target:
		return e.Source, true
	}
	return 0, false
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	c := Graph{}
	if g.Nodes != nil {
		c.Nodes = make([]Node, len(g.Nodes))
		copy(c.Nodes, g.Nodes)
	}
	if g.Edges != nil {
		c.Edges = make([]Edge, len(g.Edges))
		copy(c.Edges, g.Edges)
	}
	return c
}

func (g Graph) InfectedCount() int {
	count := 0
	for _, n := range g.Nodes {
		if n.Infected {
			count++
		}
	}
	return count
}

// FullyInfected reports the absorbing state. An empty graph is never fully infected.
func (g Graph) FullyInfected() bool {
	return len(g.Nodes) > 0 && g.InfectedCount() == len(g.Nodes)
}

// Neighbours returns adjacency lists indexed by node id, in edge order.
func (g Graph) Neighbours() [][]int {
	adjacency := make([][]int, len(g.Nodes))
	for _, e := range g.Edges {
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		adjacency[e.Target] = append(adjacency[e.Target], e.Source)
	}
	return adjacency
}

// Distances returns hop distances from origin, -1 for unreachable nodes.
func (g Graph) Distances(origin int) []int {
	return frontier.Distances(g.Neighbours(), origin)
}

// Diameter returns the longest shortest path in g and whether g is connected. For a
// disconnected graph the diameter of the reachable pairs is returned.
func (g Graph) Diameter() (diameter int, connected bool) {
	adjacency := g.Neighbours()
	connected = true
	for origin := range adjacency {
		for _, d := range frontier.Distances(adjacency, origin) {
			if d < 0 {
				connected = false
				continue
			}
			if d > diameter {
				diameter = d
			}
		}
	}
	return diameter, connected
}
