package sim

import (
	. "github.com/psidex/malsim/internal/lib"
)

// Rect is an axis aligned box in canvas coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Canvas describes the drawing surface the simulation moves nodes around on.
type Canvas struct {
	Width, Height float64
	// Spawn is where generated nodes are placed.
	Spawn Rect
	// Walls reflect node velocity when a node ends a tick outside them.
	Walls Rect
	// MaxSpeed bounds each velocity component at generation.
	MaxSpeed float64
}

var DefaultCanvas = Canvas{
	Width:    700,
	Height:   500,
	Spawn:    Rect{MinX: 50, MinY: 50, MaxX: 650, MaxY: 450},
	Walls:    Rect{MinX: 30, MinY: 30, MaxX: 670, MaxY: 470},
	MaxSpeed: 0.25,
}

const (
	minConnections = 1
	maxConnections = 3
)

// Generate builds a random contact graph of size nodes on DefaultCanvas. Node 0 is the
// seed and starts infected with strain.
func Generate(size int, strain Strain, src Source) Graph {
	return DefaultCanvas.Generate(size, strain, src)
}

// Generate builds a random contact graph of size nodes on c. Every node makes between
// one and three connection attempts to a uniformly chosen other node; attempts that
// would duplicate an existing pair in either orientation are dropped.
func (c Canvas) Generate(size int, strain Strain, src Source) Graph {
	if size <= 0 {
		return Graph{Nodes: []Node{}, Edges: []Edge{}}
	}

	nodes := make([]Node, size)
	for i := range nodes {
		nodes[i] = Node{
			ID: i,
			X:  c.Spawn.MinX + src.Float64()*(c.Spawn.MaxX-c.Spawn.MinX),
			Y:  c.Spawn.MinY + src.Float64()*(c.Spawn.MaxY-c.Spawn.MinY),
			VX: (src.Float64() - 0.5) * 2 * c.MaxSpeed,
			VY: (src.Float64() - 0.5) * 2 * c.MaxSpeed,
		}
	}
	nodes[0].Infected = true
	nodes[0].Strain = strain

	edges := []Edge{}
	if size == 1 {
		return Graph{Nodes: nodes, Edges: edges}
	}

	seen := NewSet[Edge]()
	for i := 0; i < size; i++ {
		attempts := minConnections + src.IntN(maxConnections-minConnections+1)
		for j := 0; j < attempts; j++ {
			// Draw from the size-1 other ids and shift past i.
			target := src.IntN(size - 1)
			if target >= i {
				target++
			}

			edge := Edge{Source: i, Target: target}
			inverse := Edge{Source: target, Target: i}
			if seen.Contains(edge) || seen.Contains(inverse) {
				continue
			}
			seen.Add(edge)
			edges = append(edges, edge)
		}
	}

	return Graph{Nodes: nodes, Edges: edges}
}
