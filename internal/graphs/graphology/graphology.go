package graphology

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/sim"
)

const (
	healthySize  = 4
	infectedSize = 6
)

// Graphology defines a CliGraphProvider that renders the latest frame as a serialized
// Graphology graph to a JSON file.
type Graphology struct {
	mu   *sync.Mutex
	dark bool
	last graphs.Frame
}

var _ graphs.CliGraphProvider = (*Graphology)(nil)

func NewGraphology(dark bool) *Graphology {
	return &Graphology{
		mu:   &sync.Mutex{},
		dark: dark,
	}
}

func (g *Graphology) Observe(f graphs.Frame) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = f
}

// Serialize converts a frame to a graphology graph. Edge keys are their index.
func Serialize(f graphs.Frame, dark bool) SerializedGraph {
	serialized := SerializedGraph{
		Attributes: GraphAttributes{Step: f.Step, Strain: f.Strain, Series: f.Series},
		Options:    GraphOptions{Type: "undirected"},
		Nodes:      make([]Node, 0, len(f.Graph.Nodes)),
		Edges:      make([]Edge, 0, len(f.Graph.Edges)),
	}
	if serialized.Attributes.Series == nil {
		serialized.Attributes.Series = sim.TimeSeries{}
	}

	for _, n := range f.Graph.Nodes {
		attributes := NodeAttributes{
			X: n.X, Y: n.Y, Size: healthySize,
			Label: strconv.Itoa(n.ID), Color: sim.HealthyColor(dark),
			Infected: n.Infected,
		}
		if n.Infected {
			attributes.Size = infectedSize
			attributes.Color = n.Strain.Color()
			attributes.Strain = n.Strain
		}
		serialized.Nodes = append(serialized.Nodes, Node{
			Key:        strconv.Itoa(n.ID),
			Attributes: attributes,
		})
	}

	for i, e := range f.Graph.Edges {
		serialized.Edges = append(serialized.Edges, Edge{
			Key:        strconv.Itoa(i),
			Source:     strconv.Itoa(e.Source),
			Target:     strconv.Itoa(e.Target),
			Attributes: EdgeAttributes{Size: 1},
		})
	}

	return serialized
}

func (g *Graphology) RenderToFile(filename string) error {
	filename = filename + ".json"

	g.mu.Lock()
	serialized := Serialize(g.last, g.dark)
	g.mu.Unlock()

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	marshalled, err := json.Marshal(serialized)
	if err != nil {
		return err
	}

	_, err = file.Write(marshalled)
	if err != nil {
		return err
	}

	return nil
}
