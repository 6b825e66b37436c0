package vis

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/sim"
)

// infectDelayMs is how long the replay waits after each infection.
const infectDelayMs = 150

// Vis defines a CliGraphProvider that renders to a HTML file which "replays" the run
// using vis.js. Nodes keep the positions they were generated with.
type Vis struct {
	mu    *sync.Mutex
	dark  bool
	items []string
}

var _ graphs.CliGraphProvider = (*Vis)(nil)

func NewVis(dark bool) *Vis {
	return &Vis{
		mu:   &sync.Mutex{},
		dark: dark,
	}
}

func (v *Vis) Observe(f graphs.Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if f.Reset {
		// A fresh graph starts a fresh replay.
		v.items = v.items[:0]
		for _, n := range f.Graph.Nodes {
			item := newNode()
			item.Data = nodeData{
				ID: n.ID, Label: fmt.Sprint(n.ID),
				X: n.X, Y: n.Y, Color: v.color(n),
			}
			v.add(item)
		}
		for _, e := range f.Graph.Edges {
			item := newEdge()
			item.Data = edgeData{From: e.Source, To: e.Target}
			v.add(item)
		}
		return
	}

	for _, id := range f.NewlyInfected {
		item := newInfect()
		item.Data = infectData{ID: id, Step: f.Step, Color: f.Strain.Color()}
		v.add(item)
	}
}

func (v *Vis) color(n sim.Node) string {
	if n.Infected {
		return n.Strain.Color()
	}
	return sim.HealthyColor(v.dark)
}

// add must be called with mu held.
func (v *Vis) add(item any) {
	b, err := json.Marshal(item)
	if err != nil {
		// For now, if we encounter an error, just abandon this item.
		return
	}
	v.items = append(v.items, string(b))
}

// Len returns the number of replay items recorded since the last reset.
func (v *Vis) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

func (v *Vis) background() string {
	if v.dark {
		return "#111827"
	}
	return "#FFFFFF"
}

func (v *Vis) RenderToFile(filename string) error {
	filename = filename + ".html"

	v.mu.Lock()
	defer v.mu.Unlock()

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	var output strings.Builder
	for _, item := range v.items {
		output.WriteString("\n")
		output.WriteString(item)
		output.WriteString(",")
	}

	_, err = fmt.Fprintf(file, html, v.background(), output.String(), infectDelayMs)
	if err != nil {
		return err
	}

	return nil
}
