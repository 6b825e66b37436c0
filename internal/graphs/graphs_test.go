package graphs_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	. "github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/graphs/graphology"
	"github.com/psidex/malsim/internal/graphs/vis"
	"github.com/psidex/malsim/internal/sim"
)

func observeAll(p GraphProvider, frames []Frame) {
	for _, f := range frames {
		p.Observe(f)
	}
}

func TestEChartsRender(t *testing.T) {
	frames := runFrames(7, 5)
	e := NewECharts(false)
	observeAll(e, frames)

	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf))

	doc, err := html.Parse(&buf)
	require.NoError(t, err)

	titles := collectText(doc, "title")
	require.NotEmpty(t, titles)
	assert.Equal(t, "malsim results", titles[0])

	scripts := strings.Join(collectText(doc, "script"), "\n")
	assert.Contains(t, scripts, "Infection Spread Over Time")
	assert.Contains(t, scripts, sim.Worm.Color())
}

func TestEChartsRenderToFile(t *testing.T) {
	e := NewECharts(true)
	observeAll(e, runFrames(1, 2))

	base := filepath.Join(t.TempDir(), "report")
	require.NoError(t, e.RenderToFile(base))

	info, err := os.Stat(base + ".html")
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func TestExposureGraph(t *testing.T) {
	// 0-1-2 line, node 0 infected, then 1 then 2.
	g := sim.Graph{
		Nodes: []sim.Node{{ID: 0, Infected: true, Strain: sim.Virus}, {ID: 1}, {ID: 2}},
		Edges: []sim.Edge{{Source: 0, Target: 1}, {Source: 1, Target: 2}},
	}
	x := NewExposureGraph()
	x.Observe(Frame{Reset: true, Graph: g})

	g1 := g.Clone()
	g1.Nodes[1].Infected = true
	x.Observe(Frame{Step: 1, Graph: g1, NewlyInfected: []int{1}})

	g2 := g1.Clone()
	g2.Nodes[2].Infected = true
	x.Observe(Frame{Step: 2, Graph: g2, NewlyInfected: []int{2}})

	assert.Equal(t, []string{"0"}, x.Sources(1))
	assert.Equal(t, []string{"1"}, x.Sources(2))
	assert.Nil(t, x.Sources(0))

	base := filepath.Join(t.TempDir(), "exposure")
	require.NoError(t, x.RenderToFile(base))

	raw, err := os.ReadFile(base + ".json")
	require.NoError(t, err)

	var decoded map[string]struct {
		Step      int      `json:"step"`
		ExposedBy []string `json:"exposedBy"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, 0, decoded["0"].Step)
	assert.Empty(t, decoded["0"].ExposedBy)
	assert.Equal(t, 2, decoded["2"].Step)
	assert.Equal(t, []string{"1"}, decoded["2"].ExposedBy)
}

func TestExposureGraphResetClears(t *testing.T) {
	frames := runFrames(3, 4)
	x := NewExposureGraph()
	observeAll(x, frames)

	x.Observe(Frame{Reset: true, Graph: sim.Graph{Nodes: []sim.Node{{ID: 0, Infected: true}}}})
	for id := range frames[0].Graph.Nodes {
		assert.Nil(t, x.Sources(id))
	}
}

func TestExposureSourcesWereInfected(t *testing.T) {
	frames := runFrames(11, 10)
	x := NewExposureGraph()
	observeAll(x, frames)

	for i := 1; i < len(frames); i++ {
		prev := frames[i-1].Graph
		for _, id := range frames[i].NewlyInfected {
			sources := x.Sources(id)
			require.NotEmpty(t, sources, "node %d had no infected neighbour", id)
			for _, s := range sources {
				n, err := strconv.Atoi(s)
				require.NoError(t, err)
				assert.True(t, prev.Nodes[n].Infected)
			}
		}
	}
}

func TestVisReplay(t *testing.T) {
	frames := runFrames(5, 6)
	v := vis.NewVis(false)
	observeAll(v, frames)

	infections := 0
	for _, f := range frames[1:] {
		infections += len(f.NewlyInfected)
	}
	g := frames[0].Graph
	assert.Equal(t, len(g.Nodes)+len(g.Edges)+infections, v.Len())

	base := filepath.Join(t.TempDir(), "replay")
	require.NoError(t, v.RenderToFile(base))

	file, err := os.Open(base + ".html")
	require.NoError(t, err)
	defer file.Close()

	doc, err := html.Parse(file)
	require.NoError(t, err)

	scripts := strings.Join(collectText(doc, "script"), "\n")
	assert.Equal(t, len(g.Nodes), strings.Count(scripts, `"type":"node"`))
	assert.Equal(t, len(g.Edges), strings.Count(scripts, `"type":"edge"`))
	assert.Equal(t, infections, strings.Count(scripts, `"type":"infect"`))
}

func TestVisResetStartsNewReplay(t *testing.T) {
	v := vis.NewVis(true)
	observeAll(v, runFrames(5, 6))

	single := sim.Graph{Nodes: []sim.Node{{ID: 0, Infected: true, Strain: sim.Trojan}}}
	v.Observe(Frame{Reset: true, Graph: single})
	assert.Equal(t, 1, v.Len())
}

func TestGraphologySerialize(t *testing.T) {
	frames := runFrames(9, 3)
	last := frames[len(frames)-1]

	s := graphology.Serialize(last, false)
	assert.Equal(t, "undirected", s.Options.Type)
	assert.Equal(t, last.Step, s.Attributes.Step)
	require.Len(t, s.Nodes, len(last.Graph.Nodes))
	require.Len(t, s.Edges, len(last.Graph.Edges))

	for i, n := range last.Graph.Nodes {
		attrs := s.Nodes[i].Attributes
		assert.Equal(t, strconv.Itoa(n.ID), s.Nodes[i].Key)
		assert.Equal(t, n.X, attrs.X)
		assert.Equal(t, n.Infected, attrs.Infected)
		if n.Infected {
			assert.Equal(t, sim.Worm.Color(), attrs.Color)
		} else {
			assert.Equal(t, sim.HealthyColor(false), attrs.Color)
		}
	}
}

func TestGraphologyRenderToFile(t *testing.T) {
	g := graphology.NewGraphology(false)
	observeAll(g, runFrames(2, 2))

	base := filepath.Join(t.TempDir(), "graph")
	require.NoError(t, g.RenderToFile(base))

	raw, err := os.ReadFile(base + ".json")
	require.NoError(t, err)

	var decoded graphology.SerializedGraph
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 2, decoded.Attributes.Step)
	assert.Equal(t, sim.Worm, decoded.Attributes.Strain)
	assert.Len(t, decoded.Attributes.Series, 3)
	assert.Len(t, decoded.Nodes, 20)
}

func TestGraphologyEmptyFrame(t *testing.T) {
	s := graphology.Serialize(Frame{}, true)
	assert.NotNil(t, s.Nodes)
	assert.NotNil(t, s.Edges)
	assert.NotNil(t, s.Attributes.Series)
}
