package graphs_test

import (
	"strings"

	"golang.org/x/net/html"

	. "github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/sim"
)

// runFrames generates a seeded graph, steps it n times and returns every frame a
// session would publish.
func runFrames(seed uint64, n int) []Frame {
	rnd := sim.NewSource(seed)
	g := sim.Generate(20, sim.Worm, rnd)
	series := sim.NewTimeSeries(g)
	frames := []Frame{{SessionID: "test", Reset: true, Strain: sim.Worm, Graph: g, Series: series.Clone()}}

	p := sim.Params{Strain: sim.Worm, Probability: 0.6}
	for i := 1; i <= n; i++ {
		next, count := sim.Step(g, p, rnd)
		var newly []int
		for id := range next.Nodes {
			if next.Nodes[id].Infected && !g.Nodes[id].Infected {
				newly = append(newly, id)
			}
		}
		series = series.Append(count)
		frames = append(frames, Frame{
			SessionID: "test", Step: i, Strain: sim.Worm,
			Graph: next, Series: series.Clone(), NewlyInfected: newly,
		})
		g = next
	}
	return frames
}

// collectText gets the text of every element with the given tag in a html document.
func collectText(n *html.Node, tag string) []string {
	var texts []string

	var visitNode func(*html.Node)
	visitNode = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			texts = append(texts, b.String())
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visitNode(c)
		}
	}

	visitNode(n)

	return texts
}
