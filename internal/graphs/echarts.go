package graphs

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/psidex/malsim/internal/sim"
)

// ECharts defines a CliGraphProvider that renders a go-echarts HTML report: the
// contact graph as of the latest frame and the infection line chart.
type ECharts struct {
	mu   *sync.Mutex
	dark bool
	last Frame
}

var _ CliGraphProvider = (*ECharts)(nil)

func NewECharts(dark bool) *ECharts {
	return &ECharts{
		mu:   &sync.Mutex{},
		dark: dark,
	}
}

func (e *ECharts) Observe(f Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = f
}

// Render writes the report page to w.
func (e *ECharts) Render(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	page := components.NewPage()
	page.PageTitle = "malsim results"
	page.AddCharts(
		e.graphBase(),
		e.seriesBase(),
	)
	return page.Render(w)
}

func (e *ECharts) RenderToFile(filename string) error {
	filename = filename + ".html"

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return e.Render(f)
}

func (e *ECharts) initOpts() charts.GlobalOpts {
	init := opts.Initialization{
		PageTitle: "malsim results",
		Width:     fmt.Sprintf("%dpx", int(sim.DefaultCanvas.Width)),
		Height:    fmt.Sprintf("%dpx", int(sim.DefaultCanvas.Height)),
		Theme:     types.ThemeWesteros,
	}
	if e.dark {
		init.Theme = types.ThemeChalk
	}
	return charts.WithInitializationOpts(init)
}

// graphBase must be called with mu held.
func (e *ECharts) graphBase() *charts.Graph {
	nodes := make([]opts.GraphNode, 0, len(e.last.Graph.Nodes))
	for _, n := range e.last.Graph.Nodes {
		color := sim.HealthyColor(e.dark)
		if n.Infected {
			color = n.Strain.Color()
		}
		nodes = append(nodes, opts.GraphNode{
			Name:       strconv.Itoa(n.ID),
			X:          float32(n.X),
			Y:          float32(n.Y),
			SymbolSize: 16,
			ItemStyle:  &opts.ItemStyle{Color: color},
		})
	}

	links := make([]opts.GraphLink, 0, len(e.last.Graph.Edges))
	for _, edge := range e.last.Graph.Edges {
		links = append(links, opts.GraphLink{
			Source: strconv.Itoa(edge.Source),
			Target: strconv.Itoa(edge.Target),
		})
	}

	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		e.initOpts(),
		charts.WithTitleOpts(opts.Title{
			Title: "Network",
			Subtitle: fmt.Sprintf("%s, step %d, %d / %d infected",
				e.last.Strain, e.last.Step, e.last.Graph.InfectedCount(), len(e.last.Graph.Nodes)),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	graph.AddSeries(
		"network",
		nodes,
		links,
		charts.WithGraphChartOpts(
			opts.GraphChart{
				// Positions come from the simulation, not a force layout.
				Layout: "none",
				Roam:   opts.Bool(true),
			},
		),
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	return graph
}

// seriesBase must be called with mu held.
func (e *ECharts) seriesBase() *charts.Line {
	steps := make([]int, 0, len(e.last.Series))
	data := make([]opts.LineData, 0, len(e.last.Series))
	for _, s := range e.last.Series {
		steps = append(steps, s.Step)
		data = append(data, opts.LineData{Value: s.Infected})
	}

	color := e.last.Strain.Color()

	line := charts.NewLine()
	line.SetGlobalOptions(
		e.initOpts(),
		charts.WithTitleOpts(opts.Title{
			Title: "Infection Spread Over Time",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Step",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Infected",
		}),
	)
	line.SetXAxis(steps).AddSeries(
		"infected",
		data,
		charts.WithLineStyleOpts(opts.LineStyle{
			Color: color,
			Width: 3,
		}),
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color: color,
		}),
	)
	return line
}
