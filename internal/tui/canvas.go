package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/psidex/malsim/internal/sim"
)

const (
	healthyGlyph  = 'o'
	infectedGlyph = '@'
	edgeGlyph     = '.'
)

// cell is one character of the canvas. strain is None unless an infected node
// occupies it.
type cell struct {
	r      rune
	strain sim.Strain
}

// rasterise draws a graph onto a cols x rows character grid covering the simulation
// canvas. Later nodes overwrite earlier ones and nodes always overwrite edges.
func rasterise(g sim.Graph, bounds sim.Canvas, cols, rows int) [][]cell {
	grid := make([][]cell, rows)
	for y := range grid {
		grid[y] = make([]cell, cols)
		for x := range grid[y] {
			grid[y][x] = cell{r: ' '}
		}
	}
	if cols == 0 || rows == 0 {
		return grid
	}

	project := func(n sim.Node) (int, int) {
		x := int(math.Floor(n.X / bounds.Width * float64(cols)))
		y := int(math.Floor(n.Y / bounds.Height * float64(rows)))
		return clamp(x, 0, cols-1), clamp(y, 0, rows-1)
	}

	for _, e := range g.Edges {
		x0, y0 := project(g.Nodes[e.Source])
		x1, y1 := project(g.Nodes[e.Target])
		steps := max(abs(x1-x0), abs(y1-y0))
		for i := 1; i < steps; i++ {
			x := x0 + (x1-x0)*i/steps
			y := y0 + (y1-y0)*i/steps
			grid[y][x] = cell{r: edgeGlyph}
		}
	}

	for _, n := range g.Nodes {
		x, y := project(n)
		if n.Infected {
			grid[y][x] = cell{r: infectedGlyph, strain: n.Strain}
		} else if grid[y][x].r != infectedGlyph {
			grid[y][x] = cell{r: healthyGlyph}
		}
	}

	return grid
}

// renderCanvas colours a canvas grid for the terminal.
func renderCanvas(grid [][]cell, dark bool) string {
	healthy := lipgloss.NewStyle().Foreground(lipgloss.Color(sim.HealthyColor(dark)))
	edge := lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	infected := map[sim.Strain]lipgloss.Style{}
	for _, s := range sim.Strains {
		infected[s] = lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color())).Bold(true)
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			switch c.r {
			case infectedGlyph:
				b.WriteString(infected[c.strain].Render(string(c.r)))
			case healthyGlyph:
				b.WriteString(healthy.Render(string(c.r)))
			case edgeGlyph:
				b.WriteString(edge.Render(string(c.r)))
			default:
				b.WriteRune(c.r)
			}
		}
	}
	return b.String()
}

// plain renders a canvas grid without colour.
func plain(grid [][]cell) string {
	lines := make([]string, len(grid))
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			b.WriteRune(c.r)
		}
		lines[y] = b.String()
	}
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
