package sim

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func strainGen() gopter.Gen {
	return gen.OneConstOf(Virus, Worm, Trojan)
}

// TestSimulationInvariants checks the generator and stepper invariants over random
// sizes, seeds, strains and probabilities.
func TestSimulationInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60

	properties := gopter.NewProperties(parameters)

	properties.Property("generate yields size nodes with only node 0 infected", prop.ForAll(
		func(size int, seed uint64, strain Strain) bool {
			g := Generate(size, strain, NewSource(seed))
			if len(g.Nodes) != size || g.InfectedCount() != 1 {
				return false
			}
			return g.Nodes[0].Infected && g.Nodes[0].Strain == strain
		},
		gen.IntRange(1, 60),
		gen.UInt64Range(1, 1<<40),
		strainGen(),
	))

	properties.Property("edges join distinct existing nodes without duplicates", prop.ForAll(
		func(size int, seed uint64) bool {
			g := Generate(size, Virus, NewSource(seed))
			seen := map[[2]int]bool{}
			for _, e := range g.Edges {
				if e.Source == e.Target {
					return false
				}
				if e.Source < 0 || e.Target < 0 || e.Source >= size || e.Target >= size {
					return false
				}
				k := [2]int{min(e.Source, e.Target), max(e.Source, e.Target)}
				if seen[k] {
					return false
				}
				seen[k] = true
			}
			return true
		},
		gen.IntRange(1, 60),
		gen.UInt64Range(1, 1<<40),
	))

	properties.Property("infected count is non-decreasing and bounded", prop.ForAll(
		func(size int, seed uint64, strain Strain, probability float64) bool {
			src := NewSource(seed)
			g := Generate(size, strain, src)
			p := Params{Strain: strain, Probability: probability}
			prev := g.InfectedCount()
			for i := 0; i < 40; i++ {
				var count int
				g, count = Step(g, p, src)
				if count < prev || count > size || count != g.InfectedCount() {
					return false
				}
				prev = count
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.UInt64Range(1, 1<<40),
		strainGen(),
		gen.Float64Range(0.1, 1.0),
	))

	properties.Property("fully infected graphs stay fully infected", prop.ForAll(
		func(size int, seed uint64) bool {
			src := NewSource(seed)
			g := Generate(size, Worm, src)
			for i := range g.Nodes {
				g.Nodes[i].Infected = true
				g.Nodes[i].Strain = Worm
			}
			for i := 0; i < 10; i++ {
				var count int
				g, count = Step(g, Params{Strain: Worm, Probability: 1}, src)
				if count != size {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.UInt64Range(1, 1<<40),
	))

	properties.Property("certain infection saturates a connected graph within its diameter", prop.ForAll(
		func(size int, seed uint64) bool {
			src := NewSource(seed)
			g := Generate(size, Worm, src)
			diameter, connected := g.Diameter()
			if !connected {
				return true
			}
			// Infection spreads exactly one hop per tick, so the seed's eccentricity
			// is the number of ticks needed.
			eccentricity := 0
			for _, d := range g.Distances(0) {
				eccentricity = max(eccentricity, d)
			}
			count := g.InfectedCount()
			for tick := 1; tick <= diameter; tick++ {
				g, count = Step(g, Params{Strain: Worm, Probability: 1}, src)
				if tick < eccentricity && count == size {
					return false
				}
			}
			return count == size
		},
		gen.IntRange(1, 50),
		gen.UInt64Range(1, 1<<40),
	))

	properties.TestingRun(t)
}

func TestZeroProbabilityStaysFlat(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("probability 0 keeps the seed as the only infection", prop.ForAll(
		func(size int, seed uint64, strain Strain) bool {
			src := NewSource(seed)
			g := Generate(size, strain, src)
			for i := 0; i < 100; i++ {
				var count int
				g, count = Step(g, Params{Strain: strain, Probability: 0}, src)
				if count != 1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 50),
		gen.UInt64Range(1, 1<<40),
		strainGen(),
	))

	properties.TestingRun(t)
}
