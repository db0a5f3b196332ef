package web

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

// defectStroke is defectColor as the SVG backend writes it.
const defectStroke = "#D03030"

func TestHistogramSVG(t *testing.T) {
	cmp := &spinglass.ComparisonResult{
		Systems: [2]spinglass.SystemResult{{Solver: "Advantage<&>"}, {Solver: "Advantage2_test"}},
		Histogram: spinglass.Histogram{
			Dividers: []float64{-3, -2, -1},
			Counts:   [2][]float64{{1, 2}, {0, 3}},
		},
		BestEnergy: -3,
	}

	svg, err := histogramSVG(cmp)
	require.NoError(t, err)

	out := string(svg)
	assert.True(t, strings.HasPrefix(out, `<svg class="histogram" `), "inline markup starts at the svg element")
	assert.NotContains(t, out, "<?xml")
	assert.Contains(t, out, "Advantage&lt;&amp;&gt;", "solver names are escaped")
	assert.Contains(t, out, "Advantage2_test")
	assert.Contains(t, out, "best -3.00")
	assert.Contains(t, out, "Energy")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestHistogramSVG_EmptyDrawsNothing(t *testing.T) {
	svg, err := histogramSVG(&spinglass.ComparisonResult{})
	require.NoError(t, err)
	assert.Empty(t, svg)
}

func TestChimeraSVG(t *testing.T) {
	in := perfectIntersection(t)

	svg, err := chimeraSVG(in.Intersection)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(svg), `<svg class="layout" `))
	assert.Contains(t, string(svg), "C2 intersection")

	svg, err = chimeraSVG(nil)
	require.NoError(t, err)
	assert.Empty(t, svg)
}

func TestPlacementSVG_MarksDefectsThroughMapping(t *testing.T) {
	in := perfectIntersection(t)
	hw := in.hardware[0]

	// GIVEN a placement on a system with every qubit and coupler working
	fig, err := placementSVG(in.Intersection, hw, 0)
	require.NoError(t, err)
	assert.Equal(t, hw.Solver, fig.Solver)
	assert.Equal(t, in.Mappings[hw.Solver].Label, fig.Label)
	assert.True(t, strings.HasPrefix(string(fig.SVG), `<svg class="placement" `))
	assert.NotContains(t, string(fig.SVG), defectStroke)

	// WHEN the hardware coupler behind one source coupler breaks
	m := in.Mappings[hw.Solver]
	first := topology.Chimera(in.Size, in.Size, in.Tile).Edges()[0]
	broken := topology.NewEdge(m.Map(first.U), m.Map(first.V))
	var kept []topology.Edge
	for _, e := range hw.Graph.Edges() {
		if e != broken {
			kept = append(kept, e)
		}
	}
	damaged := &topology.Hardware{Solver: hw.Solver, Family: hw.Family, Shape: hw.Shape, Graph: hw.Graph.EdgeSubgraph(kept)}

	// THEN the overlay draws it as a defect
	fig, err = placementSVG(in.Intersection, damaged, 0)
	require.NoError(t, err)
	assert.Contains(t, string(fig.SVG), defectStroke)
}

func TestPlacementSVG_UnknownSolver(t *testing.T) {
	in := perfectIntersection(t)
	stranger := &topology.Hardware{Solver: "elsewhere", Graph: in.hardware[0].Graph}

	_, err := placementSVG(in.Intersection, stranger, 1)
	assert.ErrorContains(t, err, "no mapping for elsewhere")
}

type intersectionFixture struct {
	*topology.Intersection
	hardware [2]*topology.Hardware
}

func perfectIntersection(t *testing.T) intersectionFixture {
	t.Helper()
	peg, err := topology.Synthesize("Advantage_test", topology.FamilyPegasus, []int{4}, topology.Defects{}, 1)
	require.NoError(t, err)
	zep, err := topology.Synthesize("Advantage2_test", topology.FamilyZephyr, []int{1, 4}, topology.Defects{}, 2)
	require.NoError(t, err)
	in, err := topology.Intersect(peg, zep)
	require.NoError(t, err)
	require.Equal(t, 2, in.Size)
	return intersectionFixture{Intersection: in, hardware: [2]*topology.Hardware{peg, zep}}
}
