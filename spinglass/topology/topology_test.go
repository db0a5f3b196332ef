package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChimera_CountsMatchLattice(t *testing.T) {
	g := Chimera(2, 3, 4)
	// 2*3 cells * 8 qubits
	assert.Equal(t, 48, g.NumNodes())
	// internal 16 per cell, vertical (m-1)*n*t, horizontal m*(n-1)*t
	assert.Equal(t, 6*16+1*3*4+2*2*4, g.NumEdges())
}

func TestChimeraShape_LinearRoundTrip(t *testing.T) {
	s := ChimeraShape{M: 3, N: 5, T: 4}
	for q := 0; q < s.NumQubits(); q++ {
		require.Equal(t, q, s.Linear(s.Coord(q)))
	}
}

func TestPegasusShape_LinearRoundTrip(t *testing.T) {
	s := PegasusShape{M: 4}
	for q := 0; q < s.NumQubits(); q++ {
		require.Equal(t, q, s.Linear(s.Coord(q)))
	}
}

func TestZephyrShape_LinearRoundTrip(t *testing.T) {
	s := ZephyrShape{M: 3, T: 4}
	for q := 0; q < s.NumQubits(); q++ {
		require.Equal(t, q, s.Linear(s.Coord(q)))
	}
}

func TestZephyr_InteriorDegree(t *testing.T) {
	// GIVEN a Zephyr lattice large enough to have interior qubits
	s := ZephyrShape{M: 4, T: 4}
	g := Zephyr(s.M, s.T)

	// THEN an interior qubit has 16 internal, 2 external and 2 odd couplers
	q := s.Linear(ZephyrCoord{U: 0, W: 4, K: 1, J: 0, Z: 1})
	assert.Equal(t, 20, g.Degree(q))
}

func TestPlacements_FullYieldOnPerfectLattice(t *testing.T) {
	tests := []struct {
		name   string
		family Family
		shape  []int
		src    int
		count  int
	}{
		{"chimera", FamilyChimera, []int{4, 4, 4}, 3, 4},
		{"pegasus", FamilyPegasus, []int{4}, 3, 3},
		{"pegasus smaller source", FamilyPegasus, []int{4}, 2, 12},
		{"zephyr", FamilyZephyr, []int{2, 4}, 4, 1},
		{"zephyr smaller source", FamilyZephyr, []int{2, 4}, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perfect, err := PerfectGraph(tt.family, tt.shape)
			require.NoError(t, err)
			hw := &Hardware{Solver: tt.name, Family: tt.family, Shape: tt.shape, Graph: perfect}
			source := Chimera(tt.src, tt.src, hw.Tile())

			placements := hw.Placements(tt.src)
			require.Len(t, placements, tt.count)
			for _, m := range placements {
				edges := CouplerYield(source, perfect, m)
				assert.Equal(t, source.NumEdges(), len(edges), "placement %s", m.Label)

				relabelled, err := source.Relabel(m)
				require.NoError(t, err, "placement %s must be injective", m.Label)
				for _, n := range relabelled.Nodes() {
					assert.Less(t, n, LabelCount(tt.family, tt.shape))
				}
			}
		})
	}
}

func TestPegasusSublattices_AreDisjoint(t *testing.T) {
	hw := &Hardware{Solver: "p", Family: FamilyPegasus, Shape: []int{4}}
	source := Chimera(3, 3, 4)
	seen := make(map[int]string)
	for _, m := range hw.Placements(3) {
		for _, n := range source.Nodes() {
			q := m.Map(n)
			if prev, ok := seen[q]; ok {
				t.Fatalf("qubit %d used by %s and %s", q, prev, m.Label)
			}
			seen[q] = m.Label
		}
	}
}

func TestSelectPlacement_PicksHighestYield(t *testing.T) {
	// GIVEN a chimera target where the first placement has a broken coupler
	target := ChimeraShape{M: 1, N: 2, T: 2}
	perfect := Chimera(1, 2, 2)
	broken := NewEdge(target.Linear(ChimeraCoord{0, 0, 0, 0}), target.Linear(ChimeraCoord{0, 0, 1, 0}))
	var edges []Edge
	for _, e := range perfect.Edges() {
		if e != broken {
			edges = append(edges, e)
		}
	}
	hw := &Hardware{Solver: "c", Family: FamilyChimera, Shape: []int{1, 2, 2}, Graph: NewGraph(nil, edges)}

	// WHEN a single cell is placed
	sel, err := SelectPlacement(Chimera(1, 1, 2), hw, hw.Placements(1))
	require.NoError(t, err)

	// THEN the second (defect-free) cell wins
	assert.Equal(t, 1, sel.Mapping.Index)
	assert.Equal(t, 4, sel.Yield.Couplers)
	assert.InDelta(t, 1.0, sel.Yield.CouplerYield, 1e-12)
}

func TestSelectPlacement_TieKeepsLowestIndex(t *testing.T) {
	hw := &Hardware{Solver: "c", Family: FamilyChimera, Shape: []int{2, 2, 4}, Graph: Chimera(2, 2, 4)}
	sel, err := SelectPlacement(Chimera(1, 1, 4), hw, hw.Placements(1))
	require.NoError(t, err)
	assert.Equal(t, 0, sel.Mapping.Index)
	assert.Equal(t, 4, sel.Yield.Candidates)
}

func TestSelectPlacement_EmptyGraph(t *testing.T) {
	hw := &Hardware{Solver: "empty", Family: FamilyChimera, Shape: []int{1, 1, 4}, Graph: NewGraph(nil, nil)}
	_, err := SelectPlacement(Chimera(1, 1, 4), hw, hw.Placements(1))
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestIntersect_PegasusAndZephyr(t *testing.T) {
	// GIVEN a Pegasus(4) and a Zephyr(1) system: intersection is min(3, 2) = 2
	peg, err := Synthesize("Advantage_test", FamilyPegasus, []int{4}, Defects{Couplers: 0.02}, 1)
	require.NoError(t, err)
	zep, err := Synthesize("Advantage2_test", FamilyZephyr, []int{1, 4}, Defects{Couplers: 0.02}, 2)
	require.NoError(t, err)

	in, err := Intersect(peg, zep)
	require.NoError(t, err)

	assert.Equal(t, 2, in.Size)
	assert.Len(t, in.Yields, 2)

	// THEN every intersection coupler is a working coupler on both systems
	for _, hw := range []*Hardware{peg, zep} {
		m := in.Mappings[hw.Solver]
		for _, e := range in.Graph.Edges() {
			assert.True(t, hw.Graph.HasEdge(m.Map(e.U), m.Map(e.V)), "%s missing %v", hw.Solver, e)
		}
	}
}

func TestIntersect_Deterministic(t *testing.T) {
	a, err := Synthesize("a", FamilyPegasus, []int{4}, Defects{Qubits: 0.05, Couplers: 0.05}, 7)
	require.NoError(t, err)
	b, err := Synthesize("b", FamilyZephyr, []int{2, 4}, Defects{Qubits: 0.05, Couplers: 0.05}, 8)
	require.NoError(t, err)

	first, err := Intersect(a, b)
	require.NoError(t, err)
	second, err := Intersect(a, b)
	require.NoError(t, err)

	assert.Equal(t, first.Graph.Edges(), second.Graph.Edges())
	assert.Equal(t, first.Yields, second.Yields)
}

func TestIntersect_TileMismatch(t *testing.T) {
	a := &Hardware{Solver: "a", Family: FamilyPegasus, Shape: []int{4}, Graph: Pegasus(4)}
	b := &Hardware{Solver: "b", Family: FamilyChimera, Shape: []int{2, 2, 2}, Graph: Chimera(2, 2, 2)}
	_, err := Intersect(a, b)
	assert.ErrorIs(t, err, ErrTileMismatch)
}

func TestSynthesize_RejectsBadFractions(t *testing.T) {
	_, err := Synthesize("x", FamilyPegasus, []int{4}, Defects{Qubits: 1}, 1)
	assert.Error(t, err)
}

func TestGraph_EdgeSubgraphDropsIsolatedNodes(t *testing.T) {
	g := NewGraph([]int{0, 1, 2, 3}, []Edge{{0, 1}, {1, 2}, {2, 3}})
	sub := g.EdgeSubgraph([]Edge{{0, 1}, {5, 6}})
	assert.Equal(t, []int{0, 1}, sub.Nodes())
	assert.Equal(t, 1, sub.NumEdges())
}
