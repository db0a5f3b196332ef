package topology

import "strconv"

// Pegasus qubits are addressed as (u, w, k, z): orientation u, perpendicular
// offset w in [0, m), track k in [0, 12) and parallel offset z in [0, m-1).

// Internal coupler offsets for the standard Pegasus fabric.
var (
	pegasusVerticalOffsets   = [12]int{2, 2, 2, 2, 10, 10, 10, 10, 6, 6, 6, 6}
	pegasusHorizontalOffsets = [12]int{6, 6, 6, 6, 2, 2, 2, 2, 10, 10, 10, 10}
)

// PegasusCoord addresses one Pegasus qubit.
type PegasusCoord struct {
	U, W, K, Z int
}

// PegasusShape is a Pegasus lattice of size M.
type PegasusShape struct {
	M int
}

// NumQubits returns the number of qubit labels, working or not.
func (s PegasusShape) NumQubits() int { return 24 * s.M * (s.M - 1) }

// Linear converts a coordinate into its integer label.
func (s PegasusShape) Linear(c PegasusCoord) int {
	return ((c.U*s.M+c.W)*12+c.K)*(s.M-1) + c.Z
}

// Coord converts an integer label back into a coordinate.
func (s PegasusShape) Coord(q int) PegasusCoord {
	z := q % (s.M - 1)
	q /= s.M - 1
	k := q % 12
	q /= 12
	return PegasusCoord{U: q / s.M, W: q % s.M, K: k, Z: z}
}

// Pegasus builds the fabric of a perfect Pegasus lattice of size m.
func Pegasus(m int) *Graph {
	s := PegasusShape{M: m}
	q := func(u, w, k, z int) int { return s.Linear(PegasusCoord{u, w, k, z}) }

	var edges []Edge
	for u := 0; u < 2; u++ {
		for w := 0; w < m; w++ {
			for k := 0; k < 12; k++ {
				for z := 0; z+1 < m-1; z++ {
					edges = append(edges, NewEdge(q(u, w, k, z), q(u, w, k, z+1)))
				}
			}
			for j := 0; j < 6; j++ {
				for z := 0; z < m-1; z++ {
					edges = append(edges, NewEdge(q(u, w, 2*j, z), q(u, w, 2*j+1, z)))
				}
			}
		}
	}

	// A vertical qubit (0, w, k, z) crosses the horizontal qubit on track kk
	// whose offsets place it over column w.
	for w := 0; w < m; w++ {
		for kk := 0; kk < 12; kk++ {
			lo, hi := 0, 12
			if w == 0 {
				lo = pegasusHorizontalOffsets[kk]
			}
			if w == m-1 {
				hi = pegasusHorizontalOffsets[kk]
			}
			for k := lo; k < hi; k++ {
				for z := 0; z < m-1; z++ {
					hw := z
					if kk < pegasusVerticalOffsets[k] {
						hw++
					}
					hz := w
					if k < pegasusHorizontalOffsets[kk] {
						hz--
					}
					edges = append(edges, NewEdge(q(0, w, k, z), q(1, hw, kk, hz)))
				}
			}
		}
	}
	return NewGraph(nil, edges)
}

// pegasusNice places Chimera cell (y, x) of sublattice t onto Pegasus
// coordinates. Each t in {0, 1, 2} yields a disjoint Chimera(m-1) with tile 4.
func pegasusNice(t, y, x, u, k int) PegasusCoord {
	switch t {
	case 0:
		if u == 0 {
			return PegasusCoord{0, x, 4 + k, y}
		}
		return PegasusCoord{1, y + 1, 4 + k, x}
	case 1:
		if u == 0 {
			return PegasusCoord{0, x, 8 + k, y}
		}
		return PegasusCoord{1, y + 1, k, x}
	default:
		if u == 0 {
			return PegasusCoord{0, x + 1, k, y}
		}
		return PegasusCoord{1, y, 8 + k, x}
	}
}

// pegasusPlacements enumerates the placements of a Chimera(src) tile-4
// source on a Pegasus(m) target: sublattice t first, then row and column
// offsets.
func pegasusPlacements(target PegasusShape, src int) []Mapping {
	source := ChimeraShape{M: src, N: src, T: 4}
	span := target.M - 1
	var out []Mapping
	for t := 0; t < 3; t++ {
		for y0 := 0; y0+src <= span; y0++ {
			for x0 := 0; x0+src <= span; x0++ {
				t, y0, x0 := t, y0, x0
				out = append(out, Mapping{
					Index: len(out),
					Label: offsetLabel(sublatticeLabel(t), y0, x0),
					apply: func(q int) int {
						c := source.Coord(q)
						return target.Linear(pegasusNice(t, c.Row+y0, c.Col+x0, c.U, c.K))
					},
				})
			}
		}
	}
	return out
}

func sublatticeLabel(t int) string {
	return "t=" + strconv.Itoa(t) + " "
}
