package topology

// ChimeraShape is the size of a Chimera lattice: M rows and N columns of
// unit cells, each a complete bipartite K_{T,T}.
type ChimeraShape struct {
	M, N, T int
}

// ChimeraCoord addresses one Chimera qubit. U is 0 for the vertical half of a
// cell and 1 for the horizontal half.
type ChimeraCoord struct {
	Row, Col, U, K int
}

// NumQubits returns the number of qubits in a perfect lattice of this shape.
func (s ChimeraShape) NumQubits() int { return 2 * s.M * s.N * s.T }

// Linear converts a coordinate into its integer label.
func (s ChimeraShape) Linear(c ChimeraCoord) int {
	return ((c.Row*s.N+c.Col)*2+c.U)*s.T + c.K
}

// Coord converts an integer label back into a coordinate.
func (s ChimeraShape) Coord(q int) ChimeraCoord {
	k := q % s.T
	q /= s.T
	u := q % 2
	q /= 2
	return ChimeraCoord{Row: q / s.N, Col: q % s.N, U: u, K: k}
}

// Chimera builds a perfect Chimera lattice with m x n cells of tile t.
func Chimera(m, n, t int) *Graph {
	s := ChimeraShape{M: m, N: n, T: t}
	edges := make([]Edge, 0, m*n*t*t+2*m*n*t)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < t; k++ {
				v := s.Linear(ChimeraCoord{i, j, 0, k})
				h := s.Linear(ChimeraCoord{i, j, 1, k})
				for kk := 0; kk < t; kk++ {
					edges = append(edges, NewEdge(v, s.Linear(ChimeraCoord{i, j, 1, kk})))
				}
				if i+1 < m {
					edges = append(edges, NewEdge(v, s.Linear(ChimeraCoord{i + 1, j, 0, k})))
				}
				if j+1 < n {
					edges = append(edges, NewEdge(h, s.Linear(ChimeraCoord{i, j + 1, 1, k})))
				}
			}
		}
	}
	return NewGraph(nil, edges)
}

// chimeraPlacements places a square chimera source of size src into a
// chimera target, enumerating row offsets then column offsets.
func chimeraPlacements(target ChimeraShape, src int) []Mapping {
	source := ChimeraShape{M: src, N: src, T: target.T}
	var out []Mapping
	for y0 := 0; y0+src <= target.M; y0++ {
		for x0 := 0; x0+src <= target.N; x0++ {
			y0, x0 := y0, x0
			out = append(out, Mapping{
				Index: len(out),
				Label: offsetLabel("", y0, x0),
				apply: func(q int) int {
					c := source.Coord(q)
					c.Row += y0
					c.Col += x0
					return target.Linear(c)
				},
			})
		}
	}
	return out
}
