package topology

// Zephyr qubits are addressed as (u, w, k, j, z). A vertical qubit (u=0)
// sits in column w and spans rows 2z+j and 2z+j+1; horizontal qubits are the
// transpose. w runs over [0, 2m], k over the tile, j over {0, 1} and z over
// [0, m).

// ZephyrCoord addresses one Zephyr qubit.
type ZephyrCoord struct {
	U, W, K, J, Z int
}

// ZephyrShape is a Zephyr lattice of size M and tile T.
type ZephyrShape struct {
	M, T int
}

// NumQubits returns the number of qubit labels, working or not.
func (s ZephyrShape) NumQubits() int { return 4 * s.T * s.M * (2*s.M + 1) }

// Linear converts a coordinate into its integer label.
func (s ZephyrShape) Linear(c ZephyrCoord) int {
	return (((c.U*(2*s.M+1)+c.W)*s.T+c.K)*2+c.J)*s.M + c.Z
}

// Coord converts an integer label back into a coordinate.
func (s ZephyrShape) Coord(q int) ZephyrCoord {
	z := q % s.M
	q /= s.M
	j := q % 2
	q /= 2
	k := q % s.T
	q /= s.T
	return ZephyrCoord{U: q / (2*s.M + 1), W: q % (2*s.M + 1), K: k, J: j, Z: z}
}

// Zephyr builds a perfect Zephyr lattice of size m and tile t.
func Zephyr(m, t int) *Graph {
	s := ZephyrShape{M: m, T: t}
	q := func(u, w, k, j, z int) int { return s.Linear(ZephyrCoord{u, w, k, j, z}) }
	width := 2*m + 1

	var edges []Edge
	for u := 0; u < 2; u++ {
		for w := 0; w < width; w++ {
			for k := 0; k < t; k++ {
				for j := 0; j < 2; j++ {
					for z := 0; z+1 < m; z++ {
						edges = append(edges, NewEdge(q(u, w, k, j, z), q(u, w, k, j, z+1)))
					}
				}
				// odd couplers join the overlapping j=0 and j=1 qubits
				for z := 0; z < m; z++ {
					edges = append(edges, NewEdge(q(u, w, k, 0, z), q(u, w, k, 1, z)))
					if z > 0 {
						edges = append(edges, NewEdge(q(u, w, k, 0, z), q(u, w, k, 1, z-1)))
					}
				}
			}
		}
	}

	for w := 0; w < width; w++ {
		for k := 0; k < t; k++ {
			for j := 0; j < 2; j++ {
				for z := 0; z < m; z++ {
					v := q(0, w, k, j, z)
					for row := 2*z + j; row <= 2*z+j+1; row++ {
						for jj := 0; jj < 2; jj++ {
							for zz := 0; zz < m; zz++ {
								if w != 2*zz+jj && w != 2*zz+jj+1 {
									continue
								}
								for kk := 0; kk < t; kk++ {
									edges = append(edges, NewEdge(v, q(1, row, kk, jj, zz)))
								}
							}
						}
					}
				}
			}
		}
	}
	return NewGraph(nil, edges)
}

// zephyrPlacements places a square Chimera(src) source with the target's
// tile on a Zephyr(m) target, which hosts a Chimera(2m) lattice. Chimera
// cell (Y, X) uses the vertical qubit in column X over rows Y..Y+1 and the
// horizontal qubit in row Y over columns X..X+1.
func zephyrPlacements(target ZephyrShape, src int) []Mapping {
	source := ChimeraShape{M: src, N: src, T: target.T}
	span := 2 * target.M
	var out []Mapping
	for y0 := 0; y0+src <= span; y0++ {
		for x0 := 0; x0+src <= span; x0++ {
			y0, x0 := y0, x0
			out = append(out, Mapping{
				Index: len(out),
				Label: offsetLabel("", y0, x0),
				apply: func(q int) int {
					c := source.Coord(q)
					y, x := c.Row+y0, c.Col+x0
					if c.U == 0 {
						return target.Linear(ZephyrCoord{0, x, c.K, y % 2, y / 2})
					}
					return target.Linear(ZephyrCoord{1, y, c.K, x % 2, x / 2})
				},
			})
		}
	}
	return out
}
