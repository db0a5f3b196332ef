package topology

// Point is a 2D drawing position in unit-cell coordinates.
type Point struct {
	X, Y float64
}

// ChimeraLayout positions the nodes of a Chimera(size) graph with tile t.
// Each unit cell is drawn as a cross: vertical-half qubits on a horizontal
// line, horizontal-half qubits on a vertical line.
func ChimeraLayout(g *Graph, size, t int) map[int]Point {
	s := ChimeraShape{M: size, N: size, T: t}
	step := 0.8 / float64(t+1)
	pos := make(map[int]Point, g.NumNodes())
	for _, n := range g.Nodes() {
		c := s.Coord(n)
		offset := 0.1 + step*float64(c.K+1)
		if c.U == 0 {
			pos[n] = Point{X: float64(c.Col) + offset, Y: float64(c.Row) + 0.5}
		} else {
			pos[n] = Point{X: float64(c.Col) + 0.5, Y: float64(c.Row) + offset}
		}
	}
	return pos
}
