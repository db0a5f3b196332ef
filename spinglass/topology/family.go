// Package topology models QPU working graphs and the Chimera sublattices
// two hardware generations have in common.
package topology

import (
	"fmt"
	"strconv"
)

// Family identifies a hardware lattice family.
type Family string

const (
	FamilyChimera Family = "chimera"
	FamilyPegasus Family = "pegasus"
	FamilyZephyr  Family = "zephyr"
)

// pegasusTile is the Chimera tile size a Pegasus lattice can host.
const pegasusTile = 4

// validFamilies maps accepted family names.
var validFamilies = map[Family]bool{
	FamilyChimera: true,
	FamilyPegasus: true,
	FamilyZephyr:  true,
}

// IsValidFamily reports whether name is a known lattice family.
func IsValidFamily(name string) bool {
	return validFamilies[Family(name)]
}

// Hardware is one solver's working graph together with the lattice it was
// cut from.
type Hardware struct {
	Solver    string
	Family    Family
	Shape     []int
	NumQubits int
	Graph     *Graph
}

// Validate checks the family and shape.
func (h *Hardware) Validate() error {
	if !validFamilies[h.Family] {
		return fmt.Errorf("solver %s: unknown topology family %q; valid: chimera, pegasus, zephyr", h.Solver, h.Family)
	}
	want := map[Family]int{FamilyChimera: 3, FamilyPegasus: 1, FamilyZephyr: 2}[h.Family]
	if len(h.Shape) < want {
		return fmt.Errorf("solver %s: %s shape needs %d entries, got %v", h.Solver, h.Family, want, h.Shape)
	}
	for _, v := range h.Shape[:want] {
		if v <= 0 {
			return fmt.Errorf("solver %s: %s shape must be positive, got %v", h.Solver, h.Family, h.Shape)
		}
	}
	if h.Family == FamilyPegasus && h.Shape[0] < 2 {
		return fmt.Errorf("solver %s: pegasus shape must be at least 2, got %d", h.Solver, h.Shape[0])
	}
	return nil
}

// Tile returns the Chimera tile size the lattice can host.
func (h *Hardware) Tile() int {
	switch h.Family {
	case FamilyChimera:
		return h.Shape[2]
	case FamilyZephyr:
		return h.Shape[1]
	default:
		return pegasusTile
	}
}

// MaxChimera returns the side of the largest square Chimera lattice the
// family can host.
func (h *Hardware) MaxChimera() int {
	switch h.Family {
	case FamilyChimera:
		return min(h.Shape[0], h.Shape[1])
	case FamilyZephyr:
		return 2 * h.Shape[0]
	default:
		return h.Shape[0] - 1
	}
}

// Placements enumerates every placement of a Chimera(src) source with this
// lattice's tile, in a fixed order.
func (h *Hardware) Placements(src int) []Mapping {
	switch h.Family {
	case FamilyChimera:
		return chimeraPlacements(ChimeraShape{M: h.Shape[0], N: h.Shape[1], T: h.Shape[2]}, src)
	case FamilyZephyr:
		return zephyrPlacements(ZephyrShape{M: h.Shape[0], T: h.Shape[1]}, src)
	default:
		return pegasusPlacements(PegasusShape{M: h.Shape[0]}, src)
	}
}

// PerfectGraph builds the defect-free lattice for a family and shape.
func PerfectGraph(family Family, shape []int) (*Graph, error) {
	hw := &Hardware{Solver: "perfect", Family: family, Shape: shape}
	if err := hw.Validate(); err != nil {
		return nil, err
	}
	switch family {
	case FamilyChimera:
		return Chimera(shape[0], shape[1], shape[2]), nil
	case FamilyZephyr:
		return Zephyr(shape[0], shape[1]), nil
	default:
		return Pegasus(shape[0]), nil
	}
}

// LabelCount returns the number of qubit labels for a family and shape.
func LabelCount(family Family, shape []int) int {
	switch family {
	case FamilyChimera:
		return ChimeraShape{M: shape[0], N: shape[1], T: shape[2]}.NumQubits()
	case FamilyZephyr:
		return ZephyrShape{M: shape[0], T: shape[1]}.NumQubits()
	default:
		return PegasusShape{M: shape[0]}.NumQubits()
	}
}

// Mapping places source (Chimera) labels onto hardware labels.
type Mapping struct {
	Index int    // position in the placement enumeration
	Label string // human-readable placement, e.g. "t=1 offset=(0,0)"
	apply func(int) int
}

// Map returns the hardware label for source label q.
func (m Mapping) Map(q int) int {
	if m.apply == nil {
		return q
	}
	return m.apply(q)
}

// Table materialises the mapping for the given source nodes.
func (m Mapping) Table(nodes []int) map[int]int {
	out := make(map[int]int, len(nodes))
	for _, n := range nodes {
		out[n] = m.Map(n)
	}
	return out
}

// MappingFromTable wraps an explicit label table; unknown labels map to
// themselves.
func MappingFromTable(label string, table map[int]int) Mapping {
	return Mapping{
		Label: label,
		apply: func(q int) int {
			if v, ok := table[q]; ok {
				return v
			}
			return q
		},
	}
}

func offsetLabel(prefix string, y0, x0 int) string {
	return prefix + "offset=(" + strconv.Itoa(y0) + "," + strconv.Itoa(x0) + ")"
}
