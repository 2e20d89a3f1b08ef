// Package geocell maps coordinates onto a hierarchical spherical cell scheme.
// The sphere is divided into six base faces, each face is subdivided as a
// quad-tree. Level 0 are the faces, every further level splits each cell into
// four children. Cell ids are the 64 bit S2 ids, so all containment and
// neighborhood guarantees of that scheme apply.
package geocell

import (
	"github.com/golang/geo/s2"
)

const (
	// MaxLevel is the finest subdivision level an id can address.
	MaxLevel = 30

	// DefaultOuterLevel and DefaultFineLevel are the two levels the snap
	// index operates on.
	DefaultOuterLevel = 4
	DefaultFineLevel  = 8
)

type CellID uint64

// FromDegrees returns the cell at the given level containing the coordinate.
// This is a pure function, the same coordinate always yields the same id.
// Levels outside [0, MaxLevel] violate the caller contract.
func FromDegrees(lat float64, lng float64, level int) CellID {
	leaf := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng))
	return CellID(leaf.Parent(level))
}

func (c CellID) Level() int {
	return s2.CellID(c).Level()
}

// Parent returns the cell one level coarser that contains this cell.
func (c CellID) Parent() CellID {
	return CellID(s2.CellID(c).Parent(c.Level() - 1))
}

// ParentAtLevel returns the ancestor cell at the given coarser level.
func (c CellID) ParentAtLevel(level int) CellID {
	return CellID(s2.CellID(c).Parent(level))
}

// Children returns the four cells of the next finer level whose areas are
// disjoint and together covered by this cell.
func (c CellID) Children() [4]CellID {
	s2Children := s2.CellID(c).Children()

	var children [4]CellID
	for i, child := range s2Children {
		children[i] = CellID(child)
	}
	return children
}

// LatLng returns the center coordinate of the cell in degrees.
func (c CellID) LatLng() (float64, float64) {
	center := s2.CellID(c).LatLng()
	return center.Lat.Degrees(), center.Lng.Degrees()
}

// DenseIndex maps a cell at level L onto [0, NumCellsAtLevel(L)). The mapping
// is a bijection, so an array indexed by it can hold one entry per possible
// cell of that level.
func (c CellID) DenseIndex() uint64 {
	return uint64(c) >> uint(2*(MaxLevel-c.Level())+1)
}

// FromDenseIndex is the inverse of DenseIndex for the given level.
func FromDenseIndex(index uint64, level int) CellID {
	shift := uint(2*(MaxLevel-level) + 1)
	return CellID(index<<shift | 1<<(shift-1))
}

// NumCellsAtLevel returns the total number of cells the sphere is divided
// into at the given level.
func NumCellsAtLevel(level int) uint64 {
	return 6 << uint(2*level)
}

// NextRing returns the cells adjacent to the given ring that have not been
// visited yet and marks them as visited. All cells must share one level.
// Starting with ring 0 (the center cell alone) this walks outward one ring of
// neighbors at a time.
func NextRing(ring []CellID, visited map[CellID]struct{}) []CellID {
	var next []CellID

	for _, cell := range ring {
		for _, neighbor := range s2.CellID(cell).AllNeighbors(cell.Level()) {
			id := CellID(neighbor)
			if _, ok := visited[id]; ok {
				continue
			}
			visited[id] = struct{}{}
			next = append(next, id)
		}
	}

	return next
}

// Neighborhood returns the cell itself and all its direct neighbors at the
// same level, including the diagonal ones.
func (c CellID) Neighborhood() []CellID {
	neighbors := s2.CellID(c).AllNeighbors(c.Level())

	cells := make([]CellID, 0, len(neighbors)+1)
	cells = append(cells, c)
	for _, neighbor := range neighbors {
		cells = append(cells, CellID(neighbor))
	}
	return cells
}
