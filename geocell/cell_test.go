package geocell

import (
	"testing"

	"tobmap/util"
)

func TestFromDegrees_deterministic(t *testing.T) {
	for _, level := range []int{0, 4, 8, 15, 30} {
		a := FromDegrees(53.55, 9.99, level)
		b := FromDegrees(53.55, 9.99, level)

		util.AssertEqual(t, a, b)
		util.AssertEqual(t, level, a.Level())
	}
}

func TestChildrenParent_roundTrip(t *testing.T) {
	cells := []CellID{
		FromDegrees(53.55, 9.99, 4),
		FromDegrees(-33.86, 151.2, 8),
		FromDegrees(0.0, 0.0, 0),
		FromDegrees(71.0, -42.0, 12),
	}

	for _, cell := range cells {
		for _, child := range cell.Children() {
			util.AssertEqual(t, cell.Level()+1, child.Level())
			util.AssertEqual(t, cell, child.Parent())
		}
	}
}

func TestChildren_areDistinct(t *testing.T) {
	cell := FromDegrees(53.55, 9.99, 6)
	children := cell.Children()

	for i := 0; i < len(children); i++ {
		for j := i + 1; j < len(children); j++ {
			util.AssertTrue(t, children[i] != children[j])
		}
	}
}

func TestParentAtLevel_containsPoint(t *testing.T) {
	lat, lng := 48.14, 11.58
	fine := FromDegrees(lat, lng, DefaultFineLevel)
	outer := FromDegrees(lat, lng, DefaultOuterLevel)

	// The outer ancestor of the fine cell must be the outer cell of the
	// original coordinate.
	util.AssertEqual(t, outer, fine.ParentAtLevel(DefaultOuterLevel))
}

func TestDenseIndex_bounds(t *testing.T) {
	coordinates := [][2]float64{
		{53.55, 9.99}, {-33.86, 151.2}, {0, 0}, {89.9, 179.9}, {-89.9, -179.9},
	}

	for _, level := range []int{0, 4, 8} {
		for _, coordinate := range coordinates {
			cell := FromDegrees(coordinate[0], coordinate[1], level)
			index := cell.DenseIndex()

			util.AssertTrue(t, index < NumCellsAtLevel(level))
			util.AssertEqual(t, cell, FromDenseIndex(index, level))
		}
	}
}

func TestNumCellsAtLevel(t *testing.T) {
	util.AssertEqual(t, uint64(6), NumCellsAtLevel(0))
	util.AssertEqual(t, uint64(24), NumCellsAtLevel(1))
	util.AssertEqual(t, uint64(1536), NumCellsAtLevel(4))
}

func TestNextRing_walksOutward(t *testing.T) {
	center := FromDegrees(53.55, 9.99, DefaultOuterLevel)

	visited := map[CellID]struct{}{center: {}}
	ring := []CellID{center}

	ring = NextRing(ring, visited)
	util.AssertTrue(t, len(ring) >= 4)
	for _, cell := range ring {
		util.AssertTrue(t, cell != center)
		util.AssertEqual(t, DefaultOuterLevel, cell.Level())
	}

	// The second ring must not contain first ring cells again.
	firstRing := map[CellID]struct{}{}
	for _, cell := range ring {
		firstRing[cell] = struct{}{}
	}

	ring = NextRing(ring, visited)
	util.AssertTrue(t, len(ring) > 0)
	for _, cell := range ring {
		_, isOld := firstRing[cell]
		util.AssertFalse(t, isOld)
		util.AssertTrue(t, cell != center)
	}
}

func TestNeighborhood_containsCellItself(t *testing.T) {
	cell := FromDegrees(53.55, 9.99, DefaultFineLevel)
	neighborhood := cell.Neighborhood()

	util.AssertEqual(t, cell, neighborhood[0])
	util.AssertTrue(t, len(neighborhood) >= 5)
}
