// Package snap finds the graph edge nearest to an arbitrary coordinate. It
// uses a two-level cell index: a dense array with one bucket per outer-level
// cell gives O(1) access to a region, a sorted fine-cell array inside each
// bucket narrows the region down via binary search. Both levels probe
// neighboring cells, because the nearest edge of a query next to a cell
// boundary may be registered under the adjacent cell.
package snap

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"

	"tobmap/geocell"
	"tobmap/graph"
)

// MaxRingRadius bounds the outward search over outer cells. A query further
// away from any edge than this many outer rings is a miss.
const MaxRingRadius = 3

// Bucket holds all (fine cell, edge) registrations of one outer cell. The
// two slices are parallel and sorted by fine cell id first and edge index
// second. Lookups binary search FineCellIDs, so sortedness is a hard
// invariant.
type Bucket struct {
	CellID      uint64
	FineCellIDs []uint64
	EdgeIndexes []uint32
}

type Index struct {
	OuterLevel int
	FineLevel  int
	Buckets    []Bucket // Dense, indexed by the outer cell's DenseIndex.

	g *graph.Graph
}

// BuildIndex registers every geometry point of every edge of the graph under
// its fine cell, grouped by outer cell. Duplicate (fine cell, edge) pairs,
// caused by an edge touching the same fine cell with several points, are
// collapsed into one entry.
func BuildIndex(g *graph.Graph, outerLevel int, fineLevel int) *Index {
	type registration struct {
		fineCell  uint64
		edgeIndex uint32
	}

	registrations := map[uint64][]registration{}

	for edgeIndex, edge := range g.Edges {
		for _, point := range edge.Points {
			// The fine cell is computed from the actual point location, never
			// from a coarser ancestor, otherwise nearby queries would miss
			// the edge.
			fineCell := geocell.FromDegrees(point.Lat(), point.Lon(), fineLevel)
			outerIndex := fineCell.ParentAtLevel(outerLevel).DenseIndex()

			registrations[outerIndex] = append(registrations[outerIndex], registration{
				fineCell:  uint64(fineCell),
				edgeIndex: uint32(edgeIndex),
			})
		}
	}

	buckets := make([]Bucket, geocell.NumCellsAtLevel(outerLevel))
	for i := range buckets {
		buckets[i].CellID = uint64(geocell.FromDenseIndex(uint64(i), outerLevel))
	}

	for outerIndex, entries := range registrations {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].fineCell != entries[j].fineCell {
				return entries[i].fineCell < entries[j].fineCell
			}
			return entries[i].edgeIndex < entries[j].edgeIndex
		})

		bucket := &buckets[outerIndex]
		for i, entry := range entries {
			if i > 0 && entries[i-1] == entry {
				continue
			}
			bucket.FineCellIDs = append(bucket.FineCellIDs, entry.fineCell)
			bucket.EdgeIndexes = append(bucket.EdgeIndexes, entry.edgeIndex)
		}
	}

	return &Index{
		OuterLevel: outerLevel,
		FineLevel:  fineLevel,
		Buckets:    buckets,
		g:          g,
	}
}

// NewIndex wraps already built buckets, e.g. loaded from disk. The caller
// must run Validate before serving queries.
func NewIndex(g *graph.Graph, outerLevel int, fineLevel int, buckets []Bucket) *Index {
	return &Index{
		OuterLevel: outerLevel,
		FineLevel:  fineLevel,
		Buckets:    buckets,
		g:          g,
	}
}

// Validate checks the invariants binary search depends on. An index failing
// this check must not be served.
func (x *Index) Validate() error {
	if uint64(len(x.Buckets)) != geocell.NumCellsAtLevel(x.OuterLevel) {
		return errors.Errorf("Expected %d buckets for outer level %d but got %d", geocell.NumCellsAtLevel(x.OuterLevel), x.OuterLevel, len(x.Buckets))
	}

	for i, bucket := range x.Buckets {
		if len(bucket.FineCellIDs) != len(bucket.EdgeIndexes) {
			return errors.Errorf("Bucket %d has %d fine cell ids but %d edge indexes", i, len(bucket.FineCellIDs), len(bucket.EdgeIndexes))
		}
		for j := 1; j < len(bucket.FineCellIDs); j++ {
			if bucket.FineCellIDs[j-1] > bucket.FineCellIDs[j] {
				return errors.Errorf("Bucket %d is not sorted at position %d", i, j)
			}
		}
		if x.g != nil {
			for _, edgeIndex := range bucket.EdgeIndexes {
				if int(edgeIndex) >= len(x.g.Edges) {
					return errors.Errorf("Bucket %d references edge %d but there are only %d edges", i, edgeIndex, len(x.g.Edges))
				}
			}
		}
	}

	return nil
}

// Snap returns the index of the edge nearest to the coordinate. The second
// return value is false when no edge was found within MaxRingRadius outer
// rings, which is an expected outcome for queries far away from any road.
func (x *Index) Snap(lat float64, lng float64) (graph.EdgeIndex, bool) {
	candidates := map[uint32]struct{}{}

	// Fine level probing: the query's fine cell and its direct neighbors.
	// Each probed fine cell is looked up in the bucket of its own outer
	// ancestor, a neighbor right across an outer boundary lives in a
	// different bucket.
	fineCell := geocell.FromDegrees(lat, lng, x.FineLevel)
	for _, probe := range fineCell.Neighborhood() {
		bucket := &x.Buckets[probe.ParentAtLevel(x.OuterLevel).DenseIndex()]
		bucket.collect(uint64(probe), candidates)
	}

	// Outer level probing: walk outward ring by ring and take entire
	// buckets, fine precision does not help at this distance anymore.
	if len(candidates) == 0 {
		outerCell := geocell.FromDegrees(lat, lng, x.OuterLevel)
		visited := map[geocell.CellID]struct{}{outerCell: {}}
		ring := []geocell.CellID{outerCell}

		for radius := 0; radius <= MaxRingRadius && len(ring) > 0; radius++ {
			for _, cell := range ring {
				for _, edgeIndex := range x.Buckets[cell.DenseIndex()].EdgeIndexes {
					candidates[edgeIndex] = struct{}{}
				}
			}
			if len(candidates) > 0 {
				// Finish the current ring (the loop above already did), then
				// stop expanding.
				break
			}
			ring = geocell.NextRing(ring, visited)
		}
	}

	if len(candidates) == 0 {
		return 0, false
	}

	query := orb.Point{lng, lat}
	bestEdge := graph.EdgeIndex(0)
	bestDistance := math.Inf(1)

	for _, edgeIndex := range sortedCandidates(candidates) {
		distance := distanceToEdge(query, &x.g.Edges[edgeIndex])
		// Strictly smaller keeps the smallest edge index on ties, the
		// candidates are iterated in ascending order.
		if distance < bestDistance {
			bestDistance = distance
			bestEdge = edgeIndex
		}
	}

	return bestEdge, true
}

func (b *Bucket) collect(fineCell uint64, candidates map[uint32]struct{}) {
	first := sort.Search(len(b.FineCellIDs), func(i int) bool {
		return b.FineCellIDs[i] >= fineCell
	})

	for i := first; i < len(b.FineCellIDs) && b.FineCellIDs[i] == fineCell; i++ {
		candidates[b.EdgeIndexes[i]] = struct{}{}
	}
}

func sortedCandidates(candidates map[uint32]struct{}) []uint32 {
	result := make([]uint32, 0, len(candidates))
	for edgeIndex := range candidates {
		result = append(result, edgeIndex)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// distanceToEdge returns the distance in meters from the point to the
// nearest segment of the edge geometry.
func distanceToEdge(point orb.Point, edge *graph.Edge) float64 {
	best := math.Inf(1)

	for i := 1; i < len(edge.Points); i++ {
		closest := closestPointOnSegment(point, edge.Points[i-1], edge.Points[i])
		if distance := geo.Distance(point, closest); distance < best {
			best = distance
		}
	}

	return best
}

// closestPointOnSegment projects the point onto the segment [a, b] in an
// equirectangular approximation around the query latitude. That is accurate
// enough for the short segments of a street network.
func closestPointOnSegment(point orb.Point, a orb.Point, b orb.Point) orb.Point {
	lngScale := math.Cos(point.Lat() * math.Pi / 180)

	dx := (b.Lon() - a.Lon()) * lngScale
	dy := b.Lat() - a.Lat()

	lengthSquared := dx*dx + dy*dy
	if lengthSquared == 0 {
		return a
	}

	px := (point.Lon() - a.Lon()) * lngScale
	py := point.Lat() - a.Lat()

	t := (px*dx + py*dy) / lengthSquared
	if t < 0 {
		return a
	} else if t > 1 {
		return b
	}

	return orb.Point{
		a.Lon() + t*(b.Lon()-a.Lon()),
		a.Lat() + t*(b.Lat()-a.Lat()),
	}
}
