package snap

import (
	"testing"

	"github.com/paulmach/orb"

	"tobmap/geocell"
	"tobmap/graph"
	"tobmap/util"
)

func graphWithEdges(edges ...[]orb.Point) *graph.Graph {
	g := &graph.Graph{Name: "test"}
	for _, points := range edges {
		start := graph.NodeIndex(len(g.Nodes))
		g.Nodes = append(g.Nodes,
			graph.Node{Point: points[0]},
			graph.Node{Point: points[len(points)-1]},
		)
		g.Edges = append(g.Edges, graph.Edge{
			Start:  start,
			End:    start + 1,
			Points: points,
		})
	}
	return g
}

func TestSnap_exactVertex(t *testing.T) {
	g := graphWithEdges([]orb.Point{{9.00, 53.00}, {9.01, 53.00}})
	index := BuildIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel)
	util.AssertNil(t, index.Validate())

	edge, ok := index.Snap(53.00, 9.00)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, graph.EdgeIndex(0), edge)

	edge, ok = index.Snap(53.00, 9.01)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, graph.EdgeIndex(0), edge)
}

func TestSnap_picksNearestEdge(t *testing.T) {
	g := graphWithEdges(
		[]orb.Point{{9.00, 53.02}, {9.01, 53.02}},
		[]orb.Point{{9.00, 53.00}, {9.01, 53.00}},
	)
	index := BuildIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel)

	edge, ok := index.Snap(53.001, 9.005)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, graph.EdgeIndex(1), edge)

	edge, ok = index.Snap(53.019, 9.005)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, graph.EdgeIndex(0), edge)
}

func TestSnap_tieResolvesToSmallestEdgeIndex(t *testing.T) {
	points := []orb.Point{{9.00, 53.00}, {9.01, 53.00}}
	g := graphWithEdges(points, points)
	index := BuildIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel)

	edge, ok := index.Snap(53.0005, 9.005)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, graph.EdgeIndex(0), edge)
}

func TestSnap_missFarAway(t *testing.T) {
	g := graphWithEdges([]orb.Point{{9.00, 53.00}, {9.01, 53.00}})
	index := BuildIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel)

	_, ok := index.Snap(-53.00, -100.00)
	util.AssertFalse(t, ok)
}

// findOuterBoundary walks east from (53, 9) until the outer cell changes and
// returns the first sampled longitude inside the neighboring outer cell.
func findOuterBoundary(t *testing.T) float64 {
	base := geocell.FromDegrees(53, 9, geocell.DefaultOuterLevel)

	for lng := 9.25; lng < 120; lng += 0.25 {
		if geocell.FromDegrees(53, lng, geocell.DefaultOuterLevel) != base {
			return lng
		}
	}

	t.Fatal("No outer cell boundary found east of (53, 9)")
	return 0
}

func TestSnap_fineProbeAcrossOuterBoundary(t *testing.T) {
	boundaryLng := findOuterBoundary(t)

	// The edge lies entirely inside the outer cell of (53, 9), the query
	// sits just across the boundary in the neighboring outer cell. The edge
	// must still be found.
	g := graphWithEdges([]orb.Point{{boundaryLng - 0.50, 53.00}, {boundaryLng - 0.25, 53.00}})
	index := BuildIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel)

	edge, ok := index.Snap(53.00, boundaryLng)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, graph.EdgeIndex(0), edge)
}

func TestSnap_ringProbeIntoNeighboringOuterCell(t *testing.T) {
	boundaryLng := findOuterBoundary(t)

	// The edge lies in the outer cell east of the boundary, the query sits
	// deep inside the outer cell of (53, 9). Only the ring expansion over
	// outer cells can surface the edge.
	g := graphWithEdges([]orb.Point{{boundaryLng + 0.10, 53.00}, {boundaryLng + 0.30, 53.00}})
	index := BuildIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel)

	queryLng := boundaryLng - 3.0
	if queryLng < 9.0 {
		queryLng = 9.0
	}

	edge, ok := index.Snap(53.00, queryLng)
	util.AssertTrue(t, ok)
	util.AssertEqual(t, graph.EdgeIndex(0), edge)
}

func TestValidate_rejectsUnsortedBucket(t *testing.T) {
	g := graphWithEdges([]orb.Point{{9.00, 53.00}, {9.01, 53.00}})

	buckets := make([]Bucket, geocell.NumCellsAtLevel(geocell.DefaultOuterLevel))
	buckets[0].FineCellIDs = []uint64{5, 3}
	buckets[0].EdgeIndexes = []uint32{0, 0}

	index := NewIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel, buckets)
	util.AssertNotNil(t, index.Validate())
}

func TestValidate_rejectsParallelArrayMismatch(t *testing.T) {
	g := graphWithEdges([]orb.Point{{9.00, 53.00}, {9.01, 53.00}})

	buckets := make([]Bucket, geocell.NumCellsAtLevel(geocell.DefaultOuterLevel))
	buckets[0].FineCellIDs = []uint64{3}

	index := NewIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel, buckets)
	util.AssertNotNil(t, index.Validate())
}

func TestBuildIndex_collapsesDuplicateRegistrations(t *testing.T) {
	// Three points of the same edge in one fine cell must end up as a
	// single registration.
	g := graphWithEdges([]orb.Point{{9.000, 53.000}, {9.0001, 53.000}, {9.0002, 53.000}})
	index := BuildIndex(g, geocell.DefaultOuterLevel, geocell.DefaultFineLevel)

	fineCell := geocell.FromDegrees(53.000, 9.000, geocell.DefaultFineLevel)
	bucket := index.Buckets[fineCell.ParentAtLevel(geocell.DefaultOuterLevel).DenseIndex()]

	count := 0
	for i, id := range bucket.FineCellIDs {
		if id == uint64(fineCell) && bucket.EdgeIndexes[i] == 0 {
			count++
		}
	}
	util.AssertEqual(t, 1, count)
}
