package builder

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"tobmap/graph"
	"tobmap/util"
)

func testNodes() []NodeRecord {
	return []NodeRecord{
		{ID: 1, Point: orb.Point{9.00, 53.00}},
		{ID: 2, Point: orb.Point{9.01, 53.00}},
		{ID: 3, Point: orb.Point{9.02, 53.00}, Control: graph.InteractionTrafficLight},
		{ID: 4, Point: orb.Point{9.02, 53.01}},
	}
}

func testWays() []WayRecord {
	return []WayRecord{
		{ID: 10, NodeIDs: []int64{1, 2, 3}, Names: []string{"Main Street"}, Priority: 5},
		{ID: 20, NodeIDs: []int64{3, 4}, Priority: 3, OneWay: true},
	}
}

func TestBuild_smallNetwork(t *testing.T) {
	g, index, warnings, err := Build(testWays(), testNodes(), DefaultOptions("test"))

	util.AssertNil(t, err)
	util.AssertEqual(t, 0, len(warnings))
	util.AssertNil(t, g.Validate())
	util.AssertNil(t, index.Validate())

	// Node 2 is only an intermediate point of way 10, so there are three
	// intersections and two edges.
	util.AssertEqual(t, 3, len(g.Nodes))
	util.AssertEqual(t, 2, len(g.Edges))
	util.AssertEqual(t, 2, len(g.Metadata))

	// Way 10 keeps its intermediate point as edge geometry.
	util.AssertEqual(t, 3, len(g.Edges[0].Points))
	util.AssertEqual(t, 2, len(g.Edges[1].Points))

	util.AssertEqual(t, []string{"Main Street"}, g.Metadata[0].Names)
	util.AssertEqual(t, uint8(5), g.Metadata[0].Priority)
	util.AssertEqual(t, graph.AllModes, g.Metadata[0].Modes)

	util.AssertFalse(t, g.Edges[0].CostFlags.OneWay())
	util.AssertTrue(t, g.Edges[1].CostFlags.OneWay())
	util.AssertTrue(t, g.Edges[0].CostFlags.Cost() > 0)
}

func TestBuild_interactionsFromNodeControls(t *testing.T) {
	g, _, _, err := Build(testWays(), testNodes(), DefaultOptions("test"))
	util.AssertNil(t, err)

	// The node of record 3 carries a traffic light and is shared by both
	// edges. Both interaction pairs at it must have it as incoming side.
	var shared *graph.Node
	for i := range g.Nodes {
		if len(g.Nodes[i].Edges) == 2 {
			shared = &g.Nodes[i]
		}
	}
	util.AssertNotNil(t, shared)

	util.AssertEqual(t, 2, len(shared.Interactions))
	for _, pair := range shared.Interactions {
		util.AssertEqual(t, graph.InteractionTrafficLight, pair.Incoming)
		util.AssertEqual(t, graph.InteractionNone, pair.Outgoing)
	}
}

func TestBuild_wayWithTooFewPoints(t *testing.T) {
	ways := []WayRecord{{ID: 99, NodeIDs: []int64{1}}}

	_, _, _, err := Build(ways, testNodes(), DefaultOptions("test"))

	util.AssertNotNil(t, err)
	util.AssertTrue(t, strings.Contains(err.Error(), "99"))
}

func TestBuild_danglingNodeReference(t *testing.T) {
	ways := []WayRecord{{ID: 10, NodeIDs: []int64{1, 77}}}

	_, _, _, err := Build(ways, testNodes(), DefaultOptions("test"))

	util.AssertNotNil(t, err)
	util.AssertTrue(t, strings.Contains(err.Error(), "77"))
}

func TestBuild_costOverflowClampsAndWarns(t *testing.T) {
	options := DefaultOptions("test")
	options.CostFn = func(lengthMeters float64, priority uint8) float64 {
		return 9000
	}

	g, _, warnings, err := Build(testWays(), testNodes(), options)

	util.AssertNil(t, err)
	util.AssertEqual(t, 2, len(warnings))
	for _, edge := range g.Edges {
		util.AssertEqual(t, uint16(graph.MaxCost), edge.CostFlags.Cost())
	}
}

func TestDefaultCostFn(t *testing.T) {
	// 1000 m on a motorway (100 km/h) take 36 seconds.
	util.AssertApprox(t, 36.0, DefaultCostFn(1000, 10), 0.01)

	// Slow road classes are more expensive than fast ones.
	util.AssertTrue(t, DefaultCostFn(1000, 1) > DefaultCostFn(1000, 10))

	// Out of range priorities fall back to the fastest class.
	util.AssertApprox(t, DefaultCostFn(1000, 10), DefaultCostFn(1000, 42), 0.0001)
}
