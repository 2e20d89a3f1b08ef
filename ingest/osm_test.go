package ingest

import (
	"testing"

	"tobmap/graph"
	"tobmap/util"
)

func TestReadOSM(t *testing.T) {
	nodes, ways, err := ReadOSM("testdata/network.osm")
	util.AssertNil(t, err)

	// Way 30 is a building and must be skipped.
	util.AssertEqual(t, 2, len(ways))
	util.AssertEqual(t, 5, len(nodes))

	util.AssertEqual(t, int64(10), ways[0].ID)
	util.AssertEqual(t, []int64{1, 2, 3}, ways[0].NodeIDs)
	util.AssertEqual(t, []string{"Main Street"}, ways[0].Names)
	util.AssertEqual(t, uint8(5), ways[0].Priority)
	util.AssertEqual(t, graph.AllModes, ways[0].Modes)
	util.AssertFalse(t, ways[0].OneWay)

	util.AssertEqual(t, int64(20), ways[1].ID)
	util.AssertEqual(t, uint8(2), ways[1].Priority)
	util.AssertEqual(t, graph.NewModeSet(graph.ModeBike, graph.ModeWalk), ways[1].Modes)
	util.AssertTrue(t, ways[1].OneWay)
	util.AssertTrue(t, ways[1].Names == nil)
}

func TestReadOSM_controlTags(t *testing.T) {
	nodes, _, err := ReadOSM("testdata/network.osm")
	util.AssertNil(t, err)

	controlByID := map[int64]graph.Interaction{}
	for _, node := range nodes {
		controlByID[node.ID] = node.Control
	}

	util.AssertEqual(t, graph.InteractionTrafficLight, controlByID[3])
	util.AssertEqual(t, graph.InteractionNone, controlByID[1])
	util.AssertEqual(t, graph.InteractionNone, controlByID[4])
}

func TestReadOSM_rejectsUnknownExtension(t *testing.T) {
	_, _, err := ReadOSM("testdata/network.csv")
	util.AssertNotNil(t, err)
}
