// Package builder constructs the immutable road graph and its snap index
// from raw way and node records. Building is a single-writer pass, the
// returned structures are never mutated afterwards and may be read
// concurrently.
package builder

import (
	"fmt"
	"math"
	"sort"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"

	"tobmap/geocell"
	"tobmap/graph"
	"tobmap/snap"
)

// NodeRecord is one raw map point, identified by its external id. Control is
// the traffic control placed at this point, if any.
type NodeRecord struct {
	ID      int64
	Point   orb.Point
	Control graph.Interaction
}

// WayRecord is one raw street or path as an ordered sequence of node
// references plus its tags.
type WayRecord struct {
	ID       int64
	NodeIDs  []int64
	Names    []string
	Priority uint8
	OneWay   bool
	Modes    graph.ModeSet
}

type Options struct {
	Name       string
	OuterLevel int
	FineLevel  int
	CostFn     CostFn
}

func DefaultOptions(name string) Options {
	return Options{
		Name:       name,
		OuterLevel: geocell.DefaultOuterLevel,
		FineLevel:  geocell.DefaultFineLevel,
		CostFn:     DefaultCostFn,
	}
}

// Build turns way and node records into a graph and a snap index. It returns
// the warnings collected during the build (e.g. clamped costs). Malformed
// input, like a way with fewer than two points or a dangling node reference,
// aborts the whole build with an error naming the offending record.
func Build(ways []WayRecord, nodes []NodeRecord, options Options) (*graph.Graph, *snap.Index, []string, error) {
	if options.CostFn == nil {
		options.CostFn = DefaultCostFn
	}

	nodeByID := make(map[int64]NodeRecord, len(nodes))
	for _, node := range nodes {
		nodeByID[node.ID] = node
	}

	sigolo.Debugf("Validating %d ways against %d nodes", len(ways), len(nodes))
	waysPerNode := map[int64]int{}
	for _, way := range ways {
		if len(way.NodeIDs) < 2 {
			return nil, nil, nil, errors.Errorf("Way %d has %d points, at least 2 are required", way.ID, len(way.NodeIDs))
		}
		for _, nodeID := range way.NodeIDs {
			if _, ok := nodeByID[nodeID]; !ok {
				return nil, nil, nil, errors.Errorf("Way %d references node %d which is not in the node table", way.ID, nodeID)
			}
			waysPerNode[nodeID]++
		}
	}

	// Intersections are the points shared by several ways plus the endpoints
	// of every way. All other way points become edge geometry.
	intersectionIDs := map[int64]struct{}{}
	for nodeID, count := range waysPerNode {
		if count >= 2 {
			intersectionIDs[nodeID] = struct{}{}
		}
	}
	for _, way := range ways {
		intersectionIDs[way.NodeIDs[0]] = struct{}{}
		intersectionIDs[way.NodeIDs[len(way.NodeIDs)-1]] = struct{}{}
	}

	// Sorting the nodes by cell id keeps spatially close nodes close in the
	// array. Ties are broken by the external id for determinism.
	sortedIDs := make([]int64, 0, len(intersectionIDs))
	for nodeID := range intersectionIDs {
		sortedIDs = append(sortedIDs, nodeID)
	}
	sort.Slice(sortedIDs, func(i, j int) bool {
		a := nodeByID[sortedIDs[i]]
		b := nodeByID[sortedIDs[j]]
		cellA := geocell.FromDegrees(a.Point.Lat(), a.Point.Lon(), geocell.MaxLevel)
		cellB := geocell.FromDegrees(b.Point.Lat(), b.Point.Lon(), geocell.MaxLevel)
		if cellA != cellB {
			return cellA < cellB
		}
		return sortedIDs[i] < sortedIDs[j]
	})

	nodeIndexByID := make(map[int64]graph.NodeIndex, len(sortedIDs))
	graphNodes := make([]graph.Node, len(sortedIDs))
	for i, nodeID := range sortedIDs {
		nodeIndexByID[nodeID] = graph.NodeIndex(i)
		graphNodes[i] = graph.Node{Point: nodeByID[nodeID].Point}
	}

	sigolo.Debugf("Found %d intersections, splitting ways into edges", len(graphNodes))

	g := &graph.Graph{
		Name:  options.Name,
		Nodes: graphNodes,
	}
	var warnings []string

	for _, way := range ways {
		segmentStart := 0

		for i := 1; i < len(way.NodeIDs); i++ {
			if _, isIntersection := intersectionIDs[way.NodeIDs[i]]; !isIntersection {
				continue
			}

			points := make([]orb.Point, 0, i-segmentStart+1)
			for _, nodeID := range way.NodeIDs[segmentStart : i+1] {
				points = append(points, nodeByID[nodeID].Point)
			}

			cost := math.Round(options.CostFn(lineLength(points), way.Priority))
			if cost < 0 {
				cost = 0
			}
			if cost > graph.MaxCost {
				warnings = append(warnings, fmt.Sprintf("Way %d: computed cost %.0f exceeds the maximum of %d, clamping", way.ID, cost, graph.MaxCost))
				cost = graph.MaxCost
			}

			startID := way.NodeIDs[segmentStart]
			endID := way.NodeIDs[i]
			edgeIndex := graph.EdgeIndex(len(g.Edges))

			g.Edges = append(g.Edges, graph.Edge{
				Start:     nodeIndexByID[startID],
				End:       nodeIndexByID[endID],
				CostFlags: graph.NewCostFlags(uint16(cost), way.OneWay),
				Points:    points,
			})

			modes := way.Modes
			if modes == 0 {
				modes = graph.AllModes
			}
			g.Metadata = append(g.Metadata, graph.EdgeMetadata{
				Names:    way.Names,
				Priority: way.Priority,
				Modes:    modes,
			})

			startControl := nodeByID[startID].Control
			endControl := nodeByID[endID].Control

			startNode := &g.Nodes[nodeIndexByID[startID]]
			startNode.Edges = append(startNode.Edges, edgeIndex)
			startNode.Interactions = append(startNode.Interactions, graph.InteractionPair{Incoming: startControl, Outgoing: endControl})

			endNode := &g.Nodes[nodeIndexByID[endID]]
			endNode.Edges = append(endNode.Edges, edgeIndex)
			endNode.Interactions = append(endNode.Interactions, graph.InteractionPair{Incoming: endControl, Outgoing: startControl})

			segmentStart = i
		}
	}

	if err := g.Validate(); err != nil {
		return nil, nil, nil, errors.Wrap(err, "Built graph failed validation")
	}

	sigolo.Infof("Built graph '%s' with %d nodes and %d edges (%d warnings)", g.Name, len(g.Nodes), len(g.Edges), len(warnings))

	index := snap.BuildIndex(g, options.OuterLevel, options.FineLevel)
	return g, index, warnings, nil
}

func lineLength(points []orb.Point) float64 {
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += geo.Distance(points[i-1], points[i])
	}
	return length
}
