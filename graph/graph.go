// Package graph holds the immutable road graph data model. A Graph is built
// once by the builder package, validated and then only ever read. Nodes and
// edges reference each other through indices into flat arrays, there are no
// pointers between them.
package graph

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

type EdgeIndex = uint32
type NodeIndex = uint32

// Interaction is the traffic control governing a movement through a node.
type Interaction uint8

const (
	InteractionNone Interaction = iota
	InteractionYield
	InteractionStopSign
	InteractionTrafficLight
)

// InteractionPair describes one incoming/outgoing movement at a node. A node
// stores one pair per incident edge, in the same order as its edge list.
type InteractionPair struct {
	Incoming Interaction
	Outgoing Interaction
}

// Edge is one street segment between two intersections. Points is the full
// geometry of the segment, the first point lies on the Start node and the
// last one on the End node. The one-way flag in CostFlags refers to the
// Start to End direction.
type Edge struct {
	Start     NodeIndex
	End       NodeIndex
	CostFlags CostFlags
	Points    []orb.Point
}

// Other returns the edge endpoint opposite to the given node.
func (e *Edge) Other(node NodeIndex) NodeIndex {
	if node == e.Start {
		return e.End
	}
	return e.Start
}

// EdgeMetadata is the descriptive part of an edge, kept in a table parallel
// to the edge array so that the hot edge records stay small.
type EdgeMetadata struct {
	Names    []string
	Priority uint8 // Road class in [0, 10], 10 being the most important.
	Modes    ModeSet
}

// Node is one intersection. Edges lists the incident edge indices,
// Interactions holds one pair per entry of Edges.
type Node struct {
	Point        orb.Point
	Edges        []EdgeIndex
	Interactions []InteractionPair
}

type Graph struct {
	Name     string
	Edges    []Edge
	Nodes    []Node
	Metadata []EdgeMetadata // Parallel to Edges.
}

// Validate checks all cross-reference invariants of the graph. A graph that
// fails validation must not be served.
func (g *Graph) Validate() error {
	if len(g.Metadata) != 0 && len(g.Metadata) != len(g.Edges) {
		return errors.Errorf("Metadata table has %d entries but there are %d edges", len(g.Metadata), len(g.Edges))
	}

	for i, edge := range g.Edges {
		if int(edge.Start) >= len(g.Nodes) || int(edge.End) >= len(g.Nodes) {
			return errors.Errorf("Edge %d references node %d/%d but there are only %d nodes", i, edge.Start, edge.End, len(g.Nodes))
		}
		if len(edge.Points) < 2 {
			return errors.Errorf("Edge %d has %d geometry points, at least 2 are required", i, len(edge.Points))
		}
	}

	for i, node := range g.Nodes {
		if len(node.Edges) != len(node.Interactions) {
			return errors.Errorf("Node %d has %d edges but %d interaction pairs", i, len(node.Edges), len(node.Interactions))
		}
		for _, edgeIndex := range node.Edges {
			if int(edgeIndex) >= len(g.Edges) {
				return errors.Errorf("Node %d references edge %d but there are only %d edges", i, edgeIndex, len(g.Edges))
			}
		}
	}

	return nil
}
