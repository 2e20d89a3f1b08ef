// Package route computes least-cost paths between two graph edges. The
// search is a Dijkstra over nodes with mode-specific edge costs and turn
// penalties from the interactions recorded at each node. All search state is
// allocated per call, so any number of Route calls may run concurrently
// against the same graph.
package route

import (
	"container/heap"
	"math"

	"github.com/pkg/errors"

	"tobmap/graph"
)

var (
	// ErrUnreachable means no path exists between the given edges.
	ErrUnreachable = errors.New("no path between the given edges")

	// ErrTruncated means the search was aborted because it exceeded the
	// visited node budget before finding a path.
	ErrTruncated = errors.New("search exceeded the visited node budget")
)

// ModeConfig holds the cost model of one travel mode. The turn penalties are
// configuration, not constants of the search itself.
type ModeConfig struct {
	// CostFactor scales the packed edge cost (travel seconds at the road
	// class speed) into this mode's cost domain.
	CostFactor float64

	YieldPenalty        uint32
	StopSignPenalty     uint32
	TrafficLightPenalty uint32

	// ObeyOneWay excludes traversal against an edge's one-way direction.
	// Pedestrians and cyclists are not bound by vehicular one-way rules.
	ObeyOneWay bool
}

func DefaultConfigs() map[graph.Mode]ModeConfig {
	return map[graph.Mode]ModeConfig{
		graph.ModeCar:     {CostFactor: 1.0, YieldPenalty: 3, StopSignPenalty: 10, TrafficLightPenalty: 15, ObeyOneWay: true},
		graph.ModeBike:    {CostFactor: 3.0, YieldPenalty: 2, StopSignPenalty: 5, TrafficLightPenalty: 15, ObeyOneWay: false},
		graph.ModeWalk:    {CostFactor: 8.0, YieldPenalty: 0, StopSignPenalty: 0, TrafficLightPenalty: 10, ObeyOneWay: false},
		graph.ModeTransit: {CostFactor: 1.5, YieldPenalty: 3, StopSignPenalty: 10, TrafficLightPenalty: 15, ObeyOneWay: true},
	}
}

type Result struct {
	Path []graph.EdgeIndex
	Cost uint32
}

type Planner struct {
	g       *graph.Graph
	configs map[graph.Mode]ModeConfig
}

// NewPlanner creates a planner over the given graph. Passing nil configs
// uses DefaultConfigs.
func NewPlanner(g *graph.Graph, configs map[graph.Mode]ModeConfig) *Planner {
	if configs == nil {
		configs = DefaultConfigs()
	}
	return &Planner{g: g, configs: configs}
}

// Route computes the least-cost path that starts by traversing the start
// edge and ends by traversing the end edge. The returned cost includes both.
// maxVisitedNodes bounds the search when positive, exceeding it returns
// ErrTruncated. An exhausted search returns ErrUnreachable.
func (p *Planner) Route(start graph.EdgeIndex, end graph.EdgeIndex, mode graph.Mode, maxVisitedNodes int) (Result, error) {
	if int(start) >= len(p.g.Edges) || int(end) >= len(p.g.Edges) {
		return Result{}, errors.Errorf("Edge index out of range (start=%d, end=%d, edges=%d)", start, end, len(p.g.Edges))
	}

	config, ok := p.configs[mode]
	if !ok {
		return Result{}, errors.Errorf("No configuration for travel mode '%s'", mode)
	}

	if !p.edgeAllowed(start, mode) || !p.edgeAllowed(end, mode) {
		return Result{}, ErrUnreachable
	}

	if start == end {
		return Result{Path: []graph.EdgeIndex{start}, Cost: p.edgeCost(start, config)}, nil
	}

	labels := make([]*nodeLabel, len(p.g.Nodes))
	queue := make(nodeQueue, 0)
	heap.Init(&queue)

	// Seed with the traversable endpoints of the start edge. The path cost
	// includes the start edge itself.
	startEdge := &p.g.Edges[start]
	startCost := p.edgeCost(start, config)

	seed := func(node graph.NodeIndex) {
		label := &nodeLabel{node: node, distance: startCost, incoming: start, predecessor: -1, index: -1}
		labels[node] = label
		heap.Push(&queue, label)
	}
	seed(startEdge.End)
	if !startEdge.CostFlags.OneWay() || !config.ObeyOneWay {
		if startEdge.Start != startEdge.End {
			seed(startEdge.Start)
		}
	}

	// Best known way of finally traversing the end edge.
	targetCost := uint32(math.MaxUint32)
	targetFrom := -1

	visited := 0
	for queue.Len() > 0 {
		current := heap.Pop(&queue).(*nodeLabel)
		current.settled = true

		visited++
		if maxVisitedNodes > 0 && visited > maxVisitedNodes {
			return Result{}, ErrTruncated
		}

		// Costs are non-negative, no later pop can undercut the current
		// distance. The target is final once it is at least matched.
		if targetFrom >= 0 && current.distance >= targetCost {
			break
		}

		node := &p.g.Nodes[current.node]
		for slot, edgeIndex := range node.Edges {
			edge := &p.g.Edges[edgeIndex]

			if edge.CostFlags.OneWay() && config.ObeyOneWay && current.node != edge.Start {
				continue
			}
			if !p.edgeAllowed(edgeIndex, mode) {
				continue
			}

			penalty := p.turnPenalty(node.Interactions[slot], config)
			distance := current.distance + p.edgeCost(edgeIndex, config) + penalty

			if edgeIndex == end {
				if distance < targetCost {
					targetCost = distance
					targetFrom = int(current.node)
				}
				continue
			}

			neighbor := edge.Other(current.node)
			label := labels[neighbor]
			if label == nil {
				label = &nodeLabel{node: neighbor, distance: distance, incoming: edgeIndex, predecessor: int(current.node), index: -1}
				labels[neighbor] = label
				heap.Push(&queue, label)
			} else if !label.settled && distance < label.distance {
				queue.update(label, distance, edgeIndex, int(current.node))
			}
		}
	}

	if targetFrom < 0 {
		return Result{}, ErrUnreachable
	}

	// Walk the predecessors back to the seed. Seed labels carry the start
	// edge as incoming edge, so the path always begins with it.
	path := []graph.EdgeIndex{end}
	for node := targetFrom; node >= 0; {
		label := labels[node]
		path = append(path, label.incoming)
		node = label.predecessor
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return Result{Path: path, Cost: targetCost}, nil
}

func (p *Planner) edgeCost(edge graph.EdgeIndex, config ModeConfig) uint32 {
	return uint32(math.Round(float64(p.g.Edges[edge].CostFlags.Cost()) * config.CostFactor))
}

func (p *Planner) edgeAllowed(edge graph.EdgeIndex, mode graph.Mode) bool {
	if len(p.g.Metadata) == 0 {
		return true
	}
	modes := p.g.Metadata[edge].Modes
	return modes == 0 || modes.Contains(mode)
}

// turnPenalty returns the cost of moving through a node onto the edge whose
// interaction pair is given. The incoming side of the pair is the traffic
// control at the node being crossed.
func (p *Planner) turnPenalty(pair graph.InteractionPair, config ModeConfig) uint32 {
	switch pair.Incoming {
	case graph.InteractionYield:
		return config.YieldPenalty
	case graph.InteractionStopSign:
		return config.StopSignPenalty
	case graph.InteractionTrafficLight:
		return config.TrafficLightPenalty
	default:
		return 0
	}
}
