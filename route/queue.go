package route

import (
	"container/heap"

	"tobmap/graph"
)

// nodeLabel is the search state of one node: the best known distance, the
// edge the node was reached through and the predecessor node for path
// reconstruction. It doubles as the priority queue item.
type nodeLabel struct {
	node        graph.NodeIndex
	distance    uint32
	incoming    graph.EdgeIndex
	predecessor int // Node index of the predecessor, -1 for seed labels.
	settled     bool
	index       int // Position in the heap, -1 when not queued.
}

// A nodeQueue implements heap.Interface as a min-heap over node labels.
type nodeQueue []*nodeLabel

func (q nodeQueue) Len() int {
	return len(q)
}

func (q nodeQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	// Equal priorities resolve to the smaller node index for deterministic
	// search order.
	return q[i].node < q[j].node
}

func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}

func (q *nodeQueue) Push(item interface{}) {
	label := item.(*nodeLabel)
	label.index = len(*q)
	*q = append(*q, label)
}

func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	label := old[n-1]
	old[n-1] = nil
	label.index = -1
	*q = old[0 : n-1]
	return label
}

func (q *nodeQueue) update(label *nodeLabel, distance uint32, incoming graph.EdgeIndex, predecessor int) {
	label.distance = distance
	label.incoming = incoming
	label.predecessor = predecessor
	heap.Fix(q, label.index)
}
