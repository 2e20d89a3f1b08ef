package graph

// CostFlags packs an edge's traversal cost and its flags into 16 bits. The
// bit layout is fixed and explicit:
//
//	bits 15..3: cost (13 bits, 0 to MaxCost)
//	bit      2: one-way flag
//	bits  1..0: reserved for future mode exclusion
//
// The cost sits in the most significant bits, the flags in the least
// significant ones.
type CostFlags uint16

const (
	// MaxCost is the largest cost the 13 bit field can hold. Larger computed
	// costs are clamped to this value.
	MaxCost = 8191

	costShift   = 3
	oneWayBit   = 1 << 2
	reservedBit = 0x3
)

// NewCostFlags packs the given cost and one-way flag. Costs above MaxCost
// are clamped, the caller is responsible for reporting the overflow.
func NewCostFlags(cost uint16, oneWay bool) CostFlags {
	if cost > MaxCost {
		cost = MaxCost
	}

	packed := CostFlags(cost) << costShift
	if oneWay {
		packed |= oneWayBit
	}
	return packed
}

// Cost returns the unpacked 13 bit cost.
func (c CostFlags) Cost() uint16 {
	return uint16(c >> costShift)
}

// OneWay reports whether the edge may only be traversed from its start node
// to its end node.
func (c CostFlags) OneWay() bool {
	return c&oneWayBit != 0
}
