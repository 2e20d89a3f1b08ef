package graph

import (
	"testing"

	"tobmap/util"
)

func TestCostFlags_allFlagCombinations(t *testing.T) {
	for _, cost := range []uint16{0, 1, 42, 4095, 8190, 8191} {
		for _, oneWay := range []bool{false, true} {
			packed := NewCostFlags(cost, oneWay)

			util.AssertEqual(t, cost, packed.Cost())
			util.AssertEqual(t, oneWay, packed.OneWay())
		}
	}
}

func TestCostFlags_bitLayout(t *testing.T) {
	// The cost lives in the high 13 bits, the one-way flag in bit 2.
	util.AssertEqual(t, CostFlags(0b0000000000001000), NewCostFlags(1, false))
	util.AssertEqual(t, CostFlags(0b0000000000001100), NewCostFlags(1, true))
	util.AssertEqual(t, CostFlags(0b1111111111111000), NewCostFlags(8191, false))
	util.AssertEqual(t, CostFlags(0b0000000000000100), NewCostFlags(0, true))
}

func TestCostFlags_clampsOverflow(t *testing.T) {
	packed := NewCostFlags(9000, false)

	util.AssertEqual(t, uint16(MaxCost), packed.Cost())
	util.AssertFalse(t, packed.OneWay())
}

func TestCostFlags_reservedBitsStayZero(t *testing.T) {
	packed := NewCostFlags(8191, true)

	util.AssertEqual(t, CostFlags(0), packed&reservedBit)
}
