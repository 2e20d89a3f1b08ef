package builder

// CostFn computes the traversal cost of an edge from its length and the road
// class of its way. The result is rounded and clamped into the 13 bit cost
// field by the builder.
type CostFn func(lengthMeters float64, priority uint8) float64

// speedKmhByPriority maps the road class onto a typical travel speed.
// Priority 10 are motorways, low priorities are residential streets and
// paths.
var speedKmhByPriority = [11]float64{5, 5, 10, 15, 20, 30, 30, 40, 50, 80, 100}

// DefaultCostFn returns the travel time in seconds at the typical speed of
// the given road class.
func DefaultCostFn(lengthMeters float64, priority uint8) float64 {
	if priority > 10 {
		priority = 10
	}

	speedKmh := speedKmhByPriority[priority]
	return lengthMeters / (speedKmh * 1000.0 / 3600.0)
}
