package tech

import "math"

// Cost returns the purchase price of a node under a per-branch discount
// multiplier (1.0 = no discount).
//
// Free nodes (base cost 0) always cost 0 regardless of curve or tier. For an
// exponential curve the raw price is baseCost * k^tier at full float
// precision; flooring happens only at the very last step. Unrecognized curve
// kinds degrade to the flat base cost.
func (g *Graph) Cost(n *Node, discount float64) float64 {
	if n == nil || n.BaseCost == 0 {
		return 0
	}
	raw := n.BaseCost
	if c, ok := g.Curves[n.Curve]; ok && c.Kind == CurveExponential {
		raw = n.BaseCost * math.Pow(c.K, float64(n.Tier))
	}
	return math.Floor(raw * discount)
}
