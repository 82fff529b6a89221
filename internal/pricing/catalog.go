package pricing

import "math"

// DefaultGrowth is the per-unit price multiplier of a typical idle-game
// building: every owned copy makes the next one 15% more expensive.
const DefaultGrowth = 1.15

// DefaultRefundRate is the share of the current price returned on sale.
const DefaultRefundRate = 0.25

// Curve models the geometric price of one unit type.
type Curve struct {
	Base       float64 // price of the first copy
	Growth     float64 // multiplier per owned copy; <= 1 means DefaultGrowth
	RefundRate float64 // fraction of price refunded on sale; 0 means DefaultRefundRate
}

// price returns the price of the copy bought when 'owned' are held.
func (c Curve) price(owned int) float64 {
	return c.Base * math.Pow(c.growth(), float64(owned))
}

func (c Curve) growth() float64 {
	if c.Growth <= 1 {
		return DefaultGrowth
	}
	return c.Growth
}

func (c Curve) refundRate() float64 {
	if c.RefundRate <= 0 || c.RefundRate > 1 {
		return DefaultRefundRate
	}
	return c.RefundRate
}

// Cost is the cumulative price of buying n more copies on top of owned.
// Rounded up to whole currency units.
func (c Curve) Cost(owned, n int) int64 {
	if n <= 0 {
		return 0
	}
	if owned < 0 {
		owned = 0
	}
	// geometric series: price(owned) * (g^n - 1) / (g - 1)
	g := c.growth()
	sum := c.price(owned) * (math.Pow(g, float64(n)) - 1) / (g - 1)
	return int64(math.Ceil(sum - 1e-9))
}

// Refund is what selling n of the owned copies returns. Selling more
// than owned is capped at owned. Rounded down.
func (c Curve) Refund(owned, n int) int64 {
	if n > owned {
		n = owned
	}
	if n <= 0 {
		return 0
	}
	// the copies given back are the most expensive ones: owned-n .. owned-1
	g := c.growth()
	sum := c.price(owned-n) * (math.Pow(g, float64(n)) - 1) / (g - 1)
	return int64(math.Floor(sum*c.refundRate() + 1e-9))
}
