package pricing

// MaxAffordable returns how many copies can be bought with budget on
// top of owned, together with their cumulative cost.
func (c Curve) MaxAffordable(owned int, budget int64) (n int, cost int64) {
	if budget <= 0 || c.Base <= 0 {
		return 0, 0
	}
	// exponential probe, then binary search on the monotonic cost
	hi := 1
	for c.Cost(owned, hi) <= budget {
		hi *= 2
		if hi > 1<<20 {
			break
		}
	}
	lo := 0
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.Cost(owned, mid) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, c.Cost(owned, lo)
}
