package pricing

import "testing"

func TestCostMatchesUnitSum(t *testing.T) {
	c := Curve{Base: 100, Growth: 1.15}
	var want float64
	for i := 0; i < 5; i++ {
		want += c.price(3 + i)
	}
	got := c.Cost(3, 5)
	if diff := float64(got) - want; diff < 0 || diff >= 1 {
		t.Fatalf("Cost(3,5)=%d, want ceil(%f)", got, want)
	}
	if c.Cost(3, 0) != 0 || c.Cost(3, -2) != 0 {
		t.Fatalf("non-positive n must cost nothing")
	}
}

func TestRefundCappedAtOwned(t *testing.T) {
	c := Curve{Base: 15}
	if got, want := c.Refund(4, 10), c.Refund(4, 4); got != want {
		t.Fatalf("Refund(4,10)=%d, want same as Refund(4,4)=%d", got, want)
	}
	if c.Refund(0, 3) != 0 {
		t.Fatalf("refund with nothing owned must be 0")
	}
	// selling back what was just bought returns a quarter of the price
	cost := c.Cost(0, 4)
	refund := c.Refund(4, 4)
	if refund > cost/4+1 || refund < cost/4-1 {
		t.Fatalf("refund=%d not ~ cost/4 (cost=%d)", refund, cost)
	}
}

func TestMaxAffordable(t *testing.T) {
	c := Curve{Base: 10, Growth: 1.15}
	for _, budget := range []int64{0, 9, 10, 100, 12345} {
		n, cost := c.MaxAffordable(2, budget)
		if cost > budget {
			t.Fatalf("budget %d: cost %d exceeds budget", budget, cost)
		}
		if c.Cost(2, n+1) <= budget {
			t.Fatalf("budget %d: could afford %d, got %d", budget, n+1, n)
		}
	}
}
