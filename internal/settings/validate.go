package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidateRaw lists what is wrong with a persisted record. Problems are
// reported, not enforced: Normalize clamps them on load.
func ValidateRaw(raw rawConfig) error {
	var errs []string

	if raw.SellMode != nil {
		switch SellMode(*raw.SellMode) {
		case SellAll, SellCount:
		default:
			errs = append(errs, "sellMode must be one of: all, count")
		}
	}
	if raw.SellCount != nil && *raw.SellCount < 1 {
		errs = append(errs, "sellCount must be >= 1")
	}
	if raw.RebuyDelayMs != nil && *raw.RebuyDelayMs < 0 {
		errs = append(errs, "rebuyDelayMs must be >= 0")
	}
	if raw.Selected != nil {
		for _, n := range raw.Selected.Names() {
			if strings.TrimSpace(n) == "" {
				errs = append(errs, "selected must not contain empty unit names")
				break
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("settings validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Normalize clamps every field into its valid range.
func Normalize(cfg Config) Config {
	cfg.SellMode = ParseSellMode(string(cfg.SellMode))
	cfg.SellCount = ClampCount(cfg.SellCount)
	cfg.RebuyDelayMs = ClampDelay(cfg.RebuyDelayMs)
	return cfg
}

// ClampCount keeps a sell count at 1 or more.
func ClampCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ClampDelay keeps a rebuy delay at 0 or more.
func ClampDelay(ms int) int {
	if ms < 0 {
		return 0
	}
	return ms
}

// ParseCount reads a sell count typed by the operator. Fractions are
// truncated; anything unreadable becomes 1.
func ParseCount(s string) int {
	return ClampCount(parseLoose(s))
}

// ParseDelay reads a delay in milliseconds typed by the operator.
// Anything unreadable becomes 0.
func ParseDelay(s string) int {
	return ClampDelay(parseLoose(s))
}

func parseLoose(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}
