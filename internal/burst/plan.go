package burst

import (
	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/settings"
)

// Inventory looks up the host's units by name.
type Inventory interface {
	Unit(name string) (host.Unit, bool)
}

// Line is one selected unit type within a burst.
type Line struct {
	Unit     string
	Owned    int // snapshot taken before selling
	Sell     int
	Rebought int

	unit host.Unit
}

// Plan is the snapshot and per-type sell quantities of one burst.
type Plan struct {
	Selected []string // selected names, in selection order
	Lines    []Line   // selected names the host knows
	Missing  []string // selected names the host does not know
	Total    int
}

// SellQuantity is how many of owned copies a burst sells under cfg:
// everything in SellAll mode, min(SellCount, owned) in SellCount mode,
// never negative.
func SellQuantity(cfg settings.Config, owned int) int {
	n := owned
	if cfg.SellMode == settings.SellCount && cfg.SellCount < owned {
		n = cfg.SellCount
	}
	if n < 0 {
		return 0
	}
	return n
}

// NewPlan snapshots the owned amount of every selected unit and works
// out what to sell. It does not touch the host.
func NewPlan(cfg settings.Config, inv Inventory) Plan {
	p := Plan{Selected: cfg.Selected.Selected()}
	for _, name := range p.Selected {
		u, ok := inv.Unit(name)
		if !ok {
			p.Missing = append(p.Missing, name)
			continue
		}
		owned := u.Amount()
		n := SellQuantity(cfg, owned)
		p.Lines = append(p.Lines, Line{Unit: name, Owned: owned, Sell: n, unit: u})
		p.Total += n
	}
	return p
}
