// Package sim is a small deterministic idle game implementing the host
// contracts. The daemon runs it as the game being automated and tests
// use it as a scriptable host.
package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/pricing"
)

var (
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNotOwned          = errors.New("not enough units owned")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// UnitSpec describes one building type.
type UnitSpec struct {
	Name    string
	Curve   pricing.Curve
	PerTick int64 // currency produced per owned copy per tick
	Start   int   // copies owned at construction
}

// DefaultUnits is the registry used by the daemon. The first entry is
// the free unit.
var DefaultUnits = []UnitSpec{
	{Name: "Cursor", Curve: pricing.Curve{Base: 15}, PerTick: 1, Start: 1},
	{Name: "Grandma", Curve: pricing.Curve{Base: 100}, PerTick: 3},
	{Name: "Farm", Curve: pricing.Curve{Base: 1100}, PerTick: 8},
	{Name: "Mine", Curve: pricing.Curve{Base: 12000}, PerTick: 47},
	{Name: "Factory", Curve: pricing.Curve{Base: 130000}, PerTick: 260},
	{Name: "Bank", Curve: pricing.Curve{Base: 1400000}, PerTick: 1400},
	{Name: "Temple", Curve: pricing.Curve{Base: 20000000}, PerTick: 7800},
	{Name: "Wizard tower", Curve: pricing.Curve{Base: 330000000}, PerTick: 44000},
}

// Options configures a simulation.
type Options struct {
	Units []UnitSpec // nil means DefaultUnits
	Bank  int64      // starting currency

	// BonusChance is the per-tick probability that one copy of a random
	// non-free unit is granted for free.
	BonusChance float64
	RNG         RandomSource

	// OnNotify receives every notification after it is recorded.
	OnNotify func(host.Notification)
	OnPrompt func(PromptRecord)
}

// Op names a trade direction.
type Op string

const (
	OpSell Op = "sell"
	OpBuy  Op = "buy"
)

// Trade is one completed sell or buy.
type Trade struct {
	Op     Op
	Unit   string
	N      int
	Amount int64 // currency moved
}

// TradeHook runs before every trade; a non-nil error aborts the trade
// and is returned to the caller.
type TradeHook func(op Op, unit string, n int) error

// PromptRecord is one modal shown through Prompt.
type PromptRecord struct {
	Markup  string
	Buttons []string
}

// Sim is the simulated game. Safe for concurrent use.
type Sim struct {
	mu sync.Mutex

	units  []*unit
	byName map[string]*unit

	bank        int64
	ticks       uint64
	draws       uint64
	bonusChance float64
	rng         RandomSource
	hook        TradeHook
	trades      []Trade

	notes    []host.Notification
	prompts  []PromptRecord
	onNotify func(host.Notification)
	onPrompt func(PromptRecord)

	mods  []registeredMod
	saved map[string]string
	ready bool
}

type registeredMod struct {
	id  string
	mod host.Mod
}

// New builds a simulation from opts.
func New(opts Options) *Sim {
	specs := opts.Units
	if specs == nil {
		specs = DefaultUnits
	}
	rng := opts.RNG
	if rng == nil {
		rng = DefaultRNG()
	}
	s := &Sim{
		byName:      make(map[string]*unit, len(specs)),
		bank:        opts.Bank,
		bonusChance: opts.BonusChance,
		rng:         rng,
		onNotify:    opts.OnNotify,
		onPrompt:    opts.OnPrompt,
		saved:       make(map[string]string),
	}
	for _, spec := range specs {
		u := &unit{sim: s, spec: spec, amount: spec.Start}
		s.units = append(s.units, u)
		s.byName[spec.Name] = u
	}
	return s
}

// Logic runs one tick: production is added to the bank and a bonus
// copy may be granted.
func (s *Sim) Logic() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks++
	for _, u := range s.units {
		s.bank += u.spec.PerTick * int64(u.amount)
	}
	if len(s.units) < 2 {
		return nil
	}
	hit, err := roll(s.bonusChance, s.rng)
	if err != nil {
		return fmt.Errorf("bonus roll: %w", err)
	}
	if hit {
		s.units[1+pick(len(s.units)-1, s.rng)].amount++
	}
	return nil
}

func (s *Sim) Draw() {
	s.mu.Lock()
	s.draws++
	s.mu.Unlock()
}

func (s *Sim) Units() []host.Unit {
	out := make([]host.Unit, len(s.units))
	for i, u := range s.units {
		out[i] = u
	}
	return out
}

func (s *Sim) Unit(name string) (host.Unit, bool) {
	u, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return u, true
}

func (s *Sim) FreeUnit() string {
	if len(s.units) == 0 {
		return ""
	}
	return s.units[0].spec.Name
}

func (s *Sim) Notify(n host.Notification) {
	s.mu.Lock()
	s.notes = append(s.notes, n)
	sink := s.onNotify
	s.mu.Unlock()
	if sink != nil {
		sink(n)
	}
}

func (s *Sim) Prompt(markup string, buttons []string) {
	rec := PromptRecord{Markup: markup, Buttons: append([]string(nil), buttons...)}
	s.mu.Lock()
	s.prompts = append(s.prompts, rec)
	sink := s.onPrompt
	s.mu.Unlock()
	if sink != nil {
		sink(rec)
	}
}

// SetTradeHook installs h; nil removes it.
func (s *Sim) SetTradeHook(h TradeHook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// SetAmount overwrites the owned copies of a unit, as background
// activity of the game would.
func (s *Sim) SetAmount(name string, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	if n < 0 {
		n = 0
	}
	u.amount = n
	return nil
}

func (s *Sim) SetBank(v int64) {
	s.mu.Lock()
	s.bank = v
	s.mu.Unlock()
}

func (s *Sim) Bank() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank
}

// Ticks returns how many times Logic ran.
func (s *Sim) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Sim) Draws() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draws
}

// Amounts returns owned copies per unit name.
func (s *Sim) Amounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.units))
	for _, u := range s.units {
		out[u.spec.Name] = u.amount
	}
	return out
}

func (s *Sim) Trades() []Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Trade(nil), s.trades...)
}

func (s *Sim) Notifications() []host.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]host.Notification(nil), s.notes...)
}

func (s *Sim) Prompts() []PromptRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PromptRecord(nil), s.prompts...)
}

type unit struct {
	sim    *Sim
	spec   UnitSpec
	amount int
}

func (u *unit) Name() string { return u.spec.Name }

func (u *unit) Amount() int {
	u.sim.mu.Lock()
	defer u.sim.mu.Unlock()
	return u.amount
}

func (u *unit) Sell(n int) error {
	return u.sim.trade(u, OpSell, n)
}

func (u *unit) Buy(n int) error {
	return u.sim.trade(u, OpBuy, n)
}

func (s *Sim) trade(u *unit, op Op, n int) error {
	if n <= 0 {
		return fmt.Errorf("%s %d %s: %w", op, n, u.spec.Name, ErrInvalidQuantity)
	}

	s.mu.Lock()
	hook := s.hook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(op, u.spec.Name, n); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch op {
	case OpSell:
		if n > u.amount {
			return fmt.Errorf("sell %d %s (own %d): %w", n, u.spec.Name, u.amount, ErrNotOwned)
		}
		refund := u.spec.Curve.Refund(u.amount, n)
		u.amount -= n
		s.bank += refund
		s.trades = append(s.trades, Trade{Op: op, Unit: u.spec.Name, N: n, Amount: refund})
	case OpBuy:
		cost := u.spec.Curve.Cost(u.amount, n)
		if cost > s.bank {
			can, _ := u.spec.Curve.MaxAffordable(u.amount, s.bank)
			return fmt.Errorf("buy %d %s costs %d, bank %d affords %d: %w", n, u.spec.Name, cost, s.bank, can, ErrInsufficientFunds)
		}
		u.amount += n
		s.bank -= cost
		s.trades = append(s.trades, Trade{Op: op, Unit: u.spec.Name, N: n, Amount: cost})
	}
	return nil
}
