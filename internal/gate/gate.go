// Package gate sits between the game's scheduler and its per-tick update
// so the operator can halt the simulation and advance it one tick at a
// time.
package gate

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xtding233/burst-helper/internal/clock"
	"github.com/xtding233/burst-helper/internal/host"
)

// State is the gate's pause state.
type State int32

const (
	Running State = iota
	Paused
)

func (s State) String() string {
	if s == Paused {
		return "paused"
	}
	return "running"
}

// TickFunc is the host's per-tick update.
type TickFunc func() error

// Options configures a Gate. Every field is optional.
type Options struct {
	// Draw redraws the host after a manual step.
	Draw     func()
	Notifier host.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Stats counts what happened to tick requests.
type Stats struct {
	Forwarded uint64 // scheduler ticks passed to the host
	Swallowed uint64 // scheduler ticks dropped while paused
	Stepped   uint64 // manual single steps
}

// Gate owns the pause state. The wrapped update runs only through Tick
// (scheduler driven, suppressed while paused) or Step (manual).
type Gate struct {
	tick     TickFunc
	draw     func()
	notifier host.Notifier
	clock    clock.Clock
	log      *slog.Logger

	// transitions serializes Pause, Resume and Step
	transitions sync.Mutex
	paused      atomic.Bool

	mu        sync.Mutex
	listeners []func(State)

	forwarded atomic.Uint64
	swallowed atomic.Uint64
	stepped   atomic.Uint64
}

// New wraps tick. The gate starts Running.
func New(tick TickFunc, opts Options) *Gate {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		tick:     tick,
		draw:     opts.Draw,
		notifier: opts.Notifier,
		clock:    clk,
		log:      logger.With("component", "gate"),
	}
}

// Tick is the intercepted update entry point. While paused the call is
// swallowed and nil returned; otherwise the host update runs and its
// error is returned unchanged.
func (g *Gate) Tick() error {
	if g.paused.Load() {
		g.swallowed.Add(1)
		return nil
	}
	g.forwarded.Add(1)
	return g.tick()
}

func (g *Gate) Paused() bool { return g.paused.Load() }

func (g *Gate) State() State {
	if g.paused.Load() {
		return Paused
	}
	return Running
}

// Pause halts scheduler ticks and tells the operator. Pausing while
// paused does nothing.
func (g *Gate) Pause() {
	g.transitions.Lock()
	changed := g.paused.CompareAndSwap(false, true)
	g.transitions.Unlock()
	if !changed {
		return
	}
	g.log.Debug("simulation paused")
	if g.notifier != nil {
		g.notifier.Notify(host.Notification{
			Title:   "Paused",
			Message: "Game logic is halted. Use Step or unpause to resume.",
			Icon:    host.DefaultIcon,
		})
	}
	g.changed(Paused)
}

// Resume lets scheduler ticks through again. Resuming while running does
// nothing.
func (g *Gate) Resume() {
	g.transitions.Lock()
	changed := g.paused.CompareAndSwap(true, false)
	g.transitions.Unlock()
	if !changed {
		return
	}
	g.log.Debug("simulation resumed")
	g.changed(Running)
}

// Toggle resumes when paused and pauses when running. It returns the new
// state.
func (g *Gate) Toggle() State {
	if g.Paused() {
		g.Resume()
	} else {
		g.Pause()
	}
	return g.State()
}

// Step runs the host update exactly once, then redraws. For the duration
// of the call the gate behaves as paused, so a scheduler tick arriving
// meanwhile is swallowed; the prior state is restored afterwards, also
// when the update fails.
func (g *Gate) Step() error {
	g.transitions.Lock()
	defer g.transitions.Unlock()

	prior := g.paused.Swap(true)
	defer g.paused.Store(prior)

	g.stepped.Add(1)
	if err := g.tick(); err != nil {
		return err
	}
	if g.draw != nil {
		g.draw()
	}
	return nil
}

// OnChange registers fn to run after every pause state change.
func (g *Gate) OnChange(fn func(State)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

func (g *Gate) changed(s State) {
	g.mu.Lock()
	listeners := slices.Clone(g.listeners)
	g.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

func (g *Gate) Stats() Stats {
	return Stats{
		Forwarded: g.forwarded.Load(),
		Swallowed: g.swallowed.Load(),
		Stepped:   g.stepped.Load(),
	}
}

// Run is the scheduling loop: it calls Tick every interval until ctx is
// done. Update errors are logged and the loop carries on.
func (g *Gate) Run(ctx context.Context, interval time.Duration) error {
	ticker := g.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.Tick(); err != nil {
				g.log.Warn("tick failed", "error", err)
			}
		}
	}
}
