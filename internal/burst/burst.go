// Package burst sells the selected unit types and buys the same
// quantities back after a short delay.
package burst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/xtding233/burst-helper/internal/clock"
	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/settings"
)

// ErrInFlight is returned when Burst is called while another burst of
// the same Transaction has not finished.
var ErrInFlight = errors.New("burst already in progress")

const notifyTitle = "Godzamok Burst"

// Outcome classifies how a burst ended.
type Outcome string

const (
	NothingSelected Outcome = "nothing_selected"
	NothingToSell   Outcome = "nothing_to_sell"
	Completed       Outcome = "completed"
)

// Result reports one burst.
type Result struct {
	Outcome        Outcome
	Lines          []Line
	Total          int  // copies sold
	RebuyAttempted bool // rebuy was enabled for this burst
}

// Rebought sums the copies bought back.
func (r Result) Rebought() int {
	n := 0
	for _, l := range r.Lines {
		n += l.Rebought
	}
	return n
}

// ConfigSource hands out the current settings.
type ConfigSource interface {
	Snapshot() settings.Config
}

// Pauser is the part of the tick gate a burst drives.
type Pauser interface {
	Pause()
	Resume()
}

// Options configures a Transaction. Every field is optional.
type Options struct {
	Gate     Pauser
	Notifier host.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Transaction runs bursts against one host.
type Transaction struct {
	inv      Inventory
	cfg      ConfigSource
	gate     Pauser
	notifier host.Notifier
	clock    clock.Clock
	log      *slog.Logger

	running atomic.Bool
}

func New(inv Inventory, cfg ConfigSource, opts Options) *Transaction {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transaction{
		inv:      inv,
		cfg:      cfg,
		gate:     opts.Gate,
		notifier: opts.Notifier,
		clock:    clk,
		log:      logger.With("component", "burst"),
	}
}

// Running reports whether a burst is in progress.
func (t *Transaction) Running() bool { return t.running.Load() }

// Burst sells every selected unit type, waits the configured delay and
// buys back up to the snapshot amounts.
//
// Host trade failures are returned as they happen: units already sold
// stay sold and the remaining phases are skipped. Once the sell phase
// has started the burst runs to the end even if ctx is cancelled, so
// sold units are always bought back.
func (t *Transaction) Burst(ctx context.Context) (Result, error) {
	if !t.running.CompareAndSwap(false, true) {
		return Result{}, ErrInFlight
	}
	defer t.running.Store(false)

	cfg := t.cfg.Snapshot()
	plan := NewPlan(cfg, t.inv)
	for _, name := range plan.Missing {
		t.log.Warn("selected unit unknown to host, skipped", "unit", name)
	}

	if len(plan.Selected) == 0 {
		t.notify("Godzamok Helper", "No buildings selected.")
		return Result{Outcome: NothingSelected}, nil
	}
	if plan.Total == 0 {
		t.notify("Godzamok Helper", "Nothing to sell.")
		return Result{Outcome: NothingToSell, Lines: plan.Lines}, nil
	}

	res := Result{Lines: plan.Lines, Total: plan.Total, RebuyAttempted: cfg.Rebuy}

	autoPaused := cfg.AutoPauseBeforeBurst && t.gate != nil
	if autoPaused {
		t.gate.Pause()
	}

	for _, l := range res.Lines {
		if l.Sell <= 0 {
			continue
		}
		if err := l.unit.Sell(l.Sell); err != nil {
			return res, fmt.Errorf("sell %d %s: %w", l.Sell, l.Unit, err)
		}
	}
	t.log.Info("burst sold", "total", res.Total, "units", len(res.Lines))

	if cfg.Rebuy {
		if ctx.Err() != nil {
			t.log.Info("caller gone during burst, rebuying anyway")
		}
		t.wait(cfg.RebuyDelay())
		for i := range res.Lines {
			l := &res.Lines[i]
			need := l.Owned - l.unit.Amount()
			if need <= 0 {
				continue
			}
			if err := l.unit.Buy(need); err != nil {
				return res, fmt.Errorf("rebuy %d %s: %w", need, l.Unit, err)
			}
			l.Rebought = need
		}
		t.log.Info("burst rebought", "total", res.Rebought())
	}

	t.resume(autoPaused, cfg)

	res.Outcome = Completed
	t.notify(notifyTitle, summary(res))
	return res, nil
}

// wait suspends for the rebuy delay. It is not tied to the caller's
// context: a pending delay always elapses.
func (t *Transaction) wait(delay time.Duration) {
	if delay <= 0 {
		return
	}
	elapsed := make(chan struct{})
	t.clock.AfterFunc(delay, func() { close(elapsed) })
	<-elapsed
}

func (t *Transaction) resume(autoPaused bool, cfg settings.Config) {
	if autoPaused && cfg.AutoResumeAfterBurst {
		t.gate.Resume()
	}
}

func (t *Transaction) notify(title, msg string) {
	if t.notifier == nil {
		return
	}
	t.notifier.Notify(host.Notification{Title: title, Message: msg, Icon: host.DefaultIcon})
}

func summary(r Result) string {
	plural := "s"
	if r.Total == 1 {
		plural = ""
	}
	if r.RebuyAttempted {
		return fmt.Sprintf("Sold %d building%s and repurchased.", r.Total, plural)
	}
	return fmt.Sprintf("Sold %d building%s.", r.Total, plural)
}
