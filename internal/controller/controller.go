// Package controller composes the settings store, the tick gate, the
// burst transaction and the hotkeys into the surface the host, the RPC
// service and the terminal UI drive.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xtding233/burst-helper/internal/burst"
	"github.com/xtding233/burst-helper/internal/clock"
	"github.com/xtding233/burst-helper/internal/gate"
	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/hotkey"
	"github.com/xtding233/burst-helper/internal/settings"
)

// ModID is the name the controller registers under with the host.
const ModID = "Godzamok Helper"

// Options configures a Controller. Every field is optional.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

// Controller is the operational surface of the helper.
type Controller struct {
	host     host.Host
	settings *settings.Settings
	gate     *gate.Gate
	burst    *burst.Transaction
	keys     *hotkey.Dispatcher
	clock    clock.Clock
	log      *slog.Logger

	overlay *overlay
}

// New wires a controller to h, keeping its settings in store. A failure
// to write the seeded settings is reported to the operator but does not
// stop construction.
func New(h host.Host, store settings.Store, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	c := &Controller{host: h, clock: clk, log: logger.With("component", "controller")}

	s, err := settings.Open(store, settings.Options{
		Units:  host.UnitNames(h.Units()),
		Free:   h.FreeUnit(),
		Logger: logger,
	})
	c.settings = s
	c.checkSaved(err)

	c.gate = gate.New(h.Logic, gate.Options{
		Draw:     h.Draw,
		Notifier: h,
		Clock:    clk,
		Logger:   logger,
	})
	c.burst = burst.New(h, s, burst.Options{
		Gate:     c.gate,
		Notifier: h,
		Clock:    clk,
		Logger:   logger,
	})

	c.keys = hotkey.New(func() bool { return c.settings.Snapshot().PauseHotkeys })
	c.keys.Bind(hotkey.TogglePause, func() { c.TogglePause() })
	c.keys.Bind(hotkey.Step, func() {
		if err := c.Step(); err != nil {
			c.log.Warn("step failed", "error", err)
		}
	})

	c.overlay = newOverlay()
	c.gate.OnChange(func(gate.State) { c.overlay.rebuild(c.settings.Snapshot(), c.Paused()) })
	s.OnChange(func(cfg settings.Config) { c.overlay.rebuild(cfg, c.Paused()) })
	return c
}

// checkSaved surfaces a settings write failure. The change itself has
// already been applied in memory.
func (c *Controller) checkSaved(err error) error {
	if !errors.Is(err, settings.ErrNotSaved) {
		return err
	}
	c.log.Warn("settings not saved", "error", err)
	c.host.Notify(host.Notification{
		Title:   "Settings not saved",
		Message: err.Error(),
		Icon:    host.DefaultIcon,
	})
	return err
}

func (c *Controller) Pause()  { c.gate.Pause() }
func (c *Controller) Resume() { c.gate.Resume() }

func (c *Controller) TogglePause() gate.State { return c.gate.Toggle() }

// Step advances the host exactly one tick.
func (c *Controller) Step() error { return c.gate.Step() }

// Tick is the scheduler's entry point into the host update.
func (c *Controller) Tick() error { return c.gate.Tick() }

func (c *Controller) Burst(ctx context.Context) (burst.Result, error) {
	return c.burst.Burst(ctx)
}

func (c *Controller) Bursting() bool { return c.burst.Running() }

// HandleKey offers a key press to the hotkey bindings and reports
// whether it was consumed.
func (c *Controller) HandleKey(key string) bool { return c.keys.Handle(key) }

func (c *Controller) Settings() settings.Config { return c.settings.Snapshot() }
func (c *Controller) Paused() bool              { return c.gate.Paused() }
func (c *Controller) Stats() gate.Stats         { return c.gate.Stats() }

// Units lists the host's units in registry order.
func (c *Controller) Units() []host.Unit { return c.host.Units() }

// OnSettingsChange registers fn to run after every settings change.
func (c *Controller) OnSettingsChange(fn func(settings.Config)) { c.settings.OnChange(fn) }

// Run drives the scheduling loop until ctx is done.
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	return c.gate.Run(ctx, interval)
}

// Reload re-reads the settings store, picking up external edits.
func (c *Controller) Reload() settings.Config { return c.settings.Load() }

// Watch reloads the settings whenever store's file changes on disk.
// Stop the returned watcher when done.
func (c *Controller) Watch(store settings.FileStore, interval time.Duration) *settings.FileWatcher {
	return settings.Watch(c.settings, store, interval, c.clock)
}

func (c *Controller) SetSellMode(mode string) error {
	return c.checkSaved(c.settings.SetSellMode(mode))
}

func (c *Controller) SetSellCount(n int) error {
	return c.checkSaved(c.settings.SetSellCount(n))
}

func (c *Controller) SetRebuyDelay(ms int) error {
	return c.checkSaved(c.settings.SetRebuyDelay(ms))
}

func (c *Controller) SetRebuy(on bool) error {
	return c.checkSaved(c.settings.SetRebuy(on))
}

func (c *Controller) SetSelected(unit string, on bool) error {
	return c.checkSaved(c.settings.SetSelected(unit, on))
}

func (c *Controller) SetAutoPause(on bool) error {
	return c.checkSaved(c.settings.SetAutoPause(on))
}

func (c *Controller) SetAutoResume(on bool) error {
	return c.checkSaved(c.settings.SetAutoResume(on))
}

func (c *Controller) SetHotkeys(on bool) error {
	return c.checkSaved(c.settings.SetHotkeys(on))
}

func (c *Controller) SetFloatingButton(on bool) error {
	return c.checkSaved(c.settings.SetFloatingButton(on))
}

// Apply sets one settings field from its textual form.
func (c *Controller) Apply(key, value string) error {
	return c.checkSaved(c.settings.Apply(key, value))
}
