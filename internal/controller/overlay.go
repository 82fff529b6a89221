package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xtding233/burst-helper/internal/settings"
)

var ErrUnknownButton = errors.New("unknown button")

// Button ids, bottom to top.
const (
	ButtonBurst  = "burst"
	ButtonPause  = "pause"
	ButtonStep   = "step"
	ButtonConfig = "config"
)

// Button is one entry of the floating overlay.
type Button struct {
	ID    string
	Label string
}

// overlay caches the button row. Nothing is shown until install.
type overlay struct {
	mu        sync.Mutex
	installed bool
	buttons   []Button
}

func newOverlay() *overlay { return &overlay{} }

func (o *overlay) install(cfg settings.Config, paused bool) {
	o.mu.Lock()
	o.installed = true
	o.mu.Unlock()
	o.rebuild(cfg, paused)
}

func (o *overlay) rebuild(cfg settings.Config, paused bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.installed || !cfg.ShowFloatingButton {
		o.buttons = nil
		return
	}
	pause := "Pause"
	if paused {
		pause = "Unpause"
	}
	o.buttons = []Button{
		{ID: ButtonBurst, Label: "Godzamok Burst"},
		{ID: ButtonPause, Label: pause},
		{ID: ButtonStep, Label: "Step"},
		{ID: ButtonConfig, Label: "Config"},
	}
}

func (o *overlay) snapshot() []Button {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Button(nil), o.buttons...)
}

// Buttons returns the overlay row. It is empty before Init and while
// the floating buttons are switched off.
func (c *Controller) Buttons() []Button { return c.overlay.snapshot() }

// Press runs the action of an overlay button. Burst blocks until the
// burst finishes.
func (c *Controller) Press(ctx context.Context, id string) error {
	switch id {
	case ButtonBurst:
		_, err := c.Burst(ctx)
		return err
	case ButtonPause:
		c.TogglePause()
		return nil
	case ButtonStep:
		return c.Step()
	case ButtonConfig:
		c.OpenConfig()
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownButton, id)
}

// OpenConfig shows the settings in a host modal.
func (c *Controller) OpenConfig() {
	c.host.Prompt(renderConfig(c.Settings(), c.Paused()), []string{"Close"})
}

func renderConfig(cfg settings.Config, paused bool) string {
	var b strings.Builder
	b.WriteString("Godzamok Helper - Settings\n\n")
	b.WriteString("General\n")
	if cfg.SellMode == settings.SellCount {
		fmt.Fprintf(&b, "  Sell mode:    %d per building\n", cfg.SellCount)
	} else {
		b.WriteString("  Sell mode:    all selected\n")
	}
	fmt.Fprintf(&b, "  Rebuy:        %s (delay %d ms)\n", onOff(cfg.Rebuy), cfg.RebuyDelayMs)
	fmt.Fprintf(&b, "  Auto-pause:   %s\n", onOff(cfg.AutoPauseBeforeBurst))
	fmt.Fprintf(&b, "  Auto-resume:  %s\n", onOff(cfg.AutoResumeAfterBurst))
	fmt.Fprintf(&b, "  Hotkeys:      %s (P pause, O step)\n", onOff(cfg.PauseHotkeys))
	fmt.Fprintf(&b, "  Floating:     %s\n", onOff(cfg.ShowFloatingButton))
	state := "running"
	if paused {
		state = "paused"
	}
	fmt.Fprintf(&b, "  Game logic:   %s\n", state)

	b.WriteString("\nBuildings\n")
	for _, name := range cfg.Selected.Names() {
		mark := "[ ]"
		if cfg.Selected.Get(name) {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "  %s %s\n", mark, name)
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
