package controller

import (
	"errors"
	"strings"

	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/settings"
)

// Init is called by the host once it is ready. It shows the overlay and
// greets the operator.
func (c *Controller) Init() {
	c.overlay.install(c.Settings(), c.Paused())
	c.host.Notify(host.Notification{
		Title:   ModID,
		Message: "Loaded. Configure via the bottom-right Config button.",
		Icon:    host.DefaultIcon,
	})
}

// Save returns the settings as the blob the host keeps with its save.
func (c *Controller) Save() string {
	blob, err := c.settings.Export()
	if err != nil {
		c.log.Warn("export settings", "error", err)
		return ""
	}
	return blob
}

// Load restores a blob written by Save. An unreadable blob is ignored
// and the current settings stay in place.
func (c *Controller) Load(blob string) {
	if strings.TrimSpace(blob) == "" {
		return
	}
	err := c.settings.Import(blob)
	if err != nil && !errors.Is(err, settings.ErrNotSaved) {
		c.log.Warn("host blob ignored", "error", err)
		return
	}
	c.checkSaved(err)
	c.log.Info("settings restored from host save")
}

var _ host.Mod = (*Controller)(nil)
