// types.go
package settings

import "time"

// StorageKey is the fixed key the record is persisted under.
const StorageKey = "burstHelperCfgV2"

// SellMode selects how many copies a burst sells per selected unit.
type SellMode string

const (
	// SellAll sells every owned copy.
	SellAll SellMode = "all"
	// SellCount sells at most Config.SellCount copies.
	SellCount SellMode = "count"
)

// ParseSellMode maps anything but "count" to SellAll.
func ParseSellMode(s string) SellMode {
	if SellMode(s) == SellCount {
		return SellCount
	}
	return SellAll
}

// Config is the add-on's whole persisted state.
type Config struct {
	SellMode     SellMode  `yaml:"sellMode" json:"sellMode"`
	SellCount    int       `yaml:"sellCount" json:"sellCount"`
	Rebuy        bool      `yaml:"rebuy" json:"rebuy"`
	RebuyDelayMs int       `yaml:"rebuyDelayMs" json:"rebuyDelayMs"`
	Selected     Selection `yaml:"selected" json:"selected"`

	ShowFloatingButton bool `yaml:"showFloatingButton" json:"showFloatingButton"`

	// pause integration
	PauseHotkeys         bool `yaml:"pauseHotkeys" json:"pauseHotkeys"`
	AutoPauseBeforeBurst bool `yaml:"autoPauseBeforeBurst" json:"autoPauseBeforeBurst"`
	AutoResumeAfterBurst bool `yaml:"autoResumeAfterBurst" json:"autoResumeAfterBurst"`
}

// Defaults returns the hard-coded record every load is merged over.
func Defaults() Config {
	return Config{
		SellMode:             SellAll,
		SellCount:            10,
		Rebuy:                true,
		RebuyDelayMs:         200,
		ShowFloatingButton:   true,
		PauseHotkeys:         true,
		AutoPauseBeforeBurst: false,
		AutoResumeAfterBurst: true,
	}
}

// RebuyDelay is RebuyDelayMs as a duration, never negative.
func (c Config) RebuyDelay() time.Duration {
	if c.RebuyDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.RebuyDelayMs) * time.Millisecond
}

// Clone returns a copy that shares nothing with c.
func (c Config) Clone() Config {
	out := c
	out.Selected = c.Selected.Clone()
	return out
}

// rawConfig is a persisted record before merging: nil means the key was
// absent and the default applies.
type rawConfig struct {
	SellMode             *string    `yaml:"sellMode" json:"sellMode"`
	SellCount            *int       `yaml:"sellCount" json:"sellCount"`
	Rebuy                *bool      `yaml:"rebuy" json:"rebuy"`
	RebuyDelayMs         *int       `yaml:"rebuyDelayMs" json:"rebuyDelayMs"`
	Selected             *Selection `yaml:"selected" json:"selected"`
	ShowFloatingButton   *bool      `yaml:"showFloatingButton" json:"showFloatingButton"`
	PauseHotkeys         *bool      `yaml:"pauseHotkeys" json:"pauseHotkeys"`
	AutoPauseBeforeBurst *bool      `yaml:"autoPauseBeforeBurst" json:"autoPauseBeforeBurst"`
	AutoResumeAfterBurst *bool      `yaml:"autoResumeAfterBurst" json:"autoResumeAfterBurst"`
}

// Equal reports whether two records hold the same values, selection
// order included.
func (c Config) Equal(o Config) bool {
	return c.SellMode == o.SellMode &&
		c.SellCount == o.SellCount &&
		c.Rebuy == o.Rebuy &&
		c.RebuyDelayMs == o.RebuyDelayMs &&
		c.ShowFloatingButton == o.ShowFloatingButton &&
		c.PauseHotkeys == o.PauseHotkeys &&
		c.AutoPauseBeforeBurst == o.AutoPauseBeforeBurst &&
		c.AutoResumeAfterBurst == o.AutoResumeAfterBurst &&
		c.Selected.Equal(o.Selected)
}
