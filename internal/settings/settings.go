package settings

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

var (
	ErrUnknownKey  = errors.New("unknown settings key")
	ErrInvalidUnit = errors.New("unit name must not be empty")
	// ErrNotSaved wraps every failure to write the record to the store.
	ErrNotSaved = errors.New("settings not saved")
)

// Options configures Open.
type Options struct {
	// Units lists every known unit type in registry order. Each one but
	// Free gets a selection entry.
	Units []string
	Free  string

	Logger *slog.Logger
}

// Settings owns the configuration of one controller. Every setter
// clamps its input, updates the in-memory record and writes it to the
// store before returning. Safe for concurrent use.
type Settings struct {
	mu        sync.Mutex
	store     Store
	units     []string
	free      string
	cfg       Config
	listeners []func(Config)
	log       *slog.Logger

	// version counts in-memory changes; stored holds the bytes last
	// read from or written to the store.
	version uint64
	stored  []byte
}

// Open loads the stored record over the defaults and makes sure every
// known unit has a selection entry. If entries had to be added the
// record is written back. The returned Settings is usable even when err
// is non-nil; err only reports that this write failed.
func Open(store Store, opts Options) (*Settings, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Settings{
		store: store,
		units: append([]string(nil), opts.Units...),
		free:  opts.Free,
		log:   logger.With("component", "settings"),
	}
	b, _ := s.fetch()
	s.stored = b
	s.cfg = s.parse(b)
	if s.seed(&s.cfg) == 0 {
		return s, nil
	}
	s.log.Info("seeded unit selection", "units", s.cfg.Selected.Len())
	return s, s.persist(s.cfg.Clone())
}

// fetch returns the stored record; nil means none or unreadable.
func (s *Settings) fetch() ([]byte, bool) {
	b, ok, err := s.store.Get(StorageKey)
	if err != nil {
		s.log.Debug("settings store unreadable, using defaults", "error", err)
		return nil, false
	}
	return b, ok
}

// parse never fails: a missing or corrupt record means defaults.
func (s *Settings) parse(b []byte) Config {
	if b == nil {
		return Defaults()
	}
	raw, err := decodeYAML(b)
	if err != nil && !isPartial(err) {
		s.log.Debug("stored settings corrupt, using defaults", "error", err)
		return Defaults()
	}
	if err != nil {
		s.log.Debug("stored settings partially readable", "error", err)
	}
	if verr := ValidateRaw(raw); verr != nil {
		s.log.Debug("stored settings clamped", "error", verr)
	}
	return Normalize(mergeRaw(Defaults(), raw))
}

// seed adds a false entry for every known unit missing from the
// selection and returns how many were added.
func (s *Settings) seed(cfg *Config) int {
	added := 0
	for _, name := range s.units {
		if name == s.free || cfg.Selected.Has(name) {
			continue
		}
		cfg.Selected.Set(name, false)
		added++
	}
	return added
}

func (s *Settings) persist(cfg Config) error {
	b, err := Encode(cfg)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrNotSaved, err)
	}
	if err := s.store.Put(StorageKey, b); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}
	s.mu.Lock()
	s.stored = b
	s.mu.Unlock()
	return nil
}

func (s *Settings) notify(cfg Config) {
	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg.Clone())
	}
}

// OnChange registers fn to run after every change with the new record.
func (s *Settings) OnChange(fn func(Config)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current record.
func (s *Settings) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Load re-reads the store, replacing the in-memory record. Loading twice
// with no write in between yields equal records. A record identical to
// the last one read or written is not reloaded, and a change made while
// the store was being read wins over the stored record.
func (s *Settings) Load() Config {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	b, ok := s.fetch()
	if !ok {
		b = nil
	}

	s.mu.Lock()
	if s.version != version || (b != nil && bytes.Equal(b, s.stored)) {
		cur := s.cfg.Clone()
		s.mu.Unlock()
		return cur
	}
	s.mu.Unlock()

	cfg := s.parse(b)
	s.seed(&cfg)

	s.mu.Lock()
	if s.version != version {
		cur := s.cfg.Clone()
		s.mu.Unlock()
		return cur
	}
	s.cfg = cfg
	s.stored = b
	s.version++
	s.mu.Unlock()

	s.notify(cfg)
	return cfg.Clone()
}

// Save writes the current record to the store.
func (s *Settings) Save() error {
	return s.persist(s.Snapshot())
}

// Export renders the record as the JSON blob kept with the host's save.
func (s *Settings) Export() (string, error) {
	b, err := EncodeJSON(s.Snapshot())
	if err != nil {
		return "", fmt.Errorf("export settings: %w", err)
	}
	return string(b), nil
}

// Import replaces the record with a blob from the host's save, merged
// over the defaults, and writes it to the local store. A blob that
// cannot be parsed leaves everything unchanged.
func (s *Settings) Import(blob string) error {
	cfg, err := ParseHostBlob([]byte(blob))
	if err != nil && !isPartial(err) {
		return err
	}
	if err != nil {
		s.log.Debug("host blob partially readable", "error", err)
	}
	s.seed(&cfg)
	return s.replace(cfg)
}

func (s *Settings) replace(cfg Config) error {
	s.mu.Lock()
	s.cfg = cfg
	s.version++
	snap := cfg.Clone()
	s.mu.Unlock()

	err := s.persist(snap)
	s.notify(snap)
	return err
}

// mutate applies fn, persists, and notifies listeners. The in-memory
// change is kept even if the write fails.
func (s *Settings) mutate(fn func(*Config)) error {
	s.mu.Lock()
	fn(&s.cfg)
	s.version++
	snap := s.cfg.Clone()
	s.mu.Unlock()

	err := s.persist(snap)
	if err != nil {
		s.log.Warn("settings change not persisted", "error", err)
	}
	s.notify(snap)
	return err
}

// SetSellMode accepts "all" or "count"; anything else means "all".
func (s *Settings) SetSellMode(mode string) error {
	m := ParseSellMode(mode)
	return s.mutate(func(c *Config) { c.SellMode = m })
}

func (s *Settings) SetSellCount(n int) error {
	n = ClampCount(n)
	return s.mutate(func(c *Config) { c.SellCount = n })
}

func (s *Settings) SetRebuyDelay(ms int) error {
	ms = ClampDelay(ms)
	return s.mutate(func(c *Config) { c.RebuyDelayMs = ms })
}

func (s *Settings) SetRebuy(on bool) error {
	return s.mutate(func(c *Config) { c.Rebuy = on })
}

func (s *Settings) SetSelected(unit string, on bool) error {
	if strings.TrimSpace(unit) == "" {
		return ErrInvalidUnit
	}
	return s.mutate(func(c *Config) { c.Selected.Set(unit, on) })
}

func (s *Settings) SetAutoPause(on bool) error {
	return s.mutate(func(c *Config) { c.AutoPauseBeforeBurst = on })
}

func (s *Settings) SetAutoResume(on bool) error {
	return s.mutate(func(c *Config) { c.AutoResumeAfterBurst = on })
}

func (s *Settings) SetHotkeys(on bool) error {
	return s.mutate(func(c *Config) { c.PauseHotkeys = on })
}

func (s *Settings) SetFloatingButton(on bool) error {
	return s.mutate(func(c *Config) { c.ShowFloatingButton = on })
}

// Apply sets one field from its textual form, as typed in a settings
// panel or on the command line. Keys are the record's field names;
// "selected.<unit>" toggles one unit.
func (s *Settings) Apply(key, value string) error {
	if unit, ok := strings.CutPrefix(key, "selected."); ok {
		return s.SetSelected(unit, truthy(value))
	}
	switch key {
	case "sellMode":
		return s.SetSellMode(value)
	case "sellCount":
		return s.SetSellCount(ParseCount(value))
	case "rebuyDelayMs":
		return s.SetRebuyDelay(ParseDelay(value))
	case "rebuy":
		return s.SetRebuy(truthy(value))
	case "showFloatingButton":
		return s.SetFloatingButton(truthy(value))
	case "pauseHotkeys":
		return s.SetHotkeys(truthy(value))
	case "autoPauseBeforeBurst":
		return s.SetAutoPause(truthy(value))
	case "autoResumeAfterBurst":
		return s.SetAutoResume(truthy(value))
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}
