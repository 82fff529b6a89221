// Package hotkey maps single key presses to controller actions.
package hotkey

import (
	"strings"
	"sync"
)

// Default bindings.
const (
	TogglePause = "p"
	Step        = "o"
)

// Dispatcher routes key presses to bound actions while its enabled
// predicate holds.
type Dispatcher struct {
	enabled func() bool

	mu       sync.RWMutex
	bindings map[string]func()
}

// New returns a dispatcher that only fires while enabled reports true.
// A nil predicate means always enabled.
func New(enabled func() bool) *Dispatcher {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	return &Dispatcher{enabled: enabled, bindings: make(map[string]func())}
}

// Bind attaches action to key, replacing any earlier binding. Keys are
// case-insensitive.
func (d *Dispatcher) Bind(key string, action func()) {
	d.mu.Lock()
	d.bindings[normalize(key)] = action
	d.mu.Unlock()
}

// Handle runs the action bound to key and reports whether one ran.
func (d *Dispatcher) Handle(key string) bool {
	if !d.enabled() {
		return false
	}
	d.mu.RLock()
	action, ok := d.bindings[normalize(key)]
	d.mu.RUnlock()
	if !ok || action == nil {
		return false
	}
	action()
	return true
}

// Keys returns the bound keys.
func (d *Dispatcher) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.bindings))
	for k := range d.bindings {
		out = append(out, k)
	}
	return out
}

func normalize(key string) string { return strings.ToLower(strings.TrimSpace(key)) }
