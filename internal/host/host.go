// Package host describes what the controller needs from the game it is
// attached to. The controller never constructs units; it only reads
// amounts and asks the host to trade.
package host

// Unit is one building type owned by the host simulation.
type Unit interface {
	Name() string
	Amount() int
	Sell(n int) error
	Buy(n int) error
}

// Simulation is the host game loop and unit registry.
type Simulation interface {
	// Logic advances the simulation by exactly one tick.
	Logic() error
	// Draw redraws the host after a manual step.
	Draw()
	// Units lists every unit type in stable registry order.
	Units() []Unit
	Unit(name string) (Unit, bool)
	// FreeUnit names the always-owned unit that is never selectable.
	FreeUnit() string
}

// Icon selects the style of a notification.
type Icon [2]int

// DefaultIcon is the sprite the add-on uses for every notification.
var DefaultIcon = Icon{16, 5}

// Notification is a user-facing toast.
type Notification struct {
	Title   string
	Message string
	Icon    Icon
}

type Notifier interface {
	Notify(n Notification)
}

// Prompter shows a modal with arbitrary markup and dismissal buttons.
type Prompter interface {
	Prompt(markup string, buttons []string)
}

// Mod is the lifecycle a host offers to registered add-ons.
type Mod interface {
	// Init is called once when the host is ready.
	Init()
	// Save returns a blob the host stores with its own save data.
	Save() string
	// Load restores a blob previously returned by Save.
	Load(blob string)
}

// Registry accepts mod registrations.
type Registry interface {
	RegisterMod(id string, mod Mod)
}

// Host bundles every capability the controller consumes.
type Host interface {
	Simulation
	Notifier
	Prompter
}

// UnitNames returns the names of units in registry order.
func UnitNames(units []Unit) []string {
	names := make([]string, 0, len(units))
	for _, u := range units {
		names = append(names, u.Name())
	}
	return names
}
