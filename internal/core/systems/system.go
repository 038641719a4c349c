// Package systems defines the contract every gameplay system follows.
//
// A system holds its own private state maps, subscribes to a fixed set of
// bus events in its constructor, reads entities through the manager,
// mutates only the component types it owns, and reports results by
// emitting events. Systems never call each other; adding a new system
// means subscribing to existing events, not editing existing systems.
package systems

import "fmt"

// System is one gameplay logic module driven by the frame loop.
type System interface {
	// Name identifies the system in logs and diagnostics.
	Name() string
	// Update advances the system by dt seconds of sim time.
	Update(dt float64)
	// Owns lists the component types this system may write. Reading any
	// component is always allowed; writing is restricted to the owner.
	Owns() []string
}

// ValidateOwnership enforces the single-writer-per-component-type rule
// across a system roster. Run at engine startup and asserted in tests.
func ValidateOwnership(roster ...System) error {
	owners := make(map[string]string)
	for _, s := range roster {
		for _, typ := range s.Owns() {
			if prev, taken := owners[typ]; taken {
				return fmt.Errorf("component %q claimed by both %s and %s", typ, prev, s.Name())
			}
			owners[typ] = s.Name()
		}
	}
	return nil
}
