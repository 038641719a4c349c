// Package game is the composition root: it wires the bus, the entity
// store, the scheduler and every gameplay system into one frame-driven
// engine.
package game

import (
	"math/rand"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
	"github.com/armlock/armlock/internal/core/sched"
	"github.com/armlock/armlock/internal/core/systems"
	"github.com/armlock/armlock/internal/core/systems/combat"
	"github.com/armlock/armlock/internal/core/systems/movement"
	"github.com/armlock/armlock/internal/core/systems/party"
	"github.com/armlock/armlock/internal/core/systems/pets"
	"github.com/armlock/armlock/internal/core/systems/progression"
	"github.com/armlock/armlock/internal/core/systems/relations"
	"github.com/armlock/armlock/internal/core/systems/zones"
)

// Engine owns the whole simulation. Update order is fixed: the entity
// manager sweeps and ticks first, then due timers fire, then the systems
// run in registration order.
type Engine struct {
	lg    log.Log
	bus   *bus.QueuedBus
	em    *entity.Manager
	sched *sched.Scheduler

	roster []systems.System
}

// New builds an engine from a validated config. Systems that roll dice
// share the given rng; a nil rng makes combat jitter and wander inert,
// which the tests rely on.
func New(cfg *config.Config, rng *rand.Rand, lg log.Log) (*Engine, error) {
	if lg == nil {
		lg = log.Provide()
	}
	b := bus.New(lg)
	em := entity.NewManager(b, lg)
	sc := sched.New()

	roster := []systems.System{
		combat.New(b, em, sc, rng, cfg.Combat, lg),
		progression.New(b, em, cfg.Progression, lg),
		relations.New(b, em, cfg.Relations, lg),
		party.New(b, em, cfg.Party, lg),
		pets.New(b, em, sc, cfg.Pets, lg),
		zones.New(b, em, cfg.Zones, lg),
		movement.New(b, em, rng, cfg.Movement, lg),
	}
	if err := systems.ValidateOwnership(roster...); err != nil {
		return nil, err
	}

	for _, s := range roster {
		lg.Debug("system registered", log.String("system", s.Name()))
	}
	return &Engine{lg: lg, bus: b, em: em, sched: sc, roster: roster}, nil
}

// Update advances the simulation by dt seconds.
func (e *Engine) Update(dt float64) {
	e.em.Update(dt)
	e.sched.Advance(dt)
	for _, s := range e.roster {
		s.Update(dt)
	}
}

// Bus exposes the event hub for drivers and UI layers.
func (e *Engine) Bus() *bus.QueuedBus { return e.bus }

// Entities exposes the entity store.
func (e *Engine) Entities() *entity.Manager { return e.em }

// Scheduler exposes the sim-clock timer facility.
func (e *Engine) Scheduler() *sched.Scheduler { return e.sched }

// Stats reports entity-store counters for diagnostics.
func (e *Engine) Stats() entity.Stats { return e.em.Stats() }

// Shutdown drops all entities, timers and subscriptions.
func (e *Engine) Shutdown() {
	e.lg.Info("engine shutting down", log.Int("entities", e.em.Stats().Total))
	e.sched.Clear()
	e.em.Clear()
	e.bus.Clear()
}
