// Package movement is the sole writer of position components.
package movement

import (
	"math"
	"math/rand"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
)

type target struct {
	x, y float64
}

// System seeks entities toward requested targets and drifts
// wander-tagged entities. Anything that wants to move an entity emits
// entity:request-move; nothing else touches position.
type System struct {
	lg  log.Log
	bus bus.Bus
	em  *entity.Manager
	rng *rand.Rand
	cfg config.MovementConfig

	targets map[string]target
}

func New(b bus.Bus, em *entity.Manager, rng *rand.Rand, cfg config.MovementConfig, lg log.Log) *System {
	if lg == nil {
		lg = log.Provide()
	}
	s := &System{
		lg:      lg.With(log.String("system", "movement")),
		bus:     b,
		em:      em,
		rng:     rng,
		cfg:     cfg,
		targets: make(map[string]target),
	}
	b.On(events.EntityRequestMove, s.onRequestMove)
	b.On(events.EntityDestroyed, s.onEntityDestroyed)
	return s
}

func (s *System) Name() string { return "movement" }

func (s *System) Owns() []string { return []string{"position"} }

// Seeking reports whether the entity currently has a move target.
func (s *System) Seeking(id string) bool {
	_, ok := s.targets[id]
	return ok
}

func (s *System) Update(dt float64) {
	if dt <= 0 {
		return
	}
	for id, tg := range s.targets {
		ent := s.em.GetEntity(id)
		if ent == nil || !ent.IsActive() {
			delete(s.targets, id)
			continue
		}
		pos, ok := ent.GetComponent("position")
		if !ok {
			delete(s.targets, id)
			continue
		}
		x, _ := pos.Float("x")
		y, _ := pos.Float("y")
		dx, dy := tg.x-x, tg.y-y
		dist := math.Hypot(dx, dy)
		step := s.cfg.Speed * dt
		if dist <= s.cfg.ArriveEpsilon || dist <= step {
			s.place(ent, tg.x, tg.y)
			delete(s.targets, id)
			continue
		}
		s.place(ent, x+dx/dist*step, y+dy/dist*step)
	}

	s.wander(dt)
}

// wander drifts idle wander-tagged entities by a small random amount.
// Seeking entities skip the drift so the jitter never fights the seek.
func (s *System) wander(dt float64) {
	if s.rng == nil || s.cfg.WanderRadius <= 0 {
		return
	}
	for _, ent := range s.em.EntitiesByTag("wander") {
		if s.Seeking(ent.ID()) {
			continue
		}
		pos, ok := ent.GetComponent("position")
		if !ok {
			continue
		}
		x, _ := pos.Float("x")
		y, _ := pos.Float("y")
		r := s.cfg.WanderRadius * dt
		s.place(ent, x+(s.rng.Float64()*2-1)*r, y+(s.rng.Float64()*2-1)*r)
	}
}

func (s *System) place(ent *entity.Entity, x, y float64) {
	ent.AddComponent("position", entity.Component{"x": x, "y": y})
	s.bus.Emit(events.EntityMoved, events.EntityMovedPayload{
		EntityID: ent.ID(), X: x, Y: y,
	})
}

func (s *System) onRequestMove(e bus.Event) error {
	p, ok := e.Payload.(events.EntityRequestMovePayload)
	if !ok {
		return nil
	}
	if s.em.GetEntity(p.EntityID) == nil {
		s.lg.Debug("move request for missing entity", log.String("entity", p.EntityID))
		return nil
	}
	s.targets[p.EntityID] = target{x: p.X, y: p.Y}
	return nil
}

func (s *System) onEntityDestroyed(e bus.Event) error {
	p, ok := e.Payload.(events.EntityDestroyedPayload)
	if !ok {
		return nil
	}
	delete(s.targets, p.EntityID)
	return nil
}
