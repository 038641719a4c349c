// Package pets covers taming and the follow-the-owner AI.
package pets

import (
	"math"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
	"github.com/armlock/armlock/internal/core/sched"
)

// Rejection reasons carried by pet:error payloads.
const (
	ReasonUnknownEntity    = "unknown-entity"
	ReasonNotTamable       = "not-tamable"
	ReasonAlreadyTamed     = "already-tamed"
	ReasonTamingInProgress = "taming-in-progress"
)

// System owns the pet component. Pets never write position; they ask the
// movement system to close the gap with entity:request-move.
type System struct {
	lg    log.Log
	bus   bus.Bus
	em    *entity.Manager
	sched *sched.Scheduler
	cfg   config.PetsConfig

	taming map[string]string // target id -> owner id while the tame runs
}

func New(b bus.Bus, em *entity.Manager, sc *sched.Scheduler, cfg config.PetsConfig, lg log.Log) *System {
	if lg == nil {
		lg = log.Provide()
	}
	s := &System{
		lg:     lg.With(log.String("system", "pets")),
		bus:    b,
		em:     em,
		sched:  sc,
		cfg:    cfg,
		taming: make(map[string]string),
	}
	b.On(events.PetTameRequest, s.onTameRequest)
	b.On(events.EntityDestroyed, s.onEntityDestroyed)
	return s
}

func (s *System) Name() string { return "pets" }

func (s *System) Owns() []string { return []string{"pet"} }

// Update nudges each pet back toward its owner once it falls behind.
func (s *System) Update(dt float64) {
	for _, pet := range s.em.EntitiesWithComponents("pet", "position") {
		pc, _ := pet.GetComponent("pet")
		ownerID, _ := pc.Str("owner")
		owner := s.em.GetEntity(ownerID)
		if owner == nil {
			// Swept this frame without an entity:destroyed cleanup yet.
			continue
		}
		op, ok := owner.GetComponent("position")
		if !ok {
			continue
		}
		pp, _ := pet.GetComponent("position")
		px, _ := pp.Float("x")
		py, _ := pp.Float("y")
		ox, _ := op.Float("x")
		oy, _ := op.Float("y")
		if math.Hypot(ox-px, oy-py) <= s.cfg.FollowDistance {
			continue
		}
		s.bus.Emit(events.EntityRequestMove, events.EntityRequestMovePayload{
			EntityID: pet.ID(), X: ox, Y: oy,
		})
	}
}

// Taming reports whether a tame is currently running against the target.
func (s *System) Taming(targetID string) bool {
	_, ok := s.taming[targetID]
	return ok
}

func (s *System) onTameRequest(e bus.Event) error {
	p, ok := e.Payload.(events.TameRequestPayload)
	if !ok {
		return nil
	}
	owner := s.em.GetEntity(p.OwnerID)
	target := s.em.GetEntity(p.TargetID)
	switch {
	case owner == nil || !owner.IsActive() || target == nil || !target.IsActive():
		s.reject(p.OwnerID, ReasonUnknownEntity)
	case target.HasComponent("pet"):
		s.reject(p.OwnerID, ReasonAlreadyTamed)
	case !target.HasTag("tamable"):
		s.reject(p.OwnerID, ReasonNotTamable)
	case s.Taming(p.TargetID):
		s.reject(p.OwnerID, ReasonTamingInProgress)
	default:
		s.taming[p.TargetID] = p.OwnerID
		s.sched.After(s.cfg.TameSeconds, func() { s.completeTame(p.OwnerID, p.TargetID) })
	}
	return nil
}

// completeTame fires from the scheduler; both parties may have vanished
// since the request.
func (s *System) completeTame(ownerID, targetID string) {
	if s.taming[targetID] != ownerID {
		return
	}
	delete(s.taming, targetID)

	owner := s.em.GetEntity(ownerID)
	target := s.em.GetEntity(targetID)
	if owner == nil || target == nil || !target.IsActive() || !target.HasTag("tamable") {
		s.lg.Debug("tame aborted",
			log.String("owner", ownerID), log.String("target", targetID))
		return
	}
	target.AddComponent("pet", entity.Component{"owner": ownerID, "loyalty": 1})
	target.AddTag("pet")
	target.RemoveTag("tamable")
	s.bus.Emit(events.PetTamed, events.PetTamedPayload{OwnerID: ownerID, PetID: targetID})
}

func (s *System) onEntityDestroyed(e bus.Event) error {
	p, ok := e.Payload.(events.EntityDestroyedPayload)
	if !ok {
		return nil
	}
	// A destroyed target invalidates its running tame.
	delete(s.taming, p.EntityID)
	for target, ownerID := range s.taming {
		if ownerID == p.EntityID {
			delete(s.taming, target)
		}
	}
	// Orphaned pets revert to wild.
	for _, pet := range s.em.EntitiesWithComponents("pet") {
		pc, _ := pet.GetComponent("pet")
		if ownerID, _ := pc.Str("owner"); ownerID != p.EntityID {
			continue
		}
		s.release(pet)
	}
	return nil
}

func (s *System) release(pet *entity.Entity) {
	pet.RemoveComponent("pet")
	pet.RemoveTag("pet")
	pet.AddTag("tamable")
	s.bus.Emit(events.PetReleased, events.PetReleasedPayload{PetID: pet.ID()})
}

func (s *System) reject(id, reason string) {
	s.lg.Debug("tame request rejected",
		log.String("entity", id), log.String("reason", reason))
	s.bus.Emit(events.PetError, events.PetErrorPayload{EntityID: id, Reason: reason})
}
