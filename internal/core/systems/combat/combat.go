// Package combat runs the arm-wrestling tug-of-war bouts.
package combat

import (
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
	"github.com/armlock/armlock/internal/core/sched"
)

// Rejection reasons carried by combat:error payloads.
const (
	ReasonSelf           = "self"
	ReasonUnknownEntity  = "unknown-entity"
	ReasonNoPower        = "no-power"
	ReasonAlreadyEngaged = "already-engaged"
)

type bout struct {
	id         uint64
	attackerID string
	defenderID string
	meter      float64 // -1 defender wins .. +1 attacker wins
}

// System arbitrates bouts. It owns the power and stamina components; the
// tug meter itself is system-local state keyed by bout id.
type System struct {
	lg    log.Log
	bus   bus.Bus
	em    *entity.Manager
	sched *sched.Scheduler
	rng   *rand.Rand
	cfg   config.CombatConfig

	bouts   map[uint64]*bout
	engaged map[string]uint64 // entity id -> bout id, reserved from request on
}

func New(b bus.Bus, em *entity.Manager, sc *sched.Scheduler, rng *rand.Rand, cfg config.CombatConfig, lg log.Log) *System {
	if lg == nil {
		lg = log.Provide()
	}
	s := &System{
		lg:      lg.With(log.String("system", "combat")),
		bus:     b,
		em:      em,
		sched:   sc,
		rng:     rng,
		cfg:     cfg,
		bouts:   make(map[uint64]*bout),
		engaged: make(map[string]uint64),
	}
	b.On(events.CombatRequest, s.onRequest)
	b.On(events.CombatFlee, s.onFlee)
	b.On(events.EntityDestroyed, s.onEntityDestroyed)
	return s
}

func (s *System) Name() string { return "combat" }

func (s *System) Owns() []string { return []string{"power", "stamina"} }

// Update advances every running bout by dt seconds. The meter shifts with
// the effective power differential plus a small jitter; both sides drain
// stamina, and an exhausted arm pulls at a fraction of its power.
func (s *System) Update(dt float64) {
	if dt <= 0 {
		return
	}
	for id, bt := range s.bouts {
		attacker := s.em.GetEntity(bt.attackerID)
		defender := s.em.GetEntity(bt.defenderID)
		if attacker == nil || defender == nil {
			// Destruction mid-frame dissolves the bout; the survivor, if
			// any, takes the win.
			s.dissolve(id, attacker != nil, defender != nil)
			continue
		}

		pa := s.pull(attacker, dt)
		pd := s.pull(defender, dt)
		shift := (pa-pd)/s.cfg.MeterScale*dt + s.jitter(dt)
		if shift == 0 {
			continue
		}
		bt.meter = clamp(bt.meter+shift, -1, 1)
		s.bus.Emit(events.CombatShifted, events.CombatShiftedPayload{
			BoutID: id,
			Meter:  bt.meter,
		})

		switch {
		case bt.meter >= 1:
			s.finish(bt, bt.attackerID, bt.defenderID, false)
		case bt.meter <= -1:
			s.finish(bt, bt.defenderID, bt.attackerID, false)
		}
	}
}

// Engaged reports whether the entity is reserved for or fighting a bout.
func (s *System) Engaged(id string) bool {
	_, ok := s.engaged[id]
	return ok
}

// Meter returns the current tug meter of the entity's bout.
func (s *System) Meter(id string) (float64, bool) {
	boutID, ok := s.engaged[id]
	if !ok {
		return 0, false
	}
	bt, ok := s.bouts[boutID]
	if !ok {
		return 0, false
	}
	return bt.meter, true
}

func (s *System) onRequest(e bus.Event) error {
	p, ok := e.Payload.(events.CombatRequestPayload)
	if !ok {
		return nil
	}
	if p.AttackerID == p.DefenderID {
		s.reject(p.AttackerID, ReasonSelf)
		return nil
	}
	attacker := s.em.GetEntity(p.AttackerID)
	defender := s.em.GetEntity(p.DefenderID)
	if attacker == nil || !attacker.IsActive() || defender == nil || !defender.IsActive() {
		s.reject(p.AttackerID, ReasonUnknownEntity)
		return nil
	}
	if !attacker.HasComponent("power") || !defender.HasComponent("power") {
		s.reject(p.AttackerID, ReasonNoPower)
		return nil
	}
	if s.Engaged(p.AttackerID) || s.Engaged(p.DefenderID) {
		s.reject(p.AttackerID, ReasonAlreadyEngaged)
		return nil
	}

	// Reserve both arms through the windup so neither can be pulled into
	// another bout meanwhile.
	id := boutKey(p.AttackerID, p.DefenderID)
	s.engaged[p.AttackerID] = id
	s.engaged[p.DefenderID] = id
	s.sched.After(s.cfg.WindupSeconds, func() {
		s.begin(id, p.AttackerID, p.DefenderID)
	})
	return nil
}

// begin fires after the windup. Either entity may be gone or benched by
// now, in which case the reservation is released and nothing starts.
func (s *System) begin(id uint64, attackerID, defenderID string) {
	attacker := s.em.GetEntity(attackerID)
	defender := s.em.GetEntity(defenderID)
	if attacker == nil || !attacker.IsActive() || defender == nil || !defender.IsActive() {
		s.lg.Debug("bout cancelled during windup",
			log.String("attacker", attackerID),
			log.String("defender", defenderID),
		)
		delete(s.engaged, attackerID)
		delete(s.engaged, defenderID)
		return
	}
	s.bouts[id] = &bout{id: id, attackerID: attackerID, defenderID: defenderID}
	s.bus.Emit(events.CombatStarted, events.CombatStartedPayload{
		BoutID:     id,
		AttackerID: attackerID,
		DefenderID: defenderID,
	})
}

func (s *System) onFlee(e bus.Event) error {
	p, ok := e.Payload.(events.CombatFleePayload)
	if !ok {
		return nil
	}
	boutID, ok := s.engaged[p.EntityID]
	if !ok {
		return nil
	}
	bt, ok := s.bouts[boutID]
	if !ok {
		// Fleeing during the windup just releases the reservation.
		delete(s.engaged, p.EntityID)
		return nil
	}
	winner := bt.attackerID
	if p.EntityID == bt.attackerID {
		winner = bt.defenderID
	}
	s.finish(bt, winner, p.EntityID, true)
	return nil
}

func (s *System) onEntityDestroyed(e bus.Event) error {
	p, ok := e.Payload.(events.EntityDestroyedPayload)
	if !ok {
		return nil
	}
	boutID, ok := s.engaged[p.EntityID]
	if !ok {
		return nil
	}
	bt, ok := s.bouts[boutID]
	if !ok {
		delete(s.engaged, p.EntityID)
		return nil
	}
	survivor := bt.attackerID
	if p.EntityID == bt.attackerID {
		survivor = bt.defenderID
	}
	s.finish(bt, survivor, p.EntityID, false)
	return nil
}

// finish settles a bout. Defeated entities tagged enemy are scheduled for
// destruction, never removed inline, so sibling handlers keep working on
// valid indices for the rest of the frame.
func (s *System) finish(bt *bout, winnerID, loserID string, fled bool) {
	delete(s.bouts, bt.id)
	delete(s.engaged, bt.attackerID)
	delete(s.engaged, bt.defenderID)
	s.bus.Emit(events.CombatEnded, events.CombatEndedPayload{
		BoutID:   bt.id,
		WinnerID: winnerID,
		LoserID:  loserID,
		Fled:     fled,
	})
	if loser := s.em.GetEntity(loserID); loser != nil && loser.HasTag("enemy") && !fled {
		s.em.ScheduleDestroy(loserID)
	}
}

func (s *System) dissolve(id uint64, attackerAlive, defenderAlive bool) {
	bt := s.bouts[id]
	delete(s.bouts, id)
	delete(s.engaged, bt.attackerID)
	delete(s.engaged, bt.defenderID)
	switch {
	case attackerAlive:
		s.bus.Emit(events.CombatEnded, events.CombatEndedPayload{
			BoutID: id, WinnerID: bt.attackerID, LoserID: bt.defenderID,
		})
	case defenderAlive:
		s.bus.Emit(events.CombatEnded, events.CombatEndedPayload{
			BoutID: id, WinnerID: bt.defenderID, LoserID: bt.attackerID,
		})
	default:
		s.lg.Debug("bout dissolved with both sides gone", log.Int64("bout", int64(id)))
	}
}

// pull computes the effective pulling power for this tick and applies the
// stamina drain.
func (s *System) pull(e *entity.Entity, dt float64) float64 {
	power, _ := e.GetComponent("power")
	base, _ := power.Float("base")

	stamina, ok := e.GetComponent("stamina")
	if !ok {
		return base
	}
	cur, _ := stamina.Float("current")
	max, _ := stamina.Float("max")
	cur = math.Max(0, cur-s.cfg.StaminaDrainPerSecond*dt)
	stamina["current"] = cur

	if max <= 0 {
		return base
	}
	// Linear fade from full power to the exhausted floor.
	frac := cur / max
	return base * (s.cfg.ExhaustedFactor + (1-s.cfg.ExhaustedFactor)*frac)
}

func (s *System) jitter(dt float64) float64 {
	if s.cfg.Jitter == 0 || s.rng == nil {
		return 0
	}
	return (s.rng.Float64()*2 - 1) * s.cfg.Jitter * dt
}

func (s *System) reject(id, reason string) {
	s.bus.Emit(events.CombatError, events.CombatErrorPayload{
		EntityID: id,
		Reason:   reason,
	})
}

// boutKey derives a stable 64-bit bout id from the ordered pair.
func boutKey(attackerID, defenderID string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(attackerID)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(defenderID)
	return h.Sum64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
