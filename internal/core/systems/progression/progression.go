// Package progression tracks levels, experience and talent points.
package progression

import (
	"math"

	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
)

// Rejection reasons carried by progression:error payloads.
const (
	ReasonNoProgression  = "no-progression"
	ReasonNoTalentPoints = "no-talent-points"
)

// System owns the progression component. Everything it does is
// event-driven; Update is a no-op kept for the roster contract.
type System struct {
	lg  log.Log
	bus bus.Bus
	em  *entity.Manager
	cfg config.ProgressionConfig
}

func New(b bus.Bus, em *entity.Manager, cfg config.ProgressionConfig, lg log.Log) *System {
	if lg == nil {
		lg = log.Provide()
	}
	s := &System{
		lg:  lg.With(log.String("system", "progression")),
		bus: b,
		em:  em,
		cfg: cfg,
	}
	b.On(events.EntityCreated, s.onEntityCreated)
	b.On(events.CombatEnded, s.onCombatEnded)
	b.On(events.ProgressionGrantXP, s.onGrantXP)
	b.On(events.ProgressionSpendTalent, s.onSpendTalent)
	return s
}

func (s *System) Name() string { return "progression" }

func (s *System) Owns() []string { return []string{"progression"} }

func (s *System) Update(dt float64) {}

// Threshold returns the XP needed to climb from the given level to the
// next one.
func (s *System) Threshold(level int) int {
	return int(math.Round(float64(s.cfg.BaseXP) * math.Pow(s.cfg.LevelFactor, float64(level-1))))
}

func (s *System) onEntityCreated(e bus.Event) error {
	p, ok := e.Payload.(events.EntityCreatedPayload)
	if !ok {
		return nil
	}
	ent := s.em.GetEntity(p.EntityID)
	if ent == nil || !ent.HasTag("player") || ent.HasComponent("progression") {
		return nil
	}
	ent.AddComponent("progression", entity.Component{
		"level":        1,
		"xp":           0,
		"talentPoints": 0,
	})
	return nil
}

func (s *System) onCombatEnded(e bus.Event) error {
	p, ok := e.Payload.(events.CombatEndedPayload)
	if !ok || p.Fled {
		return nil
	}
	loserLevel := 1
	if loser := s.em.GetEntity(p.LoserID); loser != nil {
		if prog, ok := loser.GetComponent("progression"); ok {
			if lvl, ok := prog.Int("level"); ok {
				loserLevel = lvl
			}
		}
	}
	s.award(p.WinnerID, loserLevel*s.cfg.XPPerLoserLevel)
	return nil
}

func (s *System) onGrantXP(e bus.Event) error {
	p, ok := e.Payload.(events.GrantXPPayload)
	if !ok || p.Amount <= 0 {
		return nil
	}
	s.award(p.EntityID, p.Amount)
	return nil
}

func (s *System) onSpendTalent(e bus.Event) error {
	p, ok := e.Payload.(events.SpendTalentPayload)
	if !ok {
		return nil
	}
	ent := s.em.GetEntity(p.EntityID)
	if ent == nil {
		return nil
	}
	prog, ok := ent.GetComponent("progression")
	if !ok {
		s.reject(p.EntityID, ReasonNoProgression)
		return nil
	}
	points, _ := prog.Int("talentPoints")
	if points <= 0 {
		s.reject(p.EntityID, ReasonNoTalentPoints)
		return nil
	}
	next := prog.Clone()
	next["talentPoints"] = points - 1
	spent, _ := next["talents"].(map[string]any)
	if spent == nil {
		spent = make(map[string]any)
	}
	rank, _ := entity.Component(spent).Int(p.Talent)
	spent[p.Talent] = rank + 1
	next["talents"] = spent
	ent.AddComponent("progression", next)
	s.emitChanged(ent.ID(), next)
	return nil
}

// award adds XP and applies as many level-ups as the new total covers.
func (s *System) award(id string, amount int) {
	ent := s.em.GetEntity(id)
	if ent == nil {
		return
	}
	prog, ok := ent.GetComponent("progression")
	if !ok {
		return
	}
	next := prog.Clone()
	level, _ := next.Int("level")
	if level < 1 {
		level = 1
	}
	xp, _ := next.Int("xp")
	points, _ := next.Int("talentPoints")
	xp += amount

	leveled := level
	for xp >= s.Threshold(leveled) {
		xp -= s.Threshold(leveled)
		leveled++
		points += s.cfg.TalentPointsPerLevel
	}

	next["level"] = leveled
	next["xp"] = xp
	next["talentPoints"] = points
	ent.AddComponent("progression", next)

	for l := level + 1; l <= leveled; l++ {
		s.bus.Emit(events.ProgressionLevelUp, events.LevelUpPayload{EntityID: id, Level: l})
	}
	s.emitChanged(id, next)
}

func (s *System) emitChanged(id string, prog entity.Component) {
	level, _ := prog.Int("level")
	xp, _ := prog.Int("xp")
	points, _ := prog.Int("talentPoints")
	s.bus.Emit(events.ProgressionChanged, events.ProgressionChangedPayload{
		EntityID: id,
		Level:    level,
		XP:       xp,
		Talents:  points,
	})
}

func (s *System) reject(id, reason string) {
	s.lg.Debug("progression request rejected",
		log.String("entity", id), log.String("reason", reason))
	s.bus.Emit(events.ProgressionError, events.ProgressionErrorPayload{
		EntityID: id,
		Reason:   reason,
	})
}
