// Package relations keeps faction standings and per-entity aggro edges.
package relations

import (
	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
)

// System owns the faction component. Standings are symmetric and keyed by
// faction name pairs; aggro is a directed edge set between entity ids.
type System struct {
	lg  log.Log
	bus bus.Bus
	em  *entity.Manager
	cfg config.RelationsConfig

	standings map[string]map[string]float64
	aggro     map[string]map[string]struct{} // source id -> target ids
}

func New(b bus.Bus, em *entity.Manager, cfg config.RelationsConfig, lg log.Log) *System {
	if lg == nil {
		lg = log.Provide()
	}
	s := &System{
		lg:        lg.With(log.String("system", "relations")),
		bus:       b,
		em:        em,
		cfg:       cfg,
		standings: make(map[string]map[string]float64),
		aggro:     make(map[string]map[string]struct{}),
	}
	b.On(events.CombatStarted, s.onCombatStarted)
	b.On(events.CombatEnded, s.onCombatEnded)
	b.On(events.ZoneEntered, s.onZoneEntered)
	b.On(events.EntityDestroyed, s.onEntityDestroyed)
	return s
}

func (s *System) Name() string { return "relations" }

func (s *System) Owns() []string { return []string{"faction"} }

func (s *System) Update(dt float64) {}

// Standing returns the mutual standing between two factions. Unknown
// pairs are neutral.
func (s *System) Standing(a, b string) float64 {
	if row, ok := s.standings[a]; ok {
		return row[b]
	}
	return 0
}

// SetStanding seeds a mutual standing, e.g. from a content table.
func (s *System) SetStanding(a, b string, v float64) {
	if a == "" || b == "" || a == b {
		return
	}
	s.setStanding(a, b, v)
}

// Hostile reports whether two factions are at or below the hostile
// threshold.
func (s *System) Hostile(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	return s.Standing(a, b) <= s.cfg.HostileThreshold
}

// HasAggro reports a directed aggro edge.
func (s *System) HasAggro(sourceID, targetID string) bool {
	_, ok := s.aggro[sourceID][targetID]
	return ok
}

func (s *System) onCombatStarted(e bus.Event) error {
	p, ok := e.Payload.(events.CombatStartedPayload)
	if !ok {
		return nil
	}
	// A bout makes both arms hostile for its duration.
	s.gainAggro(p.AttackerID, p.DefenderID)
	s.gainAggro(p.DefenderID, p.AttackerID)
	return nil
}

func (s *System) onCombatEnded(e bus.Event) error {
	p, ok := e.Payload.(events.CombatEndedPayload)
	if !ok {
		return nil
	}
	s.dropAggro(p.WinnerID, p.LoserID)
	s.dropAggro(p.LoserID, p.WinnerID)
	if p.Fled {
		return nil
	}
	wf := s.faction(p.WinnerID)
	lf := s.faction(p.LoserID)
	if wf == "" || lf == "" || wf == lf {
		return nil
	}
	next := s.Standing(wf, lf) - s.cfg.DefeatPenalty
	s.setStanding(wf, lf, next)
	s.bus.Emit(events.RelationStandingChanged, events.StandingChangedPayload{
		Faction:  wf,
		Other:    lf,
		Standing: next,
	})
	return nil
}

// onZoneEntered makes hostile occupants of the zone pick a fight with the
// newcomer.
func (s *System) onZoneEntered(e bus.Event) error {
	p, ok := e.Payload.(events.ZoneEnteredPayload)
	if !ok {
		return nil
	}
	newcomer := s.em.GetEntity(p.EntityID)
	if newcomer == nil {
		return nil
	}
	nf := s.faction(p.EntityID)
	if nf == "" {
		return nil
	}
	for _, occ := range s.em.EntitiesWithComponents("zone", "faction") {
		if occ.ID() == p.EntityID {
			continue
		}
		zc, _ := occ.GetComponent("zone")
		name, _ := zc.Str("name")
		if name != p.Zone {
			continue
		}
		of := s.faction(occ.ID())
		if !s.Hostile(of, nf) {
			continue
		}
		s.gainAggro(occ.ID(), p.EntityID)
		s.bus.Emit(events.CombatRequest, events.CombatRequestPayload{
			AttackerID: occ.ID(),
			DefenderID: p.EntityID,
		})
	}
	return nil
}

func (s *System) onEntityDestroyed(e bus.Event) error {
	p, ok := e.Payload.(events.EntityDestroyedPayload)
	if !ok {
		return nil
	}
	for target := range s.aggro[p.EntityID] {
		s.dropAggro(p.EntityID, target)
	}
	for source, targets := range s.aggro {
		if _, ok := targets[p.EntityID]; ok {
			s.dropAggro(source, p.EntityID)
		}
	}
	return nil
}

func (s *System) faction(id string) string {
	ent := s.em.GetEntity(id)
	if ent == nil {
		return ""
	}
	fc, ok := ent.GetComponent("faction")
	if !ok {
		return ""
	}
	name, _ := fc.Str("name")
	return name
}

func (s *System) setStanding(a, b string, v float64) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		row := s.standings[pair[0]]
		if row == nil {
			row = make(map[string]float64)
			s.standings[pair[0]] = row
		}
		row[pair[1]] = v
	}
}

func (s *System) gainAggro(sourceID, targetID string) {
	if sourceID == "" || targetID == "" || sourceID == targetID {
		return
	}
	targets := s.aggro[sourceID]
	if targets == nil {
		targets = make(map[string]struct{})
		s.aggro[sourceID] = targets
	}
	if _, ok := targets[targetID]; ok {
		return
	}
	targets[targetID] = struct{}{}
	s.bus.Emit(events.RelationAggroGained, events.AggroPayload{
		SourceID: sourceID,
		TargetID: targetID,
	})
}

func (s *System) dropAggro(sourceID, targetID string) {
	targets, ok := s.aggro[sourceID]
	if !ok {
		return
	}
	if _, ok := targets[targetID]; !ok {
		return
	}
	delete(targets, targetID)
	if len(targets) == 0 {
		delete(s.aggro, sourceID)
	}
	s.bus.Emit(events.RelationAggroCleared, events.AggroPayload{
		SourceID: sourceID,
		TargetID: targetID,
	})
}
