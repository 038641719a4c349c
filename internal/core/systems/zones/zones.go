// Package zones tracks which zone each entity is in and gates entry.
package zones

import (
	"github.com/armlock/armlock/internal/config"
	"github.com/armlock/armlock/internal/core/entity"
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
)

// Rejection reasons carried by zone:error payloads.
const (
	ReasonUnknownZone = "unknown-zone"
	ReasonLevelTooLow = "level-too-low"
)

// System owns the zone component. The zone table comes from config; the
// occupant sets mirror the component for cheap same-zone queries.
type System struct {
	lg    log.Log
	bus   bus.Bus
	em    *entity.Manager
	table []config.ZoneConfig

	occupants map[string]map[string]struct{} // zone name -> entity ids
}

func New(b bus.Bus, em *entity.Manager, table []config.ZoneConfig, lg log.Log) *System {
	if lg == nil {
		lg = log.Provide()
	}
	s := &System{
		lg:        lg.With(log.String("system", "zones")),
		bus:       b,
		em:        em,
		table:     table,
		occupants: make(map[string]map[string]struct{}),
	}
	b.On(events.ZoneEnterRequest, s.onEnterRequest)
	b.On(events.EntityDestroyed, s.onEntityDestroyed)
	return s
}

func (s *System) Name() string { return "zones" }

func (s *System) Owns() []string { return []string{"zone"} }

func (s *System) Update(dt float64) {}

// Occupants returns the ids currently inside the zone.
func (s *System) Occupants(zone string) []string {
	ids := make([]string, 0, len(s.occupants[zone]))
	for id := range s.occupants[zone] {
		ids = append(ids, id)
	}
	return ids
}

func (s *System) onEnterRequest(e bus.Event) error {
	p, ok := e.Payload.(events.ZoneEnterRequestPayload)
	if !ok {
		return nil
	}
	ent := s.em.GetEntity(p.EntityID)
	if ent == nil || !ent.IsActive() {
		s.lg.Debug("zone entry for missing entity", log.String("entity", p.EntityID))
		return nil
	}
	zc, ok := s.lookup(p.Zone)
	if !ok {
		s.reject(p.EntityID, p.Zone, ReasonUnknownZone)
		return nil
	}
	if s.level(ent) < zc.MinLevel {
		s.reject(p.EntityID, p.Zone, ReasonLevelTooLow)
		return nil
	}

	from := s.currentZone(ent)
	if from == p.Zone {
		return nil
	}
	if from != "" {
		s.dropOccupant(from, ent.ID())
		s.bus.Emit(events.ZoneLeft, events.ZoneLeftPayload{EntityID: ent.ID(), Zone: from})
	}
	ent.AddComponent("zone", entity.Component{"name": p.Zone})
	s.addOccupant(p.Zone, ent.ID())
	s.bus.Emit(events.ZoneEntered, events.ZoneEnteredPayload{
		EntityID: ent.ID(), Zone: p.Zone, From: from,
	})
	return nil
}

func (s *System) onEntityDestroyed(e bus.Event) error {
	p, ok := e.Payload.(events.EntityDestroyedPayload)
	if !ok {
		return nil
	}
	for zone, ids := range s.occupants {
		if _, in := ids[p.EntityID]; in {
			s.dropOccupant(zone, p.EntityID)
			s.bus.Emit(events.ZoneLeft, events.ZoneLeftPayload{EntityID: p.EntityID, Zone: zone})
		}
	}
	return nil
}

func (s *System) lookup(name string) (config.ZoneConfig, bool) {
	for _, z := range s.table {
		if z.Name == name {
			return z, true
		}
	}
	return config.ZoneConfig{}, false
}

// level reads progression without owning it; entities with none count as
// level one.
func (s *System) level(ent *entity.Entity) int {
	prog, ok := ent.GetComponent("progression")
	if !ok {
		return 1
	}
	if lvl, ok := prog.Int("level"); ok {
		return lvl
	}
	return 1
}

func (s *System) currentZone(ent *entity.Entity) string {
	zc, ok := ent.GetComponent("zone")
	if !ok {
		return ""
	}
	name, _ := zc.Str("name")
	return name
}

func (s *System) addOccupant(zone, id string) {
	ids := s.occupants[zone]
	if ids == nil {
		ids = make(map[string]struct{})
		s.occupants[zone] = ids
	}
	ids[id] = struct{}{}
}

func (s *System) dropOccupant(zone, id string) {
	ids, ok := s.occupants[zone]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(s.occupants, zone)
	}
}

func (s *System) reject(id, zone, reason string) {
	s.lg.Debug("zone entry rejected",
		log.String("entity", id), log.String("zone", zone), log.String("reason", reason))
	s.bus.Emit(events.ZoneError, events.ZoneErrorPayload{
		EntityID: id, Zone: zone, Reason: reason,
	})
}
