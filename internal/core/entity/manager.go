package entity

import (
	"github.com/armlock/armlock/internal/core/events"
	"github.com/armlock/armlock/internal/core/events/bus"
	"github.com/armlock/armlock/internal/core/observability/log"
	"github.com/armlock/armlock/pkg/sequence"
)

var _ indexObserver = (*Manager)(nil)

// Manager owns the authoritative set of live entities and two derived
// indices (by tag and by component type). The indices are pure caches:
// they are updated on every registration, removal, and tag/component
// change of a registered entity, and are always exactly derivable from
// walking the primary map.
//
// Destruction is two-phase: ScheduleDestroy marks, ProcessDestructions
// sweeps. Handlers running inside a frame therefore never see iterators
// or indices invalidated under them.
type Manager struct {
	lg  log.Log
	bus bus.Bus

	entities    map[string]*Entity
	byTag       map[string]map[string]struct{}
	byComponent map[string]map[string]struct{}

	pendingDestroy []string
	pendingSet     map[string]struct{}
}

// NewManager creates an empty manager publishing lifecycle events on b.
func NewManager(b bus.Bus, lg log.Log) *Manager {
	if lg == nil {
		lg = log.Provide()
	}
	return &Manager{
		lg:          lg,
		bus:         b,
		entities:    make(map[string]*Entity),
		byTag:       make(map[string]map[string]struct{}),
		byComponent: make(map[string]map[string]struct{}),
		pendingSet:  make(map[string]struct{}),
	}
}

// CreateEntity builds a new entity with the given component records and
// tags, registers and fully indexes it, then emits entity:created. The
// emit happens strictly after indexing, so listeners observe consistent
// indices when the queued event reaches them.
func (m *Manager) CreateEntity(components map[string]Component, tags []string) *Entity {
	e := New()
	for typ, data := range components {
		e.AddComponent(typ, data)
	}
	for _, tag := range tags {
		e.AddTag(tag)
	}
	m.register(e)
	m.bus.Emit(events.EntityCreated, events.EntityCreatedPayload{
		EntityID: e.ID(),
		Tags:     e.Tags(),
	})
	return e
}

// AddEntity registers an entity constructed elsewhere (clones, restored
// snapshots) and indexes its current tags and components. No event is
// emitted; the index-only path is for plumbing, not gameplay.
func (m *Manager) AddEntity(e *Entity) {
	if e == nil {
		return
	}
	if _, exists := m.entities[e.ID()]; exists {
		m.lg.Warn("entity already registered", log.String("entity", e.ID()))
		return
	}
	m.register(e)
}

// RemoveEntity unindexes, unregisters and destroys the entity. No-op for
// unknown ids. Emits entity:destroyed with the id.
func (m *Manager) RemoveEntity(id string) {
	e, ok := m.entities[id]
	if !ok {
		return
	}
	for tag := range e.tags {
		m.dropFromBucket(m.byTag, tag, id)
	}
	for typ := range e.components {
		m.dropFromBucket(m.byComponent, typ, id)
	}
	delete(m.entities, id)
	e.watch = nil
	e.Destroy()
	m.bus.Emit(events.EntityDestroyed, events.EntityDestroyedPayload{EntityID: id})
}

// GetEntity returns the registered entity, or nil.
func (m *Manager) GetEntity(id string) *Entity {
	return m.entities[id]
}

// EntitiesByTag returns the active entities carrying tag.
func (m *Manager) EntitiesByTag(tag string) []*Entity {
	ids := m.byTag[tag]
	if len(ids) == 0 {
		return nil
	}
	result := make([]*Entity, 0, len(ids))
	for id := range ids {
		if e := m.entities[id]; e != nil && e.IsActive() {
			result = append(result, e)
		}
	}
	return result
}

// EntitiesWithComponents returns the active entities carrying every listed
// component type. Short-circuits to empty when any type has no carriers.
func (m *Manager) EntitiesWithComponents(types ...string) []*Entity {
	if len(types) == 0 {
		return nil
	}
	smallest := types[0]
	for _, t := range types {
		bucket := m.byComponent[t]
		if len(bucket) == 0 {
			return nil
		}
		if len(bucket) < len(m.byComponent[smallest]) {
			smallest = t
		}
	}
	var result []*Entity
	for id := range m.byComponent[smallest] {
		e := m.entities[id]
		if e == nil || !e.IsActive() {
			continue
		}
		if e.HasComponents(types...) {
			result = append(result, e)
		}
	}
	return result
}

// Query runs a linear scan over all entities, filtered by active and the
// predicate. The escape hatch for relations the indices cannot express.
func (m *Manager) Query(pred func(*Entity) bool) []*Entity {
	return sequence.FromMap(m.entities).
		Filter(func(e *Entity) bool { return e.IsActive() && pred(e) }).
		Collect()
}

// ScheduleDestroy queues the entity for removal at the next sweep. The
// entity stays registered, indexed, and resolvable until then.
func (m *Manager) ScheduleDestroy(id string) {
	if _, ok := m.entities[id]; !ok {
		return
	}
	if _, dup := m.pendingSet[id]; dup {
		return
	}
	m.pendingSet[id] = struct{}{}
	m.pendingDestroy = append(m.pendingDestroy, id)
}

// ProcessDestructions sweeps every scheduled entity, in scheduling order,
// then clears the pending set. Removals emit entity:destroyed as usual.
func (m *Manager) ProcessDestructions() {
	if len(m.pendingDestroy) == 0 {
		return
	}
	batch := m.pendingDestroy
	m.pendingDestroy = nil
	m.pendingSet = make(map[string]struct{})
	for _, id := range batch {
		m.RemoveEntity(id)
	}
}

// Update runs one frame step for the store: sweep scheduled destructions,
// then emit the synchronized tick signal.
func (m *Manager) Update(dt float64) {
	m.ProcessDestructions()
	m.bus.Emit(events.EntitiesUpdate, events.EntitiesUpdatePayload{
		Delta: dt,
		Count: len(m.entities),
	})
}

// Stats is a read-only diagnostic snapshot derived from the indices.
type Stats struct {
	Total       int
	Active      int
	ByTag       map[string]int
	ByComponent map[string]int
}

func (m *Manager) Stats() Stats {
	s := Stats{
		Total: len(m.entities),
		Active: sequence.FromMap(m.entities).
			Filter(func(e *Entity) bool { return e.IsActive() }).
			Count(),
		ByTag:       make(map[string]int, len(m.byTag)),
		ByComponent: make(map[string]int, len(m.byComponent)),
	}
	for tag, ids := range m.byTag {
		s.ByTag[tag] = len(ids)
	}
	for typ, ids := range m.byComponent {
		s.ByComponent[typ] = len(ids)
	}
	return s
}

// Clear destroys every entity and wipes all maps. Hard-reset path.
func (m *Manager) Clear() {
	for _, e := range m.entities {
		e.watch = nil
		e.Destroy()
	}
	m.entities = make(map[string]*Entity)
	m.byTag = make(map[string]map[string]struct{})
	m.byComponent = make(map[string]map[string]struct{})
	m.pendingDestroy = nil
	m.pendingSet = make(map[string]struct{})
}

func (m *Manager) register(e *Entity) {
	m.entities[e.ID()] = e
	for tag := range e.tags {
		m.addToBucket(m.byTag, tag, e.ID())
	}
	for typ := range e.components {
		m.addToBucket(m.byComponent, typ, e.ID())
	}
	e.watch = m
}

func (m *Manager) addToBucket(index map[string]map[string]struct{}, key, id string) {
	bucket := index[key]
	if bucket == nil {
		bucket = make(map[string]struct{})
		index[key] = bucket
	}
	bucket[id] = struct{}{}
}

func (m *Manager) dropFromBucket(index map[string]map[string]struct{}, key, id string) {
	bucket := index[key]
	if bucket == nil {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(index, key)
	}
}

// indexObserver hooks, called by registered entities on every mutation.

func (m *Manager) componentAdded(id, typ string)   { m.addToBucket(m.byComponent, typ, id) }
func (m *Manager) componentRemoved(id, typ string) { m.dropFromBucket(m.byComponent, typ, id) }
func (m *Manager) tagAdded(id, tag string)         { m.addToBucket(m.byTag, tag, id) }
func (m *Manager) tagRemoved(id, tag string)       { m.dropFromBucket(m.byTag, tag, id) }
