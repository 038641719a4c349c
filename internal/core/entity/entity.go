package entity

import (
	"sort"

	"github.com/google/uuid"

	"github.com/armlock/armlock/internal/core/observability/log"
)

// indexObserver receives every tag and component change of a registered
// entity so the owning manager can keep its indices exact.
type indexObserver interface {
	componentAdded(id, typ string)
	componentRemoved(id, typ string)
	tagAdded(id, tag string)
	tagRemoved(id, tag string)
}

// Entity is an id-bearing container of components and tags. It has no
// behavior of its own; systems read and write its component records.
//
// Once destroyed, an entity refuses every further mutation: the mutators
// log the violation and return unchanged. Queries keep working so
// in-flight handlers can still inspect the corpse.
type Entity struct {
	id         string
	components map[string]Component
	tags       map[string]struct{}
	active     bool
	destroyed  bool
	watch      indexObserver
}

// New mints an entity with a fresh unique id, active and empty.
func New() *Entity {
	return NewWithID(uuid.NewString())
}

// NewWithID builds an entity around an existing id. Used when restoring
// snapshots; id uniqueness is the caller's problem.
func NewWithID(id string) *Entity {
	return &Entity{
		id:         id,
		components: make(map[string]Component),
		tags:       make(map[string]struct{}),
		active:     true,
	}
}

// ID returns the opaque stable identifier.
func (e *Entity) ID() string { return e.id }

// AddComponent attaches (or replaces, last write wins) a component record.
// The record is stored as a shallow copy, so later caller-side mutation of
// data never aliases into the entity.
func (e *Entity) AddComponent(typ string, data Component) *Entity {
	if e.guardDestroyed("AddComponent", typ) {
		return e
	}
	e.components[typ] = data.Clone()
	if e.watch != nil {
		e.watch.componentAdded(e.id, typ)
	}
	return e
}

// GetComponent returns the stored record. Mutating the returned map
// mutates the entity; that is the mechanism systems use.
func (e *Entity) GetComponent(typ string) (Component, bool) {
	c, ok := e.components[typ]
	return c, ok
}

func (e *Entity) HasComponent(typ string) bool {
	_, ok := e.components[typ]
	return ok
}

// HasComponents reports whether every listed type is present.
func (e *Entity) HasComponents(types ...string) bool {
	for _, t := range types {
		if !e.HasComponent(t) {
			return false
		}
	}
	return true
}

func (e *Entity) RemoveComponent(typ string) *Entity {
	if e.guardDestroyed("RemoveComponent", typ) {
		return e
	}
	if _, ok := e.components[typ]; !ok {
		return e
	}
	delete(e.components, typ)
	if e.watch != nil {
		e.watch.componentRemoved(e.id, typ)
	}
	return e
}

// ComponentTypes returns the attached type names, sorted.
func (e *Entity) ComponentTypes() []string {
	types := make([]string, 0, len(e.components))
	for t := range e.components {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (e *Entity) AddTag(tag string) *Entity {
	if e.guardDestroyed("AddTag", tag) {
		return e
	}
	if _, ok := e.tags[tag]; ok {
		return e
	}
	e.tags[tag] = struct{}{}
	if e.watch != nil {
		e.watch.tagAdded(e.id, tag)
	}
	return e
}

func (e *Entity) RemoveTag(tag string) *Entity {
	if e.guardDestroyed("RemoveTag", tag) {
		return e
	}
	if _, ok := e.tags[tag]; !ok {
		return e
	}
	delete(e.tags, tag)
	if e.watch != nil {
		e.watch.tagRemoved(e.id, tag)
	}
	return e
}

func (e *Entity) HasTag(tag string) bool {
	_, ok := e.tags[tag]
	return ok
}

// Tags returns the tag set, sorted.
func (e *Entity) Tags() []string {
	tags := make([]string, 0, len(e.tags))
	for t := range e.tags {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// SetActive toggles visibility to queries without touching any data.
func (e *Entity) SetActive(active bool) *Entity {
	if e.destroyed {
		return e
	}
	e.active = active
	return e
}

func (e *Entity) IsActive() bool { return e.active }

// Destroy latches the entity dead and inactive. Idempotent; there is no
// way back.
func (e *Entity) Destroy() {
	e.destroyed = true
	e.active = false
}

func (e *Entity) IsDestroyed() bool { return e.destroyed }

// Clone copies the entity under a new id: each component shallow-copied,
// tags copied, active preserved. The clone is never destroyed and never
// indexed, regardless of the source's state.
func (e *Entity) Clone() *Entity {
	c := NewWithID(uuid.NewString())
	for typ, data := range e.components {
		c.components[typ] = data.Clone()
	}
	for tag := range e.tags {
		c.tags[tag] = struct{}{}
	}
	c.active = e.active
	return c
}

func (e *Entity) guardDestroyed(op, arg string) bool {
	if !e.destroyed {
		return false
	}
	log.Provide().Warn("mutation of destroyed entity ignored",
		log.String("entity", e.id),
		log.String("op", op),
		log.String("arg", arg),
	)
	return true
}
