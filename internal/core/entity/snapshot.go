package entity

// Snapshot is the serializable form of an entity. An external persistence
// layer can marshal it with encoding/json or yaml and restore it later;
// FromSnapshot(e.Snapshot()) reproduces id, components, tags and active.
type Snapshot struct {
	ID         string               `json:"id" yaml:"id"`
	Components map[string]Component `json:"components" yaml:"components"`
	Tags       []string             `json:"tags,omitempty" yaml:"tags,omitempty"`
	Active     *bool                `json:"active,omitempty" yaml:"active,omitempty"`
}

// Snapshot captures the entity's current state. Component records are
// shallow-copied so the snapshot does not alias live data.
func (e *Entity) Snapshot() Snapshot {
	comps := make(map[string]Component, len(e.components))
	for typ, data := range e.components {
		comps[typ] = data.Clone()
	}
	active := e.active
	return Snapshot{
		ID:         e.id,
		Components: comps,
		Tags:       e.Tags(),
		Active:     &active,
	}
}

// FromSnapshot rebuilds an entity from its serialized form. A missing
// active field defaults to true; the result is never destroyed.
func FromSnapshot(s Snapshot) *Entity {
	e := NewWithID(s.ID)
	for typ, data := range s.Components {
		e.components[typ] = data.Clone()
	}
	for _, tag := range s.Tags {
		e.tags[tag] = struct{}{}
	}
	if s.Active != nil {
		e.active = *s.Active
	}
	return e
}
