package entity

import "maps"

// Component is a plain data record attached to an entity under a string
// type name. Components carry no behavior; every field is owned by the one
// system that initializes the record, and other systems read (or, by
// documented convention, mutate) fields through it.
type Component map[string]any

// Clone returns a shallow copy of the record.
func (c Component) Clone() Component {
	if c == nil {
		return Component{}
	}
	return maps.Clone(c)
}

// Float reads a numeric field. JSON and YAML decoding produce a mix of
// int and float64, so both are accepted.
func (c Component) Float(key string) (float64, bool) {
	switch v := c[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int reads an integer field.
func (c Component) Int(key string) (int, bool) {
	switch v := c[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Str reads a string field.
func (c Component) Str(key string) (string, bool) {
	v, ok := c[key].(string)
	return v, ok
}

// Bool reads a boolean field.
func (c Component) Bool(key string) (bool, bool) {
	v, ok := c[key].(bool)
	return v, ok
}
