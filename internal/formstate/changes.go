// Package formstate holds the in-memory, per-wedding form state the
// admin dashboard round-trips between views: unsaved draft payloads
// and the per-section sets of changed field names. Nothing here is
// persisted; state is lost on restart.
package formstate

import (
	"reflect"
	"sync"
)

// Changes tracks which field names differ from the last-saved server
// state, per section. A field counts as changed iff its normalized
// current value differs from its normalized saved value, where
// normalization unifies nil/absent only — an empty string is a real
// value distinct from nil.
type Changes struct {
	mu       sync.Mutex
	sections map[string]map[string]struct{}
}

func NewChanges() *Changes {
	return &Changes{sections: make(map[string]map[string]struct{})}
}

// SetChanged recomputes membership for one field and returns whether
// the field is now in the changed set.
func (c *Changes) SetChanged(section, field string, current, saved any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := !valuesEqual(current, saved)
	set, ok := c.sections[section]
	if changed {
		if !ok {
			set = make(map[string]struct{})
			c.sections[section] = set
		}
		set[field] = struct{}{}
		return true
	}
	if ok {
		delete(set, field)
		if len(set) == 0 {
			delete(c.sections, section)
		}
	}
	return false
}

// ChangedFields returns the changed field names for a section.
func (c *Changes) ChangedFields(section string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := c.sections[section]
	fields := make([]string, 0, len(set))
	for field := range set {
		fields = append(fields, field)
	}
	return fields
}

// HasAnyChanges reports whether any section has a non-empty set.
func (c *Changes) HasAnyChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, set := range c.sections {
		if len(set) > 0 {
			return true
		}
	}
	return false
}

func (c *Changes) ClearSection(section string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sections, section)
}

func (c *Changes) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sections = make(map[string]map[string]struct{})
}

// valuesEqual applies the null-normalizing equality rule. Values come
// from decoded JSON, so DeepEqual covers strings, numbers, bools,
// slices and maps.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
