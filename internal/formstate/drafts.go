package formstate

import "sync"

// Drafts holds per-section pending edits before a save is issued.
// Entry presence is itself meaningful: an empty map still counts as a
// draft, so "photos uploaded but no text changed" is flagged unsaved.
type Drafts struct {
	mu       sync.Mutex
	sections map[string]map[string]any
}

func NewDrafts() *Drafts {
	return &Drafts{sections: make(map[string]map[string]any)}
}

// Set merges value into the section's entry, creating it if absent.
func (d *Drafts) Set(section string, value map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.sections[section]
	if !ok {
		entry = make(map[string]any, len(value))
		d.sections[section] = entry
	}
	for key, v := range value {
		entry[key] = v
	}
}

// Apply runs a pure updater over the previous value (nil when no draft
// exists) and stores the result. A nil result clears the entry.
func (d *Drafts) Apply(section string, fn func(prev map[string]any) map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := fn(d.sections[section])
	if next == nil {
		delete(d.sections, section)
		return
	}
	d.sections[section] = next
}

// Get returns a copy of the section's draft and whether one exists.
func (d *Drafts) Get(section string) (map[string]any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.sections[section]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(entry))
	for key, v := range entry {
		out[key] = v
	}
	return out, true
}

// Has reports whether a draft entry exists for the section.
func (d *Drafts) Has(section string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.sections[section]
	return ok
}

// Clear removes the entry entirely; presence is what Has observes.
func (d *Drafts) Clear(section string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sections, section)
}

func (d *Drafts) ClearAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sections = make(map[string]map[string]any)
}

// Sections lists the section names that currently hold drafts.
func (d *Drafts) Sections() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.sections))
	for name := range d.sections {
		names = append(names, name)
	}
	return names
}
