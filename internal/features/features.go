// Package features defines the fixed set of toggleable site sections
// and validates toggle requests against it.
package features

import "sort"

// Known feature names. The set is closed: toggling anything else is a
// validation error, and reads always report every name.
const (
	RSVP        = "rsvp"
	Gallery     = "gallery"
	LoveStory   = "loveStory"
	FAQs        = "faqs"
	BankDetails = "bankDetails"
	Countdown   = "countdown"
	Guestbook   = "guestbook"
)

var known = map[string]struct{}{
	RSVP:        {},
	Gallery:     {},
	LoveStory:   {},
	FAQs:        {},
	BankDetails: {},
	Countdown:   {},
	Guestbook:   {},
}

// Known reports whether name is a valid feature toggle.
func Known(name string) bool {
	_, ok := known[name]
	return ok
}

// Names returns all feature names in stable order.
func Names() []string {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the initial toggle state for a new wedding site:
// every feature enabled.
func Defaults() map[string]bool {
	state := make(map[string]bool, len(known))
	for name := range known {
		state[name] = true
	}
	return state
}

// Normalize fills gaps in a stored state so callers always see the
// complete set. Stored rows may predate a newly added feature; missing
// names default to enabled.
func Normalize(stored map[string]bool) map[string]bool {
	state := Defaults()
	for name, enabled := range stored {
		if _, ok := known[name]; ok {
			state[name] = enabled
		}
	}
	return state
}

// ValidateBatch checks a batch toggle request. It returns the first
// unknown name, or "" if all names are valid. An empty batch is valid
// and a no-op.
func ValidateBatch(toggles map[string]bool) (unknown string) {
	names := make([]string, 0, len(toggles))
	for name := range toggles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !Known(name) {
			return name
		}
	}
	return ""
}
