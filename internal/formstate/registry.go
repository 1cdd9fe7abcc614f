package formstate

import "sync"

// State bundles the draft store and change tracker for one wedding.
type State struct {
	Drafts  *Drafts
	Changes *Changes
}

// Registry hands out per-wedding form state, created lazily on first
// use. One instance lives for the process lifetime.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[string]*State)}
}

// For returns the state for a wedding config, creating it if needed.
func (r *Registry) For(weddingConfigID string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[weddingConfigID]
	if !ok {
		state = &State{Drafts: NewDrafts(), Changes: NewChanges()}
		r.states[weddingConfigID] = state
	}
	return state
}

// Drop releases a wedding's state, e.g. after signout.
func (r *Registry) Drop(weddingConfigID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, weddingConfigID)
}
