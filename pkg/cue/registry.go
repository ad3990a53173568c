package cue

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps cue ids to playable clips.
type Registry struct {
	mu    sync.RWMutex
	clips map[ID]*Clip
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clips: make(map[ID]*Clip),
	}
}

// Register adds or replaces a clip.
func (r *Registry) Register(clip *Clip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clips[clip.ID] = clip
}

// Unregister removes a clip.
func (r *Registry) Unregister(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clips, id)
}

// Get retrieves the clip for a cue.
func (r *Registry) Get(id ID) (*Clip, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clip, ok := r.clips[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clip, nil
}

// List returns all registered cue ids, sorted.
func (r *Registry) List() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.clips))
	for id := range r.clips {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of registered clips.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clips)
}

// Missing returns the table entries that have no clip, in table order.
func (r *Registry) Missing(t *Table) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []ID
	for _, id := range t.All() {
		if _, ok := r.clips[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// LoadDir registers every clip in dir whose file name is a cue id.
// It returns the number of clips loaded.
func (r *Registry) LoadDir(dir string) (int, error) {
	clips, err := LoadFromDirectory(dir)
	if err != nil {
		return 0, err
	}
	for _, clip := range clips {
		r.Register(clip)
	}
	return len(clips), nil
}

// Synthesize registers a generated clip for every table entry that has no
// clip yet. It returns the number of clips generated.
func (r *Registry) Synthesize(t *Table, cfg SynthConfig) (int, error) {
	n := 0
	for _, id := range r.Missing(t) {
		clip, err := Synthesize(id, cfg)
		if err != nil {
			return n, err
		}
		r.Register(clip)
		n++
	}
	return n, nil
}
