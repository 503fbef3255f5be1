package instance

import (
	"sort"
	"sync"

	"max-notify/internal/model"
)

// Registry holds the current config entries by id. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items map[string]model.Instance
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]model.Instance)}
}

func (r *Registry) Get(id string) (model.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.items[id]
	return inst, ok
}

// List returns every instance ordered by id.
func (r *Registry) List() []model.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Instance, 0, len(r.items))
	for _, inst := range r.items {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) put(inst model.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[inst.ID] = inst
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}
