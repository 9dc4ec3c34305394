// Package registry indexes the configured models by endpoint type.
package registry

import (
	"sort"

	"airouter/internal/config"
	"airouter/pkg/types"
)

// Entry is one configured model.
type Entry struct {
	// Name is the model name clients send.
	Name string
	Kind string
	config.Model
}

// TargetModel returns the model name to send to the backend.
func (e Entry) TargetModel() string {
	if e.BackendModel != "" {
		return e.BackendModel
	}
	return e.Name
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	byKind   map[string]map[string]Entry
	defaults map[string]string
	models   []types.Model
}

// FromConfig builds a registry from the [models] tables of cfg.
func FromConfig(cfg config.Config) *Registry {
	r := &Registry{
		byKind:   map[string]map[string]Entry{},
		defaults: map[string]string{},
	}
	seen := map[string]bool{}
	for kind, models := range cfg.Models {
		entries := make(map[string]Entry, len(models))
		for name, m := range models {
			entries[name] = Entry{Name: name, Kind: kind, Model: m}
			if m.Default {
				r.defaults[kind] = name
			}
			if !seen[name] {
				seen[name] = true
				r.models = append(r.models, types.Model{
					ID:      name,
					Object:  types.ObjectModel,
					Created: types.ModelCreated,
					OwnedBy: types.ModelOwner,
				})
			}
		}
		r.byKind[kind] = entries
	}
	sort.Slice(r.models, func(i, j int) bool { return r.models[i].ID < r.models[j].ID })
	return r
}

// Lookup finds the model name of the given kind. An empty name selects the
// kind's default model, if one is configured.
func (r *Registry) Lookup(kind, name string) (Entry, bool) {
	if name == "" {
		var ok bool
		if name, ok = r.defaults[kind]; !ok {
			return Entry{}, false
		}
	}
	e, ok := r.byKind[kind][name]
	return e, ok
}

// Models lists every configured model name once, sorted.
func (r *Registry) Models() []types.Model {
	out := make([]types.Model, len(r.models))
	copy(out, r.models)
	return out
}
