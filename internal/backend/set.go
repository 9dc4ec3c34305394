package backend

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"airouter/internal/config"
)

// Factory constructs a backend of one type.
type Factory func(name string, cfg config.Backend) (Backend, error)

// Set maps backend names to handles. A backend marked default is also
// reachable as config.DefaultBackend.
type Set map[string]Backend

// Open constructs every configured backend using the factory for its type.
// On error, backends built so far are closed.
func Open(cfgs map[string]config.Backend, factories map[string]Factory) (Set, error) {
	set := Set{}
	names := make([]string, 0, len(cfgs))
	for n := range cfgs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		bc := cfgs[name]
		f, ok := factories[bc.Type]
		if !ok {
			_ = set.Close()
			return nil, fmt.Errorf("backend %s: unsupported type %q", name, bc.Type)
		}
		b, err := f(name, bc)
		if err != nil {
			_ = set.Close()
			return nil, fmt.Errorf("backend %s: %w", name, err)
		}
		set[name] = b
		if bc.Default {
			set[config.DefaultBackend] = b
		}
		log.Info().Str("backend", name).Str("type", bc.Type).Str("base_url", bc.BaseURL).Bool("default", bc.Default).Msg("backend configured")
	}
	return set, nil
}

// Get returns the backend registered as name.
func (s Set) Get(name string) (Backend, bool) {
	b, ok := s[name]
	return b, ok
}

// Close closes every distinct backend once.
func (s Set) Close() error {
	seen := map[Backend]bool{}
	var errs []error
	for _, b := range s {
		if seen[b] {
			continue
		}
		seen[b] = true
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
