package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"airouter/internal/backend"
	"airouter/internal/config"
	"airouter/internal/registry"
	"airouter/internal/tokenizer"
	"airouter/pkg/types"
)

type Manager struct {
	registry   *registry.Registry
	backends   backend.Set
	tokenizers tokenizer.Set
	// slots is keyed by backend handle so the default alias shares its limits.
	slots   map[backend.Backend]*slot
	order   []*slot
	handles []backend.Backend
	maxWait time.Duration
}

// New builds a Manager for cfg using already opened backends.
func New(cfg config.Config, backends backend.Set, toks tokenizer.Set) *Manager {
	return NewWithConfig(ManagerConfig{
		Registry:       registry.FromConfig(cfg),
		Backends:       backends,
		BackendConfigs: cfg.Backends,
		Tokenizers:     toks,
		MaxWait:        time.Duration(cfg.Daemon.QueueTimeout) * time.Second,
	})
}

// ListModels returns every configured model name.
func (m *Manager) ListModels() []types.Model {
	return m.registry.Models()
}

// Ready reports whether every backend is ready to serve.
func (m *Manager) Ready(ctx context.Context) error {
	var errs []error
	for i, b := range m.handles {
		if err := b.Ready(ctx); err != nil {
			errs = append(errs, fmt.Errorf("backend %s: %w", m.order[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// backendNames returns the set's names sorted, with the default alias last
// so that every handle is first seen under its own name.
func backendNames(set backend.Set) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		if k != config.DefaultBackend {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	if _, ok := set[config.DefaultBackend]; ok {
		out = append(out, config.DefaultBackend)
	}
	return out
}
