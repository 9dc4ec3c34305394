package manager

import (
	"time"

	"airouter/internal/backend"
	"airouter/internal/config"
	"airouter/internal/registry"
	"airouter/internal/tokenizer"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultMaxWait = 30 * time.Second
)

// ManagerConfig encapsulates everything the Manager needs.
type ManagerConfig struct {
	Registry *registry.Registry
	Backends backend.Set
	// BackendConfigs supplies the type and admission limits per backend name.
	BackendConfigs map[string]config.Backend
	Tokenizers     tokenizer.Set
	// MaxWait bounds the wait for an admission slot.
	MaxWait time.Duration
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) *Manager {
	m := &Manager{
		registry:   cfg.Registry,
		backends:   cfg.Backends,
		tokenizers: cfg.Tokenizers,
		slots:      map[backend.Backend]*slot{},
		maxWait:    cfg.MaxWait,
	}
	if m.registry == nil {
		m.registry = registry.FromConfig(config.Config{})
	}
	if m.backends == nil {
		m.backends = backend.Set{}
	}
	if m.maxWait <= 0 {
		m.maxWait = defaultMaxWait
	}
	for _, name := range backendNames(m.backends) {
		b := m.backends[name]
		if _, seen := m.slots[b]; seen {
			continue
		}
		s := newSlot(name, cfg.BackendConfigs[name])
		m.slots[b] = s
		m.order = append(m.order, s)
		m.handles = append(m.handles, b)
	}
	return m
}
