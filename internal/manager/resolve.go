package manager

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/sjson"

	"airouter/internal/apierr"
	"airouter/internal/backend"
	"airouter/internal/registry"
	"airouter/internal/request"
)

// target is a resolved model: where to send the request and under which name.
type target struct {
	entry   registry.Entry
	backend backend.Backend
	slot    *slot
	data    *request.Data
}

func (t *target) model() string { return t.entry.TargetModel() }

func (m *Manager) resolve(ctx context.Context, kind, name string) (*target, error) {
	e, ok := m.registry.Lookup(kind, name)
	if !ok {
		if name == "" {
			name = "(unspecified)"
		}
		return nil, apierr.ModelNotFound(name)
	}
	b, ok := m.backends.Get(e.Backend)
	if !ok {
		return nil, apierr.Configuration("model %s: backend %s not available", e.Name, e.Backend)
	}
	d, err := request.New(e.Name, e.Model, m.tokenizers)
	if err != nil {
		return nil, err
	}
	d.RequestID = middleware.GetReqID(ctx)
	t := &target{entry: e, backend: b, slot: m.slots[b], data: d}
	log.Debug().Str("model", e.Name).Str("kind", kind).Str("backend", e.Backend).Str("backend_model", t.model()).Msg("model resolved")
	return t, nil
}

// rewriteModel sets "model" in a raw JSON body, keeping every other field as sent.
func rewriteModel(body []byte, model string) ([]byte, error) {
	out, err := sjson.SetBytes(body, "model", model)
	if err != nil {
		return nil, apierr.BadRequest("invalid request body: %v", err)
	}
	return out, nil
}
