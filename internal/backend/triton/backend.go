// Package triton serves OpenAI-shaped requests from a Triton inference server
// over the gRPC ModelStreamInfer call.
package triton

import (
	"context"
	"time"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"airouter/internal/apierr"
	"airouter/internal/backend"
	"airouter/internal/config"
	"airouter/internal/inference"
	"airouter/internal/templater"
)

// EOS is removed from all generated text.
const EOS = "</s>"

// Inferer is the part of inference.Client the backend needs.
type Inferer interface {
	StreamInfer(ctx context.Context, req *pb.ModelInferRequest) (inference.Stream, error)
	Ready(ctx context.Context) error
	Close() error
}

// Backend implements backend.Backend for Triton.
type Backend struct {
	name      string
	client    Inferer
	templates *templater.Templater
	log       zerolog.Logger
	now       func() time.Time
	newID     func() string
}

var _ backend.Backend = (*Backend)(nil)

// Factory returns a backend.Factory that dials Triton at the configured base URL.
func Factory(tpl *templater.Templater) backend.Factory {
	return func(name string, cfg config.Backend) (backend.Backend, error) {
		c, err := inference.Dial(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return New(name, c, tpl), nil
	}
}

// New wraps an existing client.
func New(name string, c Inferer, tpl *templater.Templater) *Backend {
	if tpl == nil {
		tpl, _ = templater.New("")
	}
	return &Backend{
		name:      name,
		client:    c,
		templates: tpl,
		log:       log.With().Str("backend", name).Logger(),
		now:       time.Now,
		newID:     func() string { return "cmpl-" + uuid.NewString() },
	}
}

func (b *Backend) open(ctx context.Context, req *pb.ModelInferRequest) (inference.Stream, error) {
	s, err := b.client.StreamInfer(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.log.Error().Err(err).Str("model", req.GetModelName()).Msg("failed to call model_stream_infer")
		return nil, apierr.BackendProtocol("failed to call triton grpc method model_stream_infer: %v", err)
	}
	return s, nil
}

// Speech is not available on Triton.
func (b *Backend) Speech(context.Context, backend.SpeechCall) (*backend.Reply, error) {
	return nil, apierr.BadRequest("create speech to Triton backend not implemented yet")
}

func (b *Backend) Ready(ctx context.Context) error { return b.client.Ready(ctx) }

func (b *Backend) Close() error { return b.client.Close() }
