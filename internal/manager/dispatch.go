package manager

import (
	"context"
	"sync"

	"airouter/internal/backend"
	"airouter/internal/config"
	"airouter/pkg/types"
)

// call runs fn against the resolved backend while holding an admission slot.
func call[R any](ctx context.Context, m *Manager, t *target, fn func() (R, error)) (R, error) {
	release, err := m.begin(ctx, t.slot)
	if err != nil {
		var zero R
		return zero, err
	}
	defer release()
	return fn()
}

// stream is call for streaming responses; the slot is held until the stream is closed.
func stream(ctx context.Context, m *Manager, t *target, fn func() (backend.EventStream, error)) (backend.EventStream, error) {
	release, err := m.begin(ctx, t.slot)
	if err != nil {
		return nil, err
	}
	s, err := fn()
	if err != nil {
		release()
		return nil, err
	}
	return &releasingStream{EventStream: s, release: release}, nil
}

type releasingStream struct {
	backend.EventStream
	release func()
	once    sync.Once
}

func (s *releasingStream) Close() error {
	err := s.EventStream.Close()
	s.once.Do(s.release)
	return err
}

func (m *Manager) chatTarget(ctx context.Context, req *types.ChatCompletionRequest, body []byte) (*target, backend.ChatCall, error) {
	t, err := m.resolve(ctx, config.ChatCompletions, req.Model)
	if err != nil {
		return nil, backend.ChatCall{}, err
	}
	req.Model = t.model()
	if body, err = rewriteModel(body, req.Model); err != nil {
		return nil, backend.ChatCall{}, err
	}
	return t, backend.ChatCall{Request: req, Body: body, Data: t.data}, nil
}

// ChatCompletions serves a non-streaming chat request. body is the raw request JSON.
func (m *Manager) ChatCompletions(ctx context.Context, req *types.ChatCompletionRequest, body []byte) (*backend.Reply, error) {
	t, c, err := m.chatTarget(ctx, req, body)
	if err != nil {
		return nil, err
	}
	return call(ctx, m, t, func() (*backend.Reply, error) { return t.backend.ChatCompletions(ctx, c) })
}

// ChatCompletionsStream serves a streaming chat request.
func (m *Manager) ChatCompletionsStream(ctx context.Context, req *types.ChatCompletionRequest, body []byte) (backend.EventStream, error) {
	t, c, err := m.chatTarget(ctx, req, body)
	if err != nil {
		return nil, err
	}
	return stream(ctx, m, t, func() (backend.EventStream, error) { return t.backend.ChatCompletionsStream(ctx, c) })
}

// Legacy completions are served by chat models.
func (m *Manager) completionTarget(ctx context.Context, req *types.CompletionRequest, body []byte) (*target, backend.CompletionCall, error) {
	t, err := m.resolve(ctx, config.ChatCompletions, req.Model)
	if err != nil {
		return nil, backend.CompletionCall{}, err
	}
	req.Model = t.model()
	if body, err = rewriteModel(body, req.Model); err != nil {
		return nil, backend.CompletionCall{}, err
	}
	return t, backend.CompletionCall{Request: req, Body: body, Data: t.data}, nil
}

// Completions serves a non-streaming legacy completion request.
func (m *Manager) Completions(ctx context.Context, req *types.CompletionRequest, body []byte) (*backend.Reply, error) {
	t, c, err := m.completionTarget(ctx, req, body)
	if err != nil {
		return nil, err
	}
	return call(ctx, m, t, func() (*backend.Reply, error) { return t.backend.Completions(ctx, c) })
}

// CompletionsStream serves a streaming legacy completion request.
func (m *Manager) CompletionsStream(ctx context.Context, req *types.CompletionRequest, body []byte) (backend.EventStream, error) {
	t, c, err := m.completionTarget(ctx, req, body)
	if err != nil {
		return nil, err
	}
	return stream(ctx, m, t, func() (backend.EventStream, error) { return t.backend.CompletionsStream(ctx, c) })
}

// Embeddings serves an embeddings request.
func (m *Manager) Embeddings(ctx context.Context, req *types.EmbeddingRequest, body []byte) (*backend.Reply, error) {
	t, err := m.resolve(ctx, config.Embeddings, req.Model)
	if err != nil {
		return nil, err
	}
	req.Model = t.model()
	if body, err = rewriteModel(body, req.Model); err != nil {
		return nil, err
	}
	c := backend.EmbeddingCall{Request: req, Body: body, Data: t.data}
	return call(ctx, m, t, func() (*backend.Reply, error) { return t.backend.Embeddings(ctx, c) })
}

// Transcriptions serves an audio transcription request parsed from a multipart form.
func (m *Manager) Transcriptions(ctx context.Context, req *types.TranscriptionRequest) (*backend.Reply, error) {
	t, err := m.resolve(ctx, config.AudioTranscriptions, req.Model)
	if err != nil {
		return nil, err
	}
	req.Model = t.model()
	c := backend.TranscriptionCall{Request: req, Data: t.data}
	return call(ctx, m, t, func() (*backend.Reply, error) { return t.backend.Transcriptions(ctx, c) })
}

// Speech serves a text-to-speech request.
func (m *Manager) Speech(ctx context.Context, req *types.SpeechRequest, body []byte) (*backend.Reply, error) {
	t, err := m.resolve(ctx, config.AudioSpeech, req.Model)
	if err != nil {
		return nil, err
	}
	req.Model = t.model()
	if body, err = rewriteModel(body, req.Model); err != nil {
		return nil, err
	}
	c := backend.SpeechCall{Request: req, Body: body, Data: t.data}
	return call(ctx, m, t, func() (*backend.Reply, error) { return t.backend.Speech(ctx, c) })
}
