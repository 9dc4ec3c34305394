// Package backendtest provides a configurable Backend for tests.
package backendtest

import (
	"context"
	"errors"
	"io"
	"sync"

	"airouter/internal/backend"
)

// ErrNotSet is returned by Fake methods without a hook.
var ErrNotSet = errors.New("backendtest: no hook set")

// Fake records calls and delegates to the optional hooks.
type Fake struct {
	ChatFn          func(context.Context, backend.ChatCall) (*backend.Reply, error)
	ChatStreamFn    func(context.Context, backend.ChatCall) (backend.EventStream, error)
	CompletionFn    func(context.Context, backend.CompletionCall) (*backend.Reply, error)
	EmbeddingsFn    func(context.Context, backend.EmbeddingCall) (*backend.Reply, error)
	TranscriptionFn func(context.Context, backend.TranscriptionCall) (*backend.Reply, error)
	SpeechFn        func(context.Context, backend.SpeechCall) (*backend.Reply, error)
	ReadyErr        error

	mu     sync.Mutex
	Calls  []string
	Closed int
}

func (f *Fake) record(op string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, op)
	f.mu.Unlock()
}

func (f *Fake) ChatCompletions(ctx context.Context, c backend.ChatCall) (*backend.Reply, error) {
	f.record("chat")
	if f.ChatFn == nil {
		return nil, ErrNotSet
	}
	return f.ChatFn(ctx, c)
}

func (f *Fake) ChatCompletionsStream(ctx context.Context, c backend.ChatCall) (backend.EventStream, error) {
	f.record("chat_stream")
	if f.ChatStreamFn == nil {
		return nil, ErrNotSet
	}
	return f.ChatStreamFn(ctx, c)
}

func (f *Fake) Completions(ctx context.Context, c backend.CompletionCall) (*backend.Reply, error) {
	f.record("completions")
	if f.CompletionFn == nil {
		return nil, ErrNotSet
	}
	return f.CompletionFn(ctx, c)
}

func (f *Fake) CompletionsStream(context.Context, backend.CompletionCall) (backend.EventStream, error) {
	f.record("completions_stream")
	return Events(), nil
}

func (f *Fake) Embeddings(ctx context.Context, c backend.EmbeddingCall) (*backend.Reply, error) {
	f.record("embeddings")
	if f.EmbeddingsFn == nil {
		return nil, ErrNotSet
	}
	return f.EmbeddingsFn(ctx, c)
}

func (f *Fake) Transcriptions(ctx context.Context, c backend.TranscriptionCall) (*backend.Reply, error) {
	f.record("transcriptions")
	if f.TranscriptionFn == nil {
		return nil, ErrNotSet
	}
	return f.TranscriptionFn(ctx, c)
}

func (f *Fake) Speech(ctx context.Context, c backend.SpeechCall) (*backend.Reply, error) {
	f.record("speech")
	if f.SpeechFn == nil {
		return nil, ErrNotSet
	}
	return f.SpeechFn(ctx, c)
}

func (f *Fake) Ready(context.Context) error { return f.ReadyErr }

func (f *Fake) Close() error {
	f.mu.Lock()
	f.Closed++
	f.mu.Unlock()
	return nil
}

// SliceStream replays a fixed list of events.
type SliceStream struct {
	events []backend.Event
	Closed bool
}

// Events returns a stream over evs.
func Events(evs ...backend.Event) *SliceStream {
	return &SliceStream{events: evs}
}

func (s *SliceStream) Next(ctx context.Context) (backend.Event, error) {
	if err := ctx.Err(); err != nil {
		return backend.Event{}, err
	}
	if len(s.events) == 0 {
		return backend.Event{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *SliceStream) Close() error {
	s.Closed = true
	return nil
}
