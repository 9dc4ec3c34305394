// Package backend defines the capability every upstream implements and builds
// the named set of upstreams from configuration.
package backend

import (
	"context"
	"encoding/json"

	"airouter/internal/request"
	"airouter/pkg/types"
)

// Backend serves OpenAI-shaped operations against one upstream. Model names
// in the requests are already the backend-facing names; Data carries the
// client-facing name and per-model limits.
type Backend interface {
	ChatCompletions(ctx context.Context, call ChatCall) (*Reply, error)
	ChatCompletionsStream(ctx context.Context, call ChatCall) (EventStream, error)
	Completions(ctx context.Context, call CompletionCall) (*Reply, error)
	CompletionsStream(ctx context.Context, call CompletionCall) (EventStream, error)
	Embeddings(ctx context.Context, call EmbeddingCall) (*Reply, error)
	Transcriptions(ctx context.Context, call TranscriptionCall) (*Reply, error)
	Speech(ctx context.Context, call SpeechCall) (*Reply, error)
	// Ready reports whether the upstream can take requests.
	Ready(ctx context.Context) error
	Close() error
}

// ChatCall is a chat completion request. Body is the raw JSON with the model
// rewritten, for backends that forward it unchanged.
type ChatCall struct {
	Request *types.ChatCompletionRequest
	Body    []byte
	Data    *request.Data
}

// CompletionCall is a legacy completion request.
type CompletionCall struct {
	Request *types.CompletionRequest
	Body    []byte
	Data    *request.Data
}

// EmbeddingCall is an embeddings request.
type EmbeddingCall struct {
	Request *types.EmbeddingRequest
	Body    []byte
	Data    *request.Data
}

// TranscriptionCall is an audio transcription request.
type TranscriptionCall struct {
	Request *types.TranscriptionRequest
	Data    *request.Data
}

// SpeechCall is a text-to-speech request.
type SpeechCall struct {
	Request *types.SpeechRequest
	Body    []byte
	Data    *request.Data
}

// Reply is a complete non-streaming response body.
type Reply struct {
	ContentType string
	Body        []byte
}

// JSON encodes v as an application/json reply.
func JSON(v any) (*Reply, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Reply{ContentType: "application/json", Body: b}, nil
}

// RawJSON wraps an already encoded JSON body.
func RawJSON(b []byte) *Reply {
	return &Reply{ContentType: "application/json", Body: b}
}

// Raw wraps an opaque body such as audio or plain text.
func Raw(contentType string, b []byte) *Reply {
	return &Reply{ContentType: contentType, Body: b}
}
