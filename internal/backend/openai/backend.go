// Package openai forwards requests to an OpenAI-compatible HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"airouter/internal/apierr"
	"airouter/internal/backend"
	"airouter/internal/config"
)

// Backend implements backend.Backend on top of the openai-go client.
type Backend struct {
	name   string
	client oai.Client
	log    zerolog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// Factory builds a Backend from its configuration.
func Factory(name string, cfg config.Backend) (backend.Backend, error) {
	return New(name, cfg), nil
}

// New returns a Backend for cfg. An empty base URL targets api.openai.com.
func New(name string, cfg config.Backend, opts ...option.RequestOption) *Backend {
	base := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		base = append(base, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"))
	}
	return &Backend{
		name:   name,
		client: oai.NewClient(append(base, opts...)...),
		log:    log.With().Str("backend", name).Logger(),
	}
}

// ChatCompletions forwards the request body and returns the upstream JSON unchanged.
func (b *Backend) ChatCompletions(ctx context.Context, call backend.ChatCall) (*backend.Reply, error) {
	var params oai.ChatCompletionNewParams
	if err := json.Unmarshal(call.Body, &params); err != nil {
		return nil, apierr.BadRequest("invalid chat completion request: %v", err)
	}
	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, b.upstream(err, "chat completion")
	}
	return backend.RawJSON([]byte(resp.RawJSON())), nil
}

// ChatCompletionsStream relays upstream chunks as they arrive.
func (b *Backend) ChatCompletionsStream(ctx context.Context, call backend.ChatCall) (backend.EventStream, error) {
	var params oai.ChatCompletionNewParams
	if err := json.Unmarshal(call.Body, &params); err != nil {
		return nil, apierr.BadRequest("invalid chat completion request: %v", err)
	}
	s := b.client.Chat.Completions.NewStreaming(ctx, params)
	if err := s.Err(); err != nil {
		_ = s.Close()
		return nil, b.upstream(err, "chat completion stream")
	}
	return &chunkStream{stream: s, log: b.log}, nil
}

// Completions is not offered by this backend.
func (b *Backend) Completions(context.Context, backend.CompletionCall) (*backend.Reply, error) {
	return nil, apierr.BadRequest("completions not supported by the openai backend")
}

// CompletionsStream is not offered by this backend.
func (b *Backend) CompletionsStream(context.Context, backend.CompletionCall) (backend.EventStream, error) {
	return nil, apierr.BadRequest("completions not supported by the openai backend")
}

func (b *Backend) Embeddings(ctx context.Context, call backend.EmbeddingCall) (*backend.Reply, error) {
	var params oai.EmbeddingNewParams
	if err := json.Unmarshal(call.Body, &params); err != nil {
		return nil, apierr.BadRequest("invalid embedding request: %v", err)
	}
	resp, err := b.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, b.upstream(err, "embedding")
	}
	return backend.RawJSON([]byte(resp.RawJSON())), nil
}

// Transcriptions re-encodes the upload as multipart and returns the upstream
// body with its content type, so text, srt and vtt pass through untouched.
func (b *Backend) Transcriptions(ctx context.Context, call backend.TranscriptionCall) (*backend.Reply, error) {
	req := call.Request
	params := oai.AudioTranscriptionNewParams{
		File:                   oai.File(bytes.NewReader(req.File), req.Filename, "application/octet-stream"),
		Model:                  req.Model,
		ResponseFormat:         oai.AudioResponseFormat(req.ResponseFormat),
		TimestampGranularities: req.TimestampGranularities,
	}
	if req.Language != "" {
		params.Language = oai.String(req.Language)
	}
	if req.Prompt != "" {
		params.Prompt = oai.String(req.Prompt)
	}
	if req.Temperature != nil {
		params.Temperature = oai.Float(float64(*req.Temperature))
	}
	var resp *http.Response
	if err := b.client.Post(ctx, "audio/transcriptions", params, &resp); err != nil {
		return nil, b.upstream(err, "transcription")
	}
	return readReply(resp, "application/json")
}

// Speech returns the generated audio.
func (b *Backend) Speech(ctx context.Context, call backend.SpeechCall) (*backend.Reply, error) {
	var params oai.AudioSpeechNewParams
	if err := json.Unmarshal(call.Body, &params); err != nil {
		return nil, apierr.BadRequest("invalid speech request: %v", err)
	}
	resp, err := b.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, b.upstream(err, "speech")
	}
	return readReply(resp, SpeechContentType(call.Request.ResponseFormat))
}

// Ready always succeeds; the upstream is not probed.
func (b *Backend) Ready(context.Context) error { return nil }

func (b *Backend) Close() error { return nil }

// SpeechContentType maps a speech response_format to its media type.
func SpeechContentType(format string) string {
	switch format {
	case "opus":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	case "flac":
		return "audio/flac"
	case "wav":
		return "audio/wav"
	case "pcm":
		return "audio/pcm"
	default:
		return "audio/mpeg"
	}
}

func readReply(resp *http.Response, fallback string) (*backend.Reply, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.Upstream(http.StatusBadGateway, "failed to read upstream response: "+err.Error())
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = fallback
	}
	return backend.Raw(ct, body), nil
}

// upstream converts a client error into an API error carrying the upstream status.
func (b *Backend) upstream(err error, op string) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		b.log.Warn().Int("status", apiErr.StatusCode).Str("op", op).Msg(apiErr.Message)
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return apierr.Upstream(apiErr.StatusCode, msg)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	b.log.Error().Err(err).Str("op", op).Msg("upstream request failed")
	return apierr.Upstream(http.StatusBadGateway, op+" request to upstream failed")
}
