package triton

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
	"github.com/rs/zerolog"

	"airouter/internal/backend"
	"airouter/internal/inference"
	"airouter/pkg/types"
)

type streamState int

const (
	streaming streamState = iota
	done
	errored
)

// chunkFormat renders deltas and the terminal chunk for one endpoint.
type chunkFormat interface {
	delta(id string, created int64, model, text string) any
	terminal(id string, created int64, model string) any
}

type chatChunks struct{}

func (chatChunks) delta(id string, created int64, model, text string) any {
	return types.ChatCompletionChunk{
		ID:      id,
		Object:  types.ObjectChatCompletionChunk,
		Created: created,
		Model:   model,
		Choices: []types.ChunkChoice{{Delta: types.Delta{Role: types.RoleAssistant, Content: text}}},
	}
}

func (chatChunks) terminal(id string, created int64, model string) any {
	return types.ChatCompletionChunk{
		ID:      id,
		Object:  types.ObjectChatCompletionChunk,
		Created: created,
		Model:   model,
		Choices: []types.ChunkChoice{{FinishReason: types.StopReason()}},
	}
}

type completionChunks struct{}

func (completionChunks) delta(id string, created int64, model, text string) any {
	return types.Completion{
		ID:      id,
		Object:  types.ObjectTextCompletion,
		Created: created,
		Model:   model,
		Choices: []types.CompletionChoice{{Text: text}},
	}
}

func (completionChunks) terminal(id string, created int64, model string) any {
	return types.Completion{
		ID:      id,
		Object:  types.ObjectTextCompletion,
		Created: created,
		Model:   model,
		Choices: []types.CompletionChoice{{FinishReason: types.StopReason()}},
	}
}

// Delta returns the part of cur that extends prev. When cur does not start
// with prev the whole of cur is returned and diverged is set.
func Delta(prev, cur string) (delta string, diverged bool) {
	if strings.HasPrefix(cur, prev) {
		return cur[len(prev):], false
	}
	return cur, true
}

// reducer turns a stream of cumulative text responses into incremental
// server-sent events: deltas, one terminal chunk, then [DONE]. Backend
// errors after the stream has started are sent in-band as error events.
type reducer struct {
	stream  inference.Stream
	output  string
	format  chunkFormat
	id      string
	created int64
	model   string
	log     zerolog.Logger

	prev    string
	state   streamState
	pending []backend.Event
}

var _ backend.EventStream = (*reducer)(nil)

func (r *reducer) Next(ctx context.Context) (backend.Event, error) {
	for {
		if len(r.pending) > 0 {
			ev := r.pending[0]
			r.pending = r.pending[1:]
			return ev, nil
		}
		if r.state != streaming {
			return backend.Event{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			r.state = errored
			return backend.Event{}, err
		}
		resp, err := r.stream.Recv()
		if errors.Is(err, io.EOF) {
			r.state = done
			r.pending = append(r.pending, r.event(r.format.terminal(r.id, r.created, r.model)), backend.DoneEvent())
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				r.state = errored
				return backend.Event{}, ctxErr
			}
			r.log.Error().Err(err).Msg("failed to receive from triton stream")
			r.fail(backend.InternalErrorEvent())
			continue
		}
		if ev, ok := r.reduce(resp); ok {
			return ev, nil
		}
	}
}

// reduce handles one response. It returns false when nothing is to be emitted.
func (r *reducer) reduce(resp *pb.ModelStreamInferResponse) (backend.Event, bool) {
	if msg := resp.GetErrorMessage(); msg != "" {
		r.log.Error().Str("error_message", msg).Msg("error message received from triton")
		r.fail(backend.InternalErrorEvent())
		return backend.Event{}, false
	}
	ir := resp.GetInferResponse()
	if ir == nil {
		r.log.Error().Msg("empty infer response received")
		r.fail(backend.InternalErrorEvent())
		return backend.Event{}, false
	}
	raw, _, ok := inference.RawOutput(ir, r.output)
	if !ok {
		r.log.Error().Str("output", r.output).Msg("output tensor not found in triton response")
		// Plain data event, not a named error event.
		r.fail(r.event(map[string]string{"error": fmt.Sprintf("%s not found in Triton response", r.output)}))
		return backend.Event{}, false
	}
	parts, err := inference.DecodeBytes(raw)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to decode triton output")
		r.fail(backend.InternalErrorEvent())
		return backend.Event{}, false
	}
	text := strings.ReplaceAll(strings.Join(parts, ""), EOS, "")
	if text == "" {
		return backend.Event{}, false
	}
	delta, diverged := Delta(r.prev, text)
	if delta == "" {
		return backend.Event{}, false
	}
	if diverged {
		r.log.Warn().Int("prev_len", len(r.prev)).Int("cur_len", len(text)).Msg("cumulative text does not extend previous chunk")
	}
	r.prev = text
	return r.event(r.format.delta(r.id, r.created, r.model, delta)), true
}

func (r *reducer) fail(ev backend.Event) {
	r.state = errored
	r.pending = append(r.pending, ev)
}

func (r *reducer) event(v any) backend.Event {
	ev, err := backend.DataEvent(v)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to encode chunk")
		r.state = errored
		return backend.InternalErrorEvent()
	}
	return ev
}

func (r *reducer) Close() error {
	r.stream.Close()
	return nil
}
