package triton

import (
	"context"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"

	"airouter/internal/backend"
	"airouter/internal/request"
	"airouter/pkg/types"
)

func (b *Backend) chatRequest(call backend.ChatCall) (*pb.ModelInferRequest, error) {
	req := call.Request
	turns, err := ChatHistory(req.Messages)
	if err != nil {
		return nil, err
	}
	prompt := FormatChatHistory(turns)
	if err := request.CheckInput(prompt, req.Model, call.Data); err != nil {
		return nil, err
	}
	return buildTextRequest(req.Model, prompt, chatSampling(req), call.Data)
}

// ChatCompletions returns one chat.completion object built from every response part.
func (b *Backend) ChatCompletions(ctx context.Context, call backend.ChatCall) (*backend.Reply, error) {
	r, err := b.chatRequest(call)
	if err != nil {
		return nil, err
	}
	s, err := b.open(ctx, r)
	if err != nil {
		return nil, err
	}
	text, err := collectText(ctx, s, r.GetOutputs()[0].GetName(), stripEOS)
	if err != nil {
		b.log.Error().Err(err).Str("model", call.Request.Model).Msg("chat completion failed")
		return nil, err
	}
	prompt := promptTokens(call.Data)
	return backend.JSON(types.ChatCompletion{
		ID:      b.newID(),
		Object:  types.ObjectChatCompletion,
		Created: b.now().Unix(),
		Model:   call.Data.ModelName(call.Request.Model),
		Choices: []types.ChatChoice{{
			Message:      types.AssistantMsg{Role: types.RoleAssistant, Content: text},
			FinishReason: types.FinishReasonStop,
		}},
		Usage: &types.Usage{PromptTokens: prompt, TotalTokens: prompt},
	})
}

// ChatCompletionsStream returns chat.completion.chunk events.
func (b *Backend) ChatCompletionsStream(ctx context.Context, call backend.ChatCall) (backend.EventStream, error) {
	r, err := b.chatRequest(call)
	if err != nil {
		return nil, err
	}
	return b.reducer(ctx, r, call.Data, call.Request.Model, chatChunks{})
}

func (b *Backend) reducer(ctx context.Context, r *pb.ModelInferRequest, d *request.Data, model string, f chunkFormat) (backend.EventStream, error) {
	s, err := b.open(ctx, r)
	if err != nil {
		return nil, err
	}
	id := b.newID()
	return &reducer{
		stream:  s,
		output:  r.GetOutputs()[0].GetName(),
		format:  f,
		id:      id,
		created: b.now().Unix(),
		model:   d.ModelName(model),
		log:     b.log.With().Str("id", id).Str("model", model).Logger(),
	}, nil
}

func promptTokens(d *request.Data) int {
	if d == nil {
		return 0
	}
	return d.PromptTokens
}
