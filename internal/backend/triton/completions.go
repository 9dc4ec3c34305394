package triton

import (
	"context"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"

	"airouter/internal/apierr"
	"airouter/internal/backend"
	"airouter/internal/request"
	"airouter/internal/templater"
	"airouter/pkg/types"
)

func (b *Backend) completionRequest(call backend.CompletionCall) (*pb.ModelInferRequest, error) {
	req := call.Request
	if len(req.Prompt) == 0 {
		return nil, apierr.BadRequest("prompt is required")
	}
	tpl := ""
	if call.Data != nil {
		tpl = call.Data.Template
	}
	prompt, err := b.templates.Render([]string(req.Prompt), tpl, templater.Completions)
	if err != nil {
		return nil, err
	}
	if err := request.CheckInput(prompt, req.Model, call.Data); err != nil {
		return nil, err
	}
	return buildTextRequest(req.Model, prompt, completionSampling(req), call.Data)
}

// Completions returns one text_completion object. Each decoded element is
// trimmed before being appended.
func (b *Backend) Completions(ctx context.Context, call backend.CompletionCall) (*backend.Reply, error) {
	r, err := b.completionRequest(call)
	if err != nil {
		return nil, err
	}
	s, err := b.open(ctx, r)
	if err != nil {
		return nil, err
	}
	text, err := collectText(ctx, s, r.GetOutputs()[0].GetName(), trimStripEOS)
	if err != nil {
		b.log.Error().Err(err).Str("model", call.Request.Model).Msg("completion failed")
		return nil, err
	}
	prompt := promptTokens(call.Data)
	return backend.JSON(types.Completion{
		ID:      b.newID(),
		Object:  types.ObjectTextCompletion,
		Created: b.now().Unix(),
		Model:   call.Data.ModelName(call.Request.Model),
		Choices: []types.CompletionChoice{{Text: text, FinishReason: types.StopReason()}},
		Usage:   &types.Usage{PromptTokens: prompt, TotalTokens: prompt},
	})
}

// CompletionsStream returns text_completion events.
func (b *Backend) CompletionsStream(ctx context.Context, call backend.CompletionCall) (backend.EventStream, error) {
	r, err := b.completionRequest(call)
	if err != nil {
		return nil, err
	}
	return b.reducer(ctx, r, call.Data, call.Request.Model, completionChunks{})
}
