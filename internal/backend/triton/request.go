package triton

import (
	"math"
	"strings"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"

	"airouter/internal/apierr"
	"airouter/internal/inference"
	"airouter/internal/request"
	"airouter/pkg/types"
)

// MaxTokensCeiling is used when neither the request nor the model sets max_tokens.
const MaxTokensCeiling = 131072

// Turn is one entry of the flattened chat history.
type Turn struct {
	Role    string
	Name    string
	Content string
}

var roleLabels = map[string]string{
	types.RoleSystem:    "System",
	"developer":         "System",
	types.RoleUser:      "User",
	types.RoleAssistant: "Assistant",
	types.RoleTool:      "Tool",
}

// ChatHistory converts request messages to turns. Function messages are
// dropped; unknown roles are rejected.
func ChatHistory(msgs []types.ChatMessage) ([]Turn, error) {
	turns := make([]Turn, 0, len(msgs))
	for i, m := range msgs {
		if m.Role == types.RoleFunction {
			continue
		}
		label, ok := roleLabels[m.Role]
		if !ok {
			return nil, apierr.BadRequest("messages[%d]: unsupported role %q", i, m.Role)
		}
		turns = append(turns, Turn{Role: label, Name: m.Name, Content: m.Text()})
	}
	return turns, nil
}

// FormatChatHistory renders turns as "<Role>[ <name>]: <content>\n" lines
// followed by "ASSISTANT:".
func FormatChatHistory(turns []Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(t.Role)
		if t.Name != "" {
			sb.WriteByte(' ')
			sb.WriteString(t.Name)
		}
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteByte('\n')
	}
	sb.WriteString("ASSISTANT:")
	return sb.String()
}

// sampling holds the generation parameters shared by chat and completions.
type sampling struct {
	MaxTokens       *int
	N               *int
	PresencePenalty *float32
	Seed            *int64
	Stop            []string
	Stream          bool
	Temperature     *float32
	TopP            *float32
}

func chatSampling(r *types.ChatCompletionRequest) sampling {
	return sampling{
		MaxTokens:       r.MaxTokens,
		N:               r.N,
		PresencePenalty: r.PresencePenalty,
		Seed:            r.Seed,
		Stop:            r.Stop,
		Stream:          r.Stream,
		Temperature:     r.Temperature,
		TopP:            r.TopP,
	}
}

func completionSampling(r *types.CompletionRequest) sampling {
	return sampling{
		MaxTokens:       r.MaxTokens,
		N:               r.N,
		PresencePenalty: r.PresencePenalty,
		Seed:            r.Seed,
		Stop:            r.Stop,
		Stream:          r.Stream,
		Temperature:     r.Temperature,
		TopP:            r.TopP,
	}
}

func resolveMaxTokens(req *int, d *request.Data) (int32, error) {
	n := MaxTokensCeiling
	switch {
	case req != nil:
		n = *req
	case d != nil && d.MaxTokens != nil:
		n = *d.MaxTokens
	}
	if n < 0 || n > math.MaxInt32 {
		return 0, apierr.BadRequest("max_tokens %d out of range", n)
	}
	return int32(n), nil
}

var scalar = []int64{1, 1}

// newBuilder starts a request for model with the version pin and request id
// carried by d.
func newBuilder(model string, d *request.Data) *inference.Builder {
	b := inference.NewBuilder().Model(model)
	if d != nil {
		b.Version(d.ModelVersion).ID(d.RequestID)
	}
	return b
}

// buildTextRequest assembles a text generation request for a
// TensorRT-LLM style ensemble.
func buildTextRequest(model, prompt string, p sampling, d *request.Data) (*pb.ModelInferRequest, error) {
	maxTokens, err := resolveMaxTokens(p.MaxTokens, d)
	if err != nil {
		return nil, err
	}
	b := newBuilder(model, d).
		Input("text_input", scalar, inference.Strings(prompt)).
		Input("max_tokens", scalar, inference.Int32s{maxTokens}).
		Input("bad_words", scalar, inference.Strings("")).
		Input("stream", scalar, inference.Bools{p.Stream})
	if p.N != nil {
		if *p.N < 1 || *p.N > math.MaxInt32 {
			return nil, apierr.BadRequest("n %d out of range", *p.N)
		}
		b.Input("beam_width", scalar, inference.Int32s{int32(*p.N)})
	}
	if p.PresencePenalty != nil {
		b.Input("presence_penalty", scalar, inference.Float32s{*p.PresencePenalty})
	}
	if p.Seed != nil {
		b.Input("random_seed", scalar, inference.Uint64s{uint64(*p.Seed)})
	}
	if len(p.Stop) > 0 {
		b.Input("stop_words", []int64{1, int64(len(p.Stop))}, inference.Strings(p.Stop...))
	}
	if p.Temperature != nil {
		b.Input("temperature", scalar, inference.Float32s{*p.Temperature})
	}
	if p.TopP != nil {
		b.Input("top_p", scalar, inference.Float32s{*p.TopP})
	}
	output := request.DefaultOutputName
	if d != nil && d.OutputName != "" {
		output = d.OutputName
	}
	return b.Output(output).Build()
}
