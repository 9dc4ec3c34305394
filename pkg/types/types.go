package types

// Object literals.
const (
	ObjectChatCompletion      = "chat.completion"
	ObjectChatCompletionChunk = "chat.completion.chunk"
	ObjectTextCompletion      = "text_completion"
	ObjectEmbedding           = "embedding"
	ObjectList                = "list"
	ObjectModel               = "model"
)

// FinishReasonStop is the only finish reason reported for generated text.
const FinishReasonStop = "stop"

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleFunction  = "function"
)

// Usage reports token counts.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" example:"12"`
	CompletionTokens int `json:"completion_tokens" example:"0"`
	TotalTokens      int `json:"total_tokens" example:"12"`
}

// ChatCompletion is a non-streaming chat response.
type ChatCompletion struct {
	ID      string       `json:"id" example:"cmpl-8c6e1f7e-4a3f-4b7b-9a53-3f6d2f1f3a10"`
	Object  string       `json:"object" example:"chat.completion"`
	Created int64        `json:"created" example:"1700000000"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// ChatChoice is one generated message.
type ChatChoice struct {
	Index        int          `json:"index"`
	Message      AssistantMsg `json:"message"`
	FinishReason string       `json:"finish_reason"`
}

// AssistantMsg is the generated message of a choice.
type AssistantMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionChunk is one server-sent event of a streaming chat response.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice carries one delta.
type ChunkChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental part of a message. The terminal chunk has an empty delta.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Completion is a legacy completion response, also used for its streaming chunks.
type Completion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object" example:"text_completion"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

// CompletionChoice is one generated text.
type CompletionChoice struct {
	Text         string  `json:"text"`
	Index        int     `json:"index"`
	Logprobs     any     `json:"logprobs"`
	FinishReason *string `json:"finish_reason"`
}

// EmbeddingResponse is returned by POST /v1/embeddings.
type EmbeddingResponse struct {
	Object string      `json:"object" example:"list"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  Usage       `json:"usage"`
}

// Embedding is one vector.
type Embedding struct {
	Object    string    `json:"object" example:"embedding"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// TranscriptionResponse is the json and verbose_json transcription body.
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// StopReason returns a pointer to FinishReasonStop for chunk choices.
func StopReason() *string {
	s := FinishReasonStop
	return &s
}
