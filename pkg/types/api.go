package types

// ChatCompletionRequest is the body of POST /v1/chat/completions.
type ChatCompletionRequest struct {
	// Model to use. If empty, the configured default chat model is used.
	// example: meta-llama/Llama-2-70b-chat-hf
	Model string `json:"model" example:"meta-llama/Llama-2-70b-chat-hf"`
	// Conversation so far.
	Messages []ChatMessage `json:"messages"`
	// Maximum number of tokens to generate.
	// example: 256
	MaxTokens *int `json:"max_tokens,omitempty" example:"256"`
	// Number of choices; mapped to the beam width on Triton backends.
	// example: 1
	N *int `json:"n,omitempty" example:"1"`
	// example: 0
	PresencePenalty *float32 `json:"presence_penalty,omitempty" example:"0"`
	// example: 42
	Seed *int64 `json:"seed,omitempty" example:"42"`
	// Stop sequences, a string or a list of strings.
	Stop StringList `json:"stop,omitempty" swaggertype:"array,string"`
	// If true, stream results as server-sent events.
	// example: false
	Stream bool `json:"stream,omitempty" example:"false"`
	// example: 0.7
	Temperature *float32 `json:"temperature,omitempty" example:"0.7"`
	// example: 0.9
	TopP *float32 `json:"top_p,omitempty" example:"0.9"`
	// example: user-1234
	User string `json:"user,omitempty" example:"user-1234"`
}

// CompletionRequest is the body of POST /v1/completions.
type CompletionRequest struct {
	// example: meta-llama/Llama-2-70b-chat-hf
	Model string `json:"model" example:"meta-llama/Llama-2-70b-chat-hf"`
	// Prompt text, a string or a list of strings.
	Prompt          StringList `json:"prompt" swaggertype:"array,string"`
	MaxTokens       *int       `json:"max_tokens,omitempty" example:"256"`
	N               *int       `json:"n,omitempty" example:"1"`
	PresencePenalty *float32   `json:"presence_penalty,omitempty" example:"0"`
	Seed            *int64     `json:"seed,omitempty" example:"42"`
	Stop            StringList `json:"stop,omitempty" swaggertype:"array,string"`
	Stream          bool       `json:"stream,omitempty" example:"false"`
	Temperature     *float32   `json:"temperature,omitempty" example:"0.7"`
	TopP            *float32   `json:"top_p,omitempty" example:"0.9"`
	User            string     `json:"user,omitempty"`
}

// EmbeddingRequest is the body of POST /v1/embeddings.
type EmbeddingRequest struct {
	// example: BAAI/bge-large-en-v1.5
	Model string `json:"model" example:"BAAI/bge-large-en-v1.5"`
	// Text to embed, a string or a list of strings.
	Input EmbeddingInput `json:"input" swaggertype:"array,string"`
	// example: float
	EncodingFormat string `json:"encoding_format,omitempty" example:"float"`
	Dimensions     *int   `json:"dimensions,omitempty"`
	User           string `json:"user,omitempty"`
}

// TranscriptionRequest is parsed from the multipart form of POST /v1/audio/transcriptions.
type TranscriptionRequest struct {
	Model                  string
	File                   []byte
	Filename               string
	Language               string
	Prompt                 string
	ResponseFormat         string
	Temperature            *float32
	TimestampGranularities []string
}

// SpeechRequest is the body of POST /v1/audio/speech.
type SpeechRequest struct {
	// example: tts-1
	Model string `json:"model" example:"tts-1"`
	// example: The quick brown fox jumped over the lazy dog.
	Input string `json:"input" example:"The quick brown fox jumped over the lazy dog."`
	// example: alloy
	Voice string `json:"voice" example:"alloy"`
	// One of mp3, opus, aac, flac, wav, pcm. Defaults to mp3.
	// example: mp3
	ResponseFormat string `json:"response_format,omitempty" example:"mp3"`
	// example: 1
	Speed *float64 `json:"speed,omitempty" example:"1"`
}

// ErrorResponse is the OpenAI error envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes one error.
type ErrorBody struct {
	// example: model_not_found
	Code string `json:"code" example:"model_not_found"`
	// example: model gpt-5 not found
	Message string  `json:"message" example:"model gpt-5 not found"`
	Param   *string `json:"param"`
	// example: invalid_request_error
	Type string `json:"type" example:"invalid_request_error"`
}
