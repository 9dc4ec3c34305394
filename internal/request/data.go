// Package request holds the per-request state threaded from the HTTP layer
// through a backend, and the input token budget check.
package request

import (
	"airouter/internal/apierr"
	"airouter/internal/config"
	"airouter/internal/tokenizer"
)

// DefaultOutputName is the generation output of TensorRT-LLM style ensembles.
const DefaultOutputName = "text_output"

// Data is owned by one request. The budget check writes PromptTokens once;
// everything else is fixed at construction.
type Data struct {
	// OriginalModel is the model name the client asked for.
	OriginalModel string
	MaxInput      *int
	MaxTokens     *int
	Tokenizer     tokenizer.Tokenizer
	Template      string
	OutputName    string
	// ModelVersion is the pinned backend model version, "" for the newest.
	ModelVersion string
	// RequestID correlates backend requests with the HTTP request log.
	RequestID string

	PromptTokens int
}

// New builds request data for the configured model named name.
func New(name string, m config.Model, toks tokenizer.Set) (*Data, error) {
	d := &Data{
		OriginalModel: name,
		MaxInput:      m.MaxInput,
		MaxTokens:     m.MaxTokens,
		Template:      m.PromptFormat,
		OutputName:    m.OutputName,
		ModelVersion:  m.BackendVersion,
	}
	if d.OutputName == "" {
		d.OutputName = DefaultOutputName
	}
	if m.MaxInput != nil {
		if m.Tokenizer == "" {
			return nil, apierr.Configuration("model parameter max_input requires tokenizer for model %s", name)
		}
		d.Tokenizer = toks.Get(m.Tokenizer)
	}
	return d, nil
}

// ModelName returns the client-facing model name, or fallback when unset.
func (d *Data) ModelName(fallback string) string {
	if d != nil && d.OriginalModel != "" {
		return d.OriginalModel
	}
	return fallback
}
