package request

import (
	"airouter/internal/apierr"
)

// CheckInput enforces the model's input token budget on a rendered prompt.
// Without a budget it is a no-op. Otherwise it records the token count in
// d.PromptTokens before comparing against the budget.
func CheckInput(prompt, model string, d *Data) error {
	if d == nil || d.MaxInput == nil {
		return nil
	}
	model = d.ModelName(model)
	if d.Tokenizer == nil {
		return apierr.Configuration("max_input set for model %s but tokenizer is not available", model)
	}
	ids, err := d.Tokenizer.Encode(prompt)
	if err != nil {
		return apierr.Configuration("failed to encode input for model %s: %v", model, err)
	}
	d.PromptTokens = len(ids)
	if d.PromptTokens > *d.MaxInput {
		return apierr.BudgetExceeded(model, *d.MaxInput, d.PromptTokens)
	}
	return nil
}
