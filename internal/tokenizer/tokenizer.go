// Package tokenizer provides the token counters used for input budget checks.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/rs/zerolog/log"
)

// Tokenizer turns text into tokens. Only the count is used.
type Tokenizer interface {
	Encode(text string) ([]int, error)
}

// Func adapts a plain function to Tokenizer.
type Func func(text string) ([]int, error)

func (f Func) Encode(text string) ([]int, error) { return f(text) }

var loaderOnce sync.Once

type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenizer) Encode(text string) ([]int, error) {
	return t.enc.Encode(text, nil, nil), nil
}

// New resolves name as a tiktoken encoding (cl100k_base, o200k_base) or as an
// OpenAI model name (gpt-4o). BPE ranks come from the embedded offline loader.
func New(name string) (Tokenizer, error) {
	loaderOnce.Do(func() { tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader()) })
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		enc, err = tiktoken.EncodingForModel(name)
	}
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: %w", name, err)
	}
	return tiktokenizer{enc: enc}, nil
}

// Set holds tokenizers by name.
type Set map[string]Tokenizer

// Load builds a Set for names. A tokenizer that fails to load is logged and
// left out; requests that need it fail the budget check instead.
func Load(names []string) Set {
	set := Set{}
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := set[n]; ok {
			continue
		}
		tok, err := New(n)
		if err != nil {
			log.Error().Err(err).Str("tokenizer", n).Msg("failed to load tokenizer")
			continue
		}
		set[n] = tok
	}
	return set
}

// Get returns the tokenizer for name, or nil.
func (s Set) Get(name string) Tokenizer {
	if s == nil {
		return nil
	}
	return s[name]
}
