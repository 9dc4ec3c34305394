package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"airouter/internal/config"
	"airouter/pkg/types"
)

func testConfig() config.Config {
	return config.Config{Models: map[string]map[string]config.Model{
		config.ChatCompletions: {
			"llama":  {Backend: "triton", BackendModel: "ensemble", Default: true},
			"gpt-4o": {Backend: "openai"},
		},
		config.Embeddings: {
			"bge":   {Backend: "triton"},
			"llama": {Backend: "triton"},
		},
	}}
}

func TestLookup(t *testing.T) {
	r := FromConfig(testConfig())
	e, ok := r.Lookup(config.ChatCompletions, "llama")
	if !ok {
		t.Fatalf("llama not found")
	}
	if e.Kind != config.ChatCompletions || e.TargetModel() != "ensemble" {
		t.Fatalf("unexpected entry %+v", e)
	}
	e, ok = r.Lookup(config.ChatCompletions, "gpt-4o")
	if !ok || e.TargetModel() != "gpt-4o" {
		t.Fatalf("target model should default to the name: %+v", e)
	}
	if _, ok := r.Lookup(config.Embeddings, "gpt-4o"); ok {
		t.Fatalf("lookup must be scoped by kind")
	}
	if _, ok := r.Lookup(config.AudioSpeech, "x"); ok {
		t.Fatalf("unexpected hit for unconfigured kind")
	}
}

func TestLookupDefault(t *testing.T) {
	r := FromConfig(testConfig())
	e, ok := r.Lookup(config.ChatCompletions, "")
	if !ok || e.Name != "llama" {
		t.Fatalf("expected default llama, got %+v ok=%v", e, ok)
	}
	if _, ok := r.Lookup(config.Embeddings, ""); ok {
		t.Fatalf("embeddings has no default")
	}
}

func TestModelsSortedAndUnique(t *testing.T) {
	r := FromConfig(testConfig())
	models := r.Models()
	var want []types.Model
	for _, id := range []string{"bge", "gpt-4o", "llama"} {
		want = append(want, types.Model{ID: id, Object: "model", Created: 1700000000, OwnedBy: "original owners"})
	}
	if diff := cmp.Diff(want, models); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}
	models[0].ID = "mutated"
	if r.Models()[0].ID != "bge" {
		t.Fatalf("Models must return a copy")
	}
}
