package e2e

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"airouter/internal/backend"
	"airouter/internal/backend/openai"
	"airouter/internal/backend/triton"
	"airouter/internal/config"
	"airouter/internal/httpapi"
	"airouter/internal/inference/inferencetest"
	"airouter/internal/manager"
	"airouter/internal/templater"
	"airouter/internal/tokenizer"
)

const upstreamChat = `{"id":"chatcmpl-up","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"from openai"}}]}`

func intp(v int) *int { return &v }

func routerConfig(upstreamURL string) config.Config {
	cfg := config.Config{
		Backends: map[string]config.Backend{
			"triton": {Type: config.BackendTriton, BaseURL: "bufnet", Default: true},
			"openai": {Type: config.BackendOpenAI, BaseURL: upstreamURL, APIKey: "sk-up"},
		},
		Models: map[string]map[string]config.Model{
			config.ChatCompletions: {
				"llama":  {BackendModel: "ensemble", Default: true, MaxTokens: intp(32)},
				"gpt-4o": {Backend: "openai"},
			},
			config.Embeddings: {
				"bge": {Backend: "triton"},
			},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// newRouter starts the full HTTP stack with a bufconn Triton and an
// httptest OpenAI upstream, and returns an openai-go client pointed at it.
func newRouter(t *testing.T, tri *inferencetest.Server) (oai.Client, *httptest.Server) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, upstreamChat)
	}))
	t.Cleanup(upstream.Close)

	cfg := routerConfig(upstream.URL + "/v1")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	tpl, err := templater.New("")
	if err != nil {
		t.Fatalf("templater: %v", err)
	}
	set, err := backend.Open(cfg.Backends, map[string]backend.Factory{
		config.BackendOpenAI: openai.Factory,
		config.BackendTriton: func(name string, _ config.Backend) (backend.Backend, error) {
			return triton.New(name, inferencetest.Start(t, tri), tpl), nil
		},
	})
	if err != nil {
		t.Fatalf("open backends: %v", err)
	}
	t.Cleanup(func() { _ = set.Close() })

	srv := httptest.NewServer(httpapi.NewMux(manager.New(cfg, set, tokenizer.Set{})))
	t.Cleanup(srv.Close)
	client := oai.NewClient(option.WithBaseURL(srv.URL+"/v1"), option.WithAPIKey("test"), option.WithMaxRetries(0))
	return client, srv
}
