package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	oai "github.com/openai/openai-go/v3"

	"airouter/internal/inference/inferencetest"
	"airouter/pkg/types"
)

func TestChatCompletionThroughTriton(t *testing.T) {
	tri := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Text("text_output", "The answer"),
		inferencetest.Text("text_output", " is 42</s>"),
	)}
	client, _ := newRouter(t, tri)

	resp, err := client.Chat.Completions.New(context.Background(), oai.ChatCompletionNewParams{
		Model:    "llama",
		Messages: []oai.ChatCompletionMessageParamUnion{oai.UserMessage("what is it?")},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.Model != "llama" || resp.Choices[0].Message.Content != "The answer is 42" {
		t.Fatalf("unexpected response model=%q content=%q", resp.Model, resp.Choices[0].Message.Content)
	}
	reqs := tri.Requests()
	if len(reqs) != 1 || reqs[0].GetModelName() != "ensemble" {
		t.Fatalf("backend_model not used: %v", reqs)
	}
}

func TestChatStreamThroughTriton(t *testing.T) {
	tri := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Text("text_output", "Hello"),
		inferencetest.Text("text_output", "Hello world"),
	)}
	client, _ := newRouter(t, tri)

	s := client.Chat.Completions.NewStreaming(context.Background(), oai.ChatCompletionNewParams{
		Messages: []oai.ChatCompletionMessageParamUnion{oai.UserMessage("hi")},
	})
	defer s.Close()
	var sb strings.Builder
	for s.Next() {
		for _, c := range s.Current().Choices {
			sb.WriteString(c.Delta.Content)
		}
	}
	if err := s.Err(); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != "Hello world" {
		t.Fatalf("unexpected streamed text %q", sb.String())
	}
}

func TestChatPassThroughToOpenAI(t *testing.T) {
	client, _ := newRouter(t, &inferencetest.Server{})
	resp, err := client.Chat.Completions.New(context.Background(), oai.ChatCompletionNewParams{
		Model:    "gpt-4o",
		Messages: []oai.ChatCompletionMessageParamUnion{oai.UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if resp.ID != "chatcmpl-up" || resp.Choices[0].Message.Content != "from openai" {
		t.Fatalf("upstream reply not relayed: %+v", resp)
	}
}

func TestEmbeddingsThroughTriton(t *testing.T) {
	tri := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Floats("embedding", []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6}),
	)}
	client, _ := newRouter(t, tri)

	resp, err := client.Embeddings.New(context.Background(), oai.EmbeddingNewParams{
		Model: "bge",
		Input: oai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("embeddings: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[1].Embedding[2] != 6 || resp.Data[1].Index != 1 {
		t.Fatalf("unexpected embeddings %+v", resp.Data)
	}
}

func TestUnknownModelIsOpenAIError(t *testing.T) {
	client, _ := newRouter(t, &inferencetest.Server{})
	_, err := client.Embeddings.New(context.Background(), oai.EmbeddingNewParams{
		Model: "missing",
		Input: oai.EmbeddingNewParamsInputUnion{OfString: oai.String("x")},
	})
	var apiErr *oai.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "model_not_found" {
		t.Fatalf("expected model_not_found, got %v", err)
	}
}

func TestModelsAndUnknownURL(t *testing.T) {
	_, srv := newRouter(t, &inferencetest.Server{})

	res, err := http.Get(srv.URL + "/v1/models")
	if err != nil {
		t.Fatal(err)
	}
	var list types.ModelList
	_ = json.NewDecoder(res.Body).Decode(&list)
	res.Body.Close()
	if len(list.Data) != 3 || list.Data[0].OwnedBy != types.ModelOwner {
		t.Fatalf("unexpected models %+v", list)
	}

	res, err = http.Get(srv.URL + "/v1/nope")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound || !strings.Contains(string(body), `"code":"unknown_url"`) {
		t.Fatalf("status=%d body=%s", res.StatusCode, body)
	}
}
