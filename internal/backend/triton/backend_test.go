package triton_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airouter/internal/apierr"
	"airouter/internal/backend"
	"airouter/internal/backend/triton"
	"airouter/internal/inference/inferencetest"
	"airouter/internal/request"
	"airouter/internal/templater"
	"airouter/internal/tokenizer"
	"airouter/pkg/types"
)

func newBackend(t *testing.T, srv *inferencetest.Server) *triton.Backend {
	t.Helper()
	return triton.New("triton", inferencetest.Start(t, srv), nil)
}

func chatCall(stream bool) backend.ChatCall {
	return backend.ChatCall{
		Request: &types.ChatCompletionRequest{
			Model:    "llama",
			Messages: []types.ChatMessage{{Role: "user", Content: "hi"}},
			Stream:   stream,
		},
		Data: &request.Data{OriginalModel: "chat-model", OutputName: request.DefaultOutputName},
	}
}

func TestChatCompletions(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Text("text_output", "Hello"),
		inferencetest.Text("text_output", " world</s>"),
	)}
	b := newBackend(t, srv)
	reply, err := b.ChatCompletions(context.Background(), chatCall(false))
	require.NoError(t, err)
	var got types.ChatCompletion
	require.NoError(t, json.Unmarshal(reply.Body, &got))
	assert.Equal(t, "chat.completion", got.Object)
	assert.Equal(t, "chat-model", got.Model)
	assert.True(t, strings.HasPrefix(got.ID, "cmpl-"), got.ID)
	assert.Equal(t, "Hello world", got.Choices[0].Message.Content)
	assert.Equal(t, "stop", got.Choices[0].FinishReason)
	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "llama", reqs[0].GetModelName())
}

func TestChatCompletionsSendsVersionAndID(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(inferencetest.Text("text_output", "ok"))}
	b := newBackend(t, srv)
	call := chatCall(false)
	call.Data.ModelVersion = "2"
	call.Data.RequestID = "req-1"
	_, err := b.ChatCompletions(context.Background(), call)
	require.NoError(t, err)
	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "2", reqs[0].GetModelVersion())
	assert.Equal(t, "req-1", reqs[0].GetId())
}

func TestChatCompletionsStream(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Text("text_output", "Hello"),
		inferencetest.Text("text_output", "Hello world"),
	)}
	b := newBackend(t, srv)
	s, err := b.ChatCompletionsStream(context.Background(), chatCall(true))
	require.NoError(t, err)
	evs, err := backend.Collect(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, evs, 4)
	assert.Equal(t, backend.Done, string(evs[3].Data))
	var first, second types.ChatCompletionChunk
	require.NoError(t, json.Unmarshal(evs[0].Data, &first))
	require.NoError(t, json.Unmarshal(evs[1].Data, &second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "chat-model", first.Model)
	assert.Equal(t, " world", second.Choices[0].Delta.Content)
}

func TestChatCompletionsReportedError(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(inferencetest.Error("model crashed"))}
	_, err := newBackend(t, srv).ChatCompletions(context.Background(), chatCall(false))
	assert.True(t, apierr.IsBackendReported(err), "got %v", err)
}

func TestChatCompletionsMissingOutput(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(inferencetest.Text("other", "x"))}
	_, err := newBackend(t, srv).ChatCompletions(context.Background(), chatCall(false))
	assert.True(t, apierr.IsBackendProtocol(err), "got %v", err)
}

func TestChatBudgetExceeded(t *testing.T) {
	srv := &inferencetest.Server{}
	b := newBackend(t, srv)
	budget := 2
	call := chatCall(false)
	call.Data.MaxInput = &budget
	call.Data.Tokenizer = tokenizer.Func(func(s string) ([]int, error) { return make([]int, len(strings.Fields(s))), nil })
	_, err := b.ChatCompletions(context.Background(), call)
	assert.True(t, apierr.IsBudgetExceeded(err), "got %v", err)
	assert.Empty(t, srv.Requests(), "request sent despite budget")
}

func TestCompletions(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Text("text_output", " The answer "),
		inferencetest.Text("text_output", "is 42</s>"),
	)}
	b := newBackend(t, srv)
	call := backend.CompletionCall{
		Request: &types.CompletionRequest{Model: "llama", Prompt: types.StringList{"What", " is it?"}},
		Data:    &request.Data{OutputName: request.DefaultOutputName},
	}
	reply, err := b.Completions(context.Background(), call)
	require.NoError(t, err)
	var got types.Completion
	require.NoError(t, json.Unmarshal(reply.Body, &got))
	assert.Equal(t, "text_completion", got.Object)
	assert.Equal(t, "The answeris 42", got.Choices[0].Text)
	assert.Equal(t, "llama", got.Model)
	prompt := srv.Requests()[0].GetInputs()[0].GetContents().GetBytesContents()[0]
	assert.Equal(t, "What is it?"+templater.AssistantMarker, string(prompt))
}

func TestEmbeddings(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Floats("embedding", []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6}),
	)}
	b := newBackend(t, srv)
	call := backend.EmbeddingCall{Request: &types.EmbeddingRequest{
		Model: "e5", Input: types.EmbeddingInput{Texts: []string{"a", "b"}},
	}}
	reply, err := b.Embeddings(context.Background(), call)
	require.NoError(t, err)
	var got types.EmbeddingResponse
	require.NoError(t, json.Unmarshal(reply.Body, &got))
	assert.Equal(t, "list", got.Object)
	require.Len(t, got.Data, 2)
	assert.Equal(t, 1, got.Data[1].Index)
	assert.Equal(t, "embedding", got.Data[1].Object)
	assert.EqualValues(t, 6, got.Data[1].Embedding[2])
	in := srv.Requests()[0].GetInputs()[0]
	assert.Equal(t, "text", in.GetName())
	assert.Equal(t, []int64{2, 1}, in.GetShape())
}

func TestEmbeddingsBatchMismatch(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(
		inferencetest.Floats("embedding", []int64{1, 3}, []float32{1, 2, 3}),
	)}
	call := backend.EmbeddingCall{Request: &types.EmbeddingRequest{
		Model: "e5", Input: types.EmbeddingInput{Texts: []string{"a", "b"}},
	}}
	_, err := newBackend(t, srv).Embeddings(context.Background(), call)
	assert.True(t, apierr.IsBackendProtocol(err), "got %v", err)
}

func TestEmbeddingsTokensRejected(t *testing.T) {
	call := backend.EmbeddingCall{Request: &types.EmbeddingRequest{Model: "e5", Input: types.EmbeddingInput{Tokens: true}}}
	_, err := newBackend(t, &inferencetest.Server{}).Embeddings(context.Background(), call)
	assert.True(t, apierr.IsBadRequest(err), "got %v", err)
}

func wavBytes(t *testing.T, rate, channels, frames int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = (i % 200) - 100
	}
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: rate}, Data: data, SourceBitDepth: 16}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestTranscriptions(t *testing.T) {
	srv := &inferencetest.Server{Handler: inferencetest.Replay(inferencetest.Text("TRANSCRIPTS", "  hello there"))}
	b := newBackend(t, srv)
	call := backend.TranscriptionCall{Request: &types.TranscriptionRequest{
		Model: "whisper", File: wavBytes(t, 16000, 1, 1600), Filename: "clip.wav",
	}}
	reply, err := b.Transcriptions(context.Background(), call)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello there"}`, string(reply.Body))
	wavIn := srv.Requests()[0].GetInputs()[1]
	assert.Equal(t, "WAV", wavIn.GetName())
	assert.Equal(t, int64(160000), wavIn.GetShape()[1])

	call.Request.ResponseFormat = "text"
	reply, err = b.Transcriptions(context.Background(), call)
	require.NoError(t, err)
	assert.Equal(t, "hello there", string(reply.Body))
	assert.True(t, strings.HasPrefix(reply.ContentType, "text/plain"), reply.ContentType)
}

func TestTranscriptionsRejectsNonWAV(t *testing.T) {
	call := backend.TranscriptionCall{Request: &types.TranscriptionRequest{Model: "whisper", File: []byte("ID3"), Filename: "clip.mp3"}}
	_, err := newBackend(t, &inferencetest.Server{}).Transcriptions(context.Background(), call)
	assert.True(t, apierr.IsBadRequest(err), "got %v", err)
}

func TestSpeechNotImplemented(t *testing.T) {
	_, err := newBackend(t, &inferencetest.Server{}).Speech(context.Background(), backend.SpeechCall{})
	assert.True(t, apierr.IsBadRequest(err), "got %v", err)
}

func TestReady(t *testing.T) {
	require.NoError(t, newBackend(t, &inferencetest.Server{}).Ready(context.Background()))
	assert.Error(t, newBackend(t, &inferencetest.Server{NotReady: true}).Ready(context.Background()))
}
