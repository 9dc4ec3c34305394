package triton

import (
	"bytes"
	"context"
	"strings"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"

	"airouter/internal/apierr"
	"airouter/internal/audio"
	"airouter/internal/backend"
	"airouter/internal/common/fsutil"
	"airouter/internal/inference"
	"airouter/pkg/types"
)

const (
	transcriptPrefixInput = "TEXT_PREFIX"
	transcriptWAVInput    = "WAV"
	transcriptOutput      = "TRANSCRIPTS"
)

func (b *Backend) transcriptionRequest(call backend.TranscriptionCall) (*pb.ModelInferRequest, error) {
	req := call.Request
	if ext := fsutil.FileExtension(req.Filename); ext != "wav" {
		return nil, apierr.BadRequest("unsupported audio file extension %q, only wav is supported", ext)
	}
	tpl := ""
	if call.Data != nil {
		tpl = call.Data.Template
	}
	prefix, err := b.templates.RenderTranscription(req.Language, tpl)
	if err != nil {
		return nil, err
	}
	samples, err := audio.Prepare(bytes.NewReader(req.File))
	if err != nil {
		return nil, err
	}
	r, err := newBuilder(req.Model, call.Data).
		Input(transcriptPrefixInput, scalar, inference.Strings(prefix)).
		Input(transcriptWAVInput, []int64{1, int64(len(samples))}, inference.Float32s(samples)).
		Output(transcriptOutput).
		Build()
	if err != nil {
		return nil, apierr.BadRequest("%v", err)
	}
	return r, nil
}

// Transcriptions runs speech recognition on a WAV upload.
func (b *Backend) Transcriptions(ctx context.Context, call backend.TranscriptionCall) (*backend.Reply, error) {
	r, err := b.transcriptionRequest(call)
	if err != nil {
		return nil, err
	}
	s, err := b.open(ctx, r)
	if err != nil {
		return nil, err
	}
	text, err := collectText(ctx, s, transcriptOutput, keep)
	if err != nil {
		b.log.Error().Err(err).Str("model", call.Request.Model).Msg("transcription failed")
		return nil, err
	}
	text = strings.TrimLeft(text, " \t\r\n")
	switch call.Request.ResponseFormat {
	case "", "json", "verbose_json":
		return backend.JSON(types.TranscriptionResponse{Text: text})
	case "text", "srt", "vtt":
		return backend.Raw("text/plain; charset=utf-8", []byte(text)), nil
	default:
		return nil, apierr.BadRequest("unsupported response_format %q", call.Request.ResponseFormat)
	}
}
