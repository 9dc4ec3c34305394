package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"airouter/internal/apierr"
	"airouter/internal/audio"
	"airouter/internal/common/fsutil"
	"airouter/pkg/types"
)

// parseTranscription reads the multipart form of a transcription request.
func parseTranscription(w http.ResponseWriter, r *http.Request) (*types.TranscriptionRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, bodyError(err, "invalid multipart form: %v")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, apierr.BadRequest("file is required")
	}
	defer file.Close()
	if ext := fsutil.FileExtension(header.Filename); !audio.Supported(ext) {
		return nil, apierr.BadRequest("extension %q not supported", ext)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apierr.BadRequest("failed to read file field: %v", err)
	}

	req := &types.TranscriptionRequest{
		Model:          r.FormValue("model"),
		File:           data,
		Filename:       header.Filename,
		Language:       r.FormValue("language"),
		Prompt:         r.FormValue("prompt"),
		ResponseFormat: r.FormValue("response_format"),
	}
	if v := r.FormValue("temperature"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return nil, apierr.BadRequest("invalid temperature %q", v)
		}
		t32 := float32(t)
		req.Temperature = &t32
	}
	// Granularities only apply to verbose_json.
	if req.ResponseFormat == "verbose_json" {
		for _, g := range r.MultipartForm.Value["timestamp_granularities[]"] {
			switch g {
			case "word", "segment":
				req.TimestampGranularities = append(req.TimestampGranularities, g)
			default:
				return nil, apierr.BadRequest("invalid timestamp granularity %q", g)
			}
		}
	}
	return req, nil
}

// transcriptions godoc
// @Summary      Transcribe audio
// @Description  Multipart upload. Triton backends accept WAV only.
// @Tags         openai
// @Accept       multipart/form-data
// @Produce      json
// @Produce      plain
// @Param        file             formData  file    true   "Audio file"
// @Param        model            formData  string  false  "Model name"
// @Param        language         formData  string  false  "ISO-639-1 language"
// @Param        prompt           formData  string  false  "Prompt"
// @Param        response_format  formData  string  false  "json, text, srt, verbose_json or vtt"
// @Param        temperature      formData  number  false  "Sampling temperature"
// @Success      200  {object}  types.TranscriptionResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /v1/audio/transcriptions [post]
func (h *handlers) transcriptions(w http.ResponseWriter, r *http.Request) {
	req, err := parseTranscription(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	reply, err := h.svc.Transcriptions(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReply(w, reply)
}
