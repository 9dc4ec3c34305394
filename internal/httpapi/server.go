package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airouter/internal/apierr"
	"airouter/internal/backend"
	"airouter/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status(ctx context.Context) types.StatusResponse
	Ready(ctx context.Context) error

	ChatCompletions(ctx context.Context, req *types.ChatCompletionRequest, body []byte) (*backend.Reply, error)
	ChatCompletionsStream(ctx context.Context, req *types.ChatCompletionRequest, body []byte) (backend.EventStream, error)
	Completions(ctx context.Context, req *types.CompletionRequest, body []byte) (*backend.Reply, error)
	CompletionsStream(ctx context.Context, req *types.CompletionRequest, body []byte) (backend.EventStream, error)
	Embeddings(ctx context.Context, req *types.EmbeddingRequest, body []byte) (*backend.Reply, error)
	Transcriptions(ctx context.Context, req *types.TranscriptionRequest) (*backend.Reply, error)
	Speech(ctx context.Context, req *types.SpeechRequest, body []byte) (*backend.Reply, error)
}

// NewMux builds the router for svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat/completions", h.chatCompletions)
		r.Post("/completions", h.completions)
		r.With(middleware.Compress(5)).Post("/embeddings", h.embeddings)
		r.Post("/audio/transcriptions", h.transcriptions)
		r.Post("/audio/speech", h.speech)
		r.Get("/models", h.models)
	})

	r.Get("/health_check", h.healthz)
	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Get("/status", h.status)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apierr.UnknownURL(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method "+r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

type handlers struct {
	svc Service
}

// readJSON decodes the body into v and returns the raw bytes. It writes the
// error response itself and reports false when the request is unusable.
func readJSON(w http.ResponseWriter, r *http.Request, v any) ([]byte, bool) {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		writeJSONError(w, http.StatusUnsupportedMediaType, "invalid_request", "Content-Type must be application/json")
		return nil, false
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, bodyError(err, "failed to read request body: %v"))
		return nil, false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, r, apierr.BadRequest("invalid JSON body: %v", err))
		return nil, false
	}
	return body, true
}

// writeReply sends a complete backend response.
func writeReply(w http.ResponseWriter, reply *backend.Reply) {
	ct := reply.ContentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply.Body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// chatCompletions godoc
// @Summary      Create a chat completion
// @Description  Returns a chat.completion object, or chat.completion.chunk server-sent events when stream is true.
// @Tags         openai
// @Accept       json
// @Produce      json
// @Produce      text/event-stream
// @Param        request  body      types.ChatCompletionRequest  true  "Chat completion request"
// @Success      200      {object}  types.ChatCompletion
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      429      {object}  types.ErrorResponse
// @Router       /v1/chat/completions [post]
func (h *handlers) chatCompletions(w http.ResponseWriter, r *http.Request) {
	var req types.ChatCompletionRequest
	body, ok := readJSON(w, r, &req)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	if req.Stream {
		s, err := h.svc.ChatCompletionsStream(ctx, &req, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeEventStream(ctx, w, r, s)
		return
	}
	reply, err := h.svc.ChatCompletions(ctx, &req, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReply(w, reply)
}

// completions godoc
// @Summary      Create a completion
// @Tags         openai
// @Accept       json
// @Produce      json
// @Produce      text/event-stream
// @Param        request  body      types.CompletionRequest  true  "Completion request"
// @Success      200      {object}  types.Completion
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /v1/completions [post]
func (h *handlers) completions(w http.ResponseWriter, r *http.Request) {
	var req types.CompletionRequest
	body, ok := readJSON(w, r, &req)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	if req.Stream {
		s, err := h.svc.CompletionsStream(ctx, &req, body)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeEventStream(ctx, w, r, s)
		return
	}
	reply, err := h.svc.Completions(ctx, &req, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReply(w, reply)
}

// embeddings godoc
// @Summary      Create embeddings
// @Tags         openai
// @Accept       json
// @Produce      json
// @Param        request  body      types.EmbeddingRequest  true  "Embedding request"
// @Success      200      {object}  types.EmbeddingResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /v1/embeddings [post]
func (h *handlers) embeddings(w http.ResponseWriter, r *http.Request) {
	var req types.EmbeddingRequest
	body, ok := readJSON(w, r, &req)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	reply, err := h.svc.Embeddings(ctx, &req, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReply(w, reply)
}

// speech godoc
// @Summary      Generate audio from text
// @Tags         openai
// @Accept       json
// @Produce      audio/mpeg
// @Param        request  body  types.SpeechRequest  true  "Speech request"
// @Success      200
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Router       /v1/audio/speech [post]
func (h *handlers) speech(w http.ResponseWriter, r *http.Request) {
	var req types.SpeechRequest
	body, ok := readJSON(w, r, &req)
	if !ok {
		return
	}
	ctx, cancel := requestContext(r.Context())
	defer cancel()
	reply, err := h.svc.Speech(ctx, &req, body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeReply(w, reply)
}

// models godoc
// @Summary      List models
// @Tags         openai
// @Produce      json
// @Success      200  {object}  types.ModelList
// @Router       /v1/models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, types.ModelList{Object: types.ObjectList, Data: h.svc.ListModels()})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ready(r.Context()); err != nil {
		l := requestLogger(r)
		l.Warn().Err(err).Msg("not ready")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// status godoc
// @Summary      Backend status
// @Description  Readiness and load of every configured backend.
// @Tags         ops
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status(r.Context()))
}
