package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"airouter/internal/apierr"
	"airouter/internal/manager"
	"airouter/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// coded errors carry an OpenAI error code.
type coded interface {
	Code() string
}

// public errors replace their message before it reaches the client.
type public interface {
	Public() string
}

const errorType = "invalid_request_error"

type tooLargeError struct{}

func (tooLargeError) Error() string   { return "request body too large" }
func (tooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }
func (tooLargeError) Code() string    { return "invalid_request" }

// bodyError maps a failed body read to a client error.
func bodyError(err error, format string) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return tooLargeError{}
	}
	return apierr.BadRequest(format, err)
}

// writeJSONError writes the OpenAI error envelope.
func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: types.ErrorBody{
		Code:    code,
		Message: msg,
		Type:    errorType,
	}})
}

// errorStatus maps err to a status, code and client-facing message.
func errorStatus(err error) (int, string, string) {
	status, code, msg := http.StatusInternalServerError, "internal_error", http.StatusText(http.StatusInternalServerError)
	var he HTTPError
	if !errors.As(err, &he) {
		return status, code, msg
	}
	status, msg = he.StatusCode(), he.Error()
	var c coded
	if errors.As(err, &c) {
		code = c.Code()
	}
	var p public
	if errors.As(err, &p) {
		msg = p.Public()
	} else if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		msg = http.StatusText(status)
	}
	return status, code, msg
}

// writeError maps err to a response and logs it. Nothing is written when
// the client has gone away.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		l := requestLogger(r)
		l.Debug().Err(err).Msg("client went away")
		return
	}
	status, code, msg := errorStatus(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status, code, msg = http.StatusGatewayTimeout, "timeout", http.StatusText(http.StatusGatewayTimeout)
	}
	if manager.IsTooBusy(err) {
		IncrementBackpressure("backend_busy")
	}
	l := requestLogger(r)
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Int("status", status).Msg("request failed")
	} else if requestLogLevel(r) >= LevelInfo {
		l.Info().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSONError(w, status, code, msg)
}
