// Package apierr defines the error kinds surfaced to API clients. Each kind
// carries its HTTP status and OpenAI error code; the HTTP layer is the only
// place that turns them into responses.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const internalMessage = "Internal Server Error"

// badRequestError covers unsupported modalities and malformed input.
type badRequestError struct{ msg string }

func (e badRequestError) Error() string   { return e.msg }
func (e badRequestError) StatusCode() int { return http.StatusBadRequest }
func (e badRequestError) Code() string    { return "invalid_request" }

// BadRequest returns a client-facing validation error.
func BadRequest(format string, args ...any) error {
	return badRequestError{msg: fmt.Sprintf(format, args...)}
}

// IsBadRequest reports whether err is a validation error.
func IsBadRequest(err error) bool {
	var e badRequestError
	return errors.As(err, &e)
}

type modelNotFoundError struct{ model string }

func (e modelNotFoundError) Error() string   { return "model " + e.model + " not found" }
func (e modelNotFoundError) StatusCode() int { return http.StatusNotFound }
func (e modelNotFoundError) Code() string    { return "model_not_found" }

// ModelNotFound returns an error for a model that is not configured.
func ModelNotFound(model string) error { return modelNotFoundError{model: model} }

// IsModelNotFound reports whether err indicates a missing model.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

type unknownURLError struct{ path string }

func (e unknownURLError) Error() string   { return "unknown url " + e.path }
func (e unknownURLError) StatusCode() int { return http.StatusNotFound }
func (e unknownURLError) Code() string    { return "unknown_url" }

// UnknownURL returns an error for a route that does not exist.
func UnknownURL(path string) error { return unknownURLError{path: path} }

// budgetExceededError is returned when a prompt has more tokens than the model accepts.
type budgetExceededError struct {
	model  string
	budget int
	count  int
}

func (e budgetExceededError) Error() string {
	return fmt.Sprintf("input for model %s exceeds max_input of %d tokens (got %d)", e.model, e.budget, e.count)
}
func (e budgetExceededError) StatusCode() int { return http.StatusBadRequest }
func (e budgetExceededError) Code() string    { return "context_length_exceeded" }

// BudgetExceeded returns an error naming the model, its budget and the observed count.
func BudgetExceeded(model string, budget, count int) error {
	return budgetExceededError{model: model, budget: budget, count: count}
}

// BudgetCounts extracts the budget and observed token count from err.
func BudgetCounts(err error) (budget, count int, ok bool) {
	var e budgetExceededError
	if !errors.As(err, &e) {
		return 0, 0, false
	}
	return e.budget, e.count, true
}

// IsBudgetExceeded reports whether err is a token budget violation.
func IsBudgetExceeded(err error) bool {
	_, _, ok := BudgetCounts(err)
	return ok
}

// internalError is shared by the operator-facing kinds. Its detail is logged
// but never sent to the client.
type internalError struct {
	kind   string
	detail string
}

func (e internalError) Error() string   { return e.kind + ": " + e.detail }
func (e internalError) StatusCode() int { return http.StatusInternalServerError }
func (e internalError) Code() string    { return "internal_error" }
func (e internalError) Public() string  { return internalMessage }

const (
	kindProtocol = "backend protocol error"
	kindReported = "backend reported error"
	kindConfig   = "configuration error"
)

// BackendProtocol reports a malformed or unexpected backend response.
func BackendProtocol(format string, args ...any) error {
	return internalError{kind: kindProtocol, detail: fmt.Sprintf(format, args...)}
}

// BackendReported wraps an error message sent by the backend itself.
func BackendReported(msg string) error {
	return internalError{kind: kindReported, detail: msg}
}

// Configuration reports a deployment inconsistency detected while serving a request.
func Configuration(format string, args ...any) error {
	return internalError{kind: kindConfig, detail: fmt.Sprintf(format, args...)}
}

func isKind(err error, kind string) bool {
	var e internalError
	return errors.As(err, &e) && e.kind == kind
}

// IsBackendProtocol reports whether err is a backend protocol error.
func IsBackendProtocol(err error) bool { return isKind(err, kindProtocol) }

// IsBackendReported reports whether err came from a backend error message.
func IsBackendReported(err error) bool { return isKind(err, kindReported) }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return isKind(err, kindConfig) }

// upstreamError carries the status of a failed pass-through call.
type upstreamError struct {
	status int
	msg    string
}

func (e upstreamError) Error() string { return e.msg }
func (e upstreamError) StatusCode() int {
	if e.status == 0 {
		return http.StatusBadGateway
	}
	return e.status
}
func (e upstreamError) Code() string { return "upstream_error" }

// Upstream returns an error that keeps the upstream HTTP status.
func Upstream(status int, msg string) error { return upstreamError{status: status, msg: msg} }
