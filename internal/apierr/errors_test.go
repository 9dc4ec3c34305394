package apierr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusCoder interface {
	StatusCode() int
	Code() string
}

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("chat: %w", BudgetExceeded("llama", 10, 11))
	require.True(t, IsBudgetExceeded(err))
	budget, count, ok := BudgetCounts(err)
	require.True(t, ok)
	assert.Equal(t, 10, budget)
	assert.Equal(t, 11, count)
	assert.Contains(t, err.Error(), "llama")

	assert.True(t, IsModelNotFound(fmt.Errorf("x: %w", ModelNotFound("m"))))
	assert.True(t, IsBadRequest(BadRequest("audio with > %d channels not supported", 8)))
	assert.True(t, IsBackendProtocol(BackendProtocol("missing %s", "text_output")))
	assert.False(t, IsBackendReported(BackendProtocol("x")))
	assert.True(t, IsBackendReported(BackendReported("boom")))
	assert.True(t, IsConfiguration(Configuration("no tokenizer")))
}

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{BadRequest("x"), http.StatusBadRequest, "invalid_request"},
		{ModelNotFound("m"), http.StatusNotFound, "model_not_found"},
		{UnknownURL("/v2"), http.StatusNotFound, "unknown_url"},
		{BudgetExceeded("m", 1, 2), http.StatusBadRequest, "context_length_exceeded"},
		{BackendReported("x"), http.StatusInternalServerError, "internal_error"},
		{Upstream(429, "slow down"), http.StatusTooManyRequests, "upstream_error"},
		{Upstream(0, "no status"), http.StatusBadGateway, "upstream_error"},
	}
	for _, c := range cases {
		sc, ok := c.err.(statusCoder)
		require.True(t, ok, "%T", c.err)
		assert.Equal(t, c.status, sc.StatusCode(), c.err.Error())
		assert.Equal(t, c.code, sc.Code(), c.err.Error())
	}
}
