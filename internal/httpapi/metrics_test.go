package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"airouter/internal/backend"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !bytes.Contains(scrape(t), []byte("airouter_http_requests_total")) {
		t.Fatalf("expected to find airouter_http_requests_total in metrics")
	}
}

func TestMetricsUseRoutePattern(t *testing.T) {
	NewMux(&mockService{}).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/v1/models", http.MethodGet, "200")); got < 1 {
		t.Fatalf("expected a /v1/models sample, got %v", got)
	}
}

func TestBackpressureCountedForTooBusy(t *testing.T) {
	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	IncrementBackpressure("")
	if got := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified")); got != before+1 {
		t.Fatalf("backpressure not counted: %v -> %v", before, got)
	}
}

func TestStreamEventsCounted(t *testing.T) {
	c := streamEventsTotal.WithLabelValues("/v1/chat/completions", "done")
	before := testutil.ToFloat64(c)
	svc := &mockService{events: []backend.Event{backend.DoneEvent()}}
	postJSON(t, NewMux(svc), "/v1/chat/completions", `{"stream":true}`)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("done event not counted: %v -> %v", before, got)
	}
}
