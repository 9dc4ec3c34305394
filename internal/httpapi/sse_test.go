package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"airouter/internal/backend"
)

func TestWriteEventFraming(t *testing.T) {
	var buf bytes.Buffer
	_ = writeEvent(&buf, backend.Event{Data: []byte(`{"a":1}`)})
	_ = writeEvent(&buf, backend.Event{Name: "error", Data: []byte(`{}`)})
	if want := "data: {\"a\":1}\n\nevent: error\ndata: {}\n\n"; buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

// gatedStream yields one event after release is closed, then ends.
type gatedStream struct {
	release chan struct{}
	sent    bool
	closed  atomic.Bool
}

func (g *gatedStream) Next(ctx context.Context) (backend.Event, error) {
	if g.sent {
		return backend.Event{}, io.EOF
	}
	select {
	case <-g.release:
		g.sent = true
		return backend.DoneEvent(), nil
	case <-ctx.Done():
		return backend.Event{}, ctx.Err()
	}
}

func (g *gatedStream) Close() error {
	g.closed.Store(true)
	return nil
}

func TestEventStreamKeepAlive(t *testing.T) {
	SetKeepAliveInterval(5 * time.Millisecond)
	defer SetKeepAliveInterval(0)
	g := &gatedStream{release: make(chan struct{})}
	time.AfterFunc(40*time.Millisecond, func() { close(g.release) })
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	writeEventStream(context.Background(), w, r, g)
	body := w.Body.String()
	if !strings.Contains(body, ": keep-alive\n\n") {
		t.Fatalf("no keep-alive in %q", body)
	}
	if !strings.HasSuffix(body, "data: [DONE]\n\n") {
		t.Fatalf("stream not finished: %q", body)
	}
	if !g.closed.Load() {
		t.Fatalf("stream not closed")
	}
}

func TestEventStreamStopsOnCancel(t *testing.T) {
	g := &gatedStream{release: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		writeEventStream(ctx, w, httptest.NewRequest(http.MethodPost, "/v1/completions", nil), g)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("writer did not stop after cancellation")
	}
	if !g.closed.Load() {
		t.Fatalf("stream not closed")
	}
	if strings.Contains(w.Body.String(), "data:") {
		t.Fatalf("unexpected events %q", w.Body.String())
	}
}

type failingStream struct{}

func (failingStream) Next(context.Context) (backend.Event, error) {
	return backend.Event{}, errors.New("connection reset")
}
func (failingStream) Close() error { return nil }

func TestEventStreamFailureSendsErrorEvent(t *testing.T) {
	w := httptest.NewRecorder()
	writeEventStream(context.Background(), w, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil), failingStream{})
	if !strings.HasPrefix(w.Body.String(), "event: error\n") || strings.Contains(w.Body.String(), "connection reset") {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

// stuckStream blocks in Next until Close, ignoring ctx like a gRPC Recv
// bound to another context.
type stuckStream struct {
	unblock chan struct{}
	once    sync.Once
}

func (s *stuckStream) Next(context.Context) (backend.Event, error) {
	<-s.unblock
	return backend.Event{}, io.EOF
}

func (s *stuckStream) Close() error {
	s.once.Do(func() { close(s.unblock) })
	return nil
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct{ h http.Header }

func (b *brokenWriter) Header() http.Header       { return b.h }
func (b *brokenWriter) WriteHeader(int)           {}
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestEventStreamClosesStuckStreamOnWriteFailure(t *testing.T) {
	SetKeepAliveInterval(5 * time.Millisecond)
	defer SetKeepAliveInterval(0)
	s := &stuckStream{unblock: make(chan struct{})}
	done := make(chan struct{})
	go func() {
		writeEventStream(context.Background(), &brokenWriter{h: http.Header{}}, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil), s)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("writer waited on a stream that was never closed")
	}
}

func TestRequestContextCanceledOnShutdown(t *testing.T) {
	base, stop := context.WithCancel(context.Background())
	SetBaseContext(base)
	defer SetBaseContext(nil)
	ctx, cancel := requestContext(context.Background())
	defer cancel()
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("request context not canceled by shutdown")
	}
}
