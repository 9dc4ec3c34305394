package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"airouter/internal/backend"
)

type nextResult struct {
	ev  backend.Event
	err error
}

// writeEvent frames ev as a server-sent event.
func writeEvent(w io.Writer, ev backend.Event) error {
	buf := make([]byte, 0, len(ev.Data)+len(ev.Name)+16)
	if ev.Name != "" {
		buf = append(buf, "event: "...)
		buf = append(buf, ev.Name...)
		buf = append(buf, '\n')
	}
	buf = append(buf, "data: "...)
	buf = append(buf, ev.Data...)
	buf = append(buf, '\n', '\n')
	_, err := w.Write(buf)
	return err
}

func eventKind(ev backend.Event) string {
	switch {
	case ev.Name != "":
		return ev.Name
	case string(ev.Data) == backend.Done:
		return "done"
	default:
		return "data"
	}
}

// writeEventStream relays s to the client until it ends, fails or the client
// goes away. Next runs on its own goroutine so that idle periods can be
// filled with keep-alive comments. s is closed before that goroutine is awaited.
func writeEventStream(ctx context.Context, w http.ResponseWriter, r *http.Request, s backend.EventStream) {
	ctx, cancel := context.WithCancel(ctx)
	results := make(chan nextResult)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for {
			ev, err := s.Next(ctx)
			select {
			case results <- nextResult{ev: ev, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	defer func() {
		cancel()
		// Close first: a backend Recv may not watch ctx.
		_ = s.Close()
		<-pumpDone
	}()

	flush := func() {}
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flush()

	l := requestLogger(r)
	debug := requestLogLevel(r) >= LevelDebug
	path := routePatternOrPath(r)
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Debug().Err(ctx.Err()).Msg("event stream canceled")
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flush()
			streamEventsTotal.WithLabelValues(path, "keepalive").Inc()
		case res := <-results:
			if errors.Is(res.err, io.EOF) {
				return
			}
			if res.err != nil {
				if ctx.Err() != nil {
					return
				}
				l.Error().Err(res.err).Msg("event stream failed")
				res.ev = backend.InternalErrorEvent()
			}
			if debug {
				l.Debug().Str("kind", eventKind(res.ev)).Bytes("data", res.ev.Data).Msg("event")
			}
			if err := writeEvent(w, res.ev); err != nil {
				l.Debug().Err(err).Msg("event write failed")
				return
			}
			flush()
			streamEventsTotal.WithLabelValues(path, eventKind(res.ev)).Inc()
			if res.err != nil {
				return
			}
			keepAlive.Reset(keepAliveInterval)
		}
	}
}
