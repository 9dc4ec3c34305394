package backend

import (
	"context"
	"encoding/json"
	"io"
)

// Done is the data of the final server-sent event.
const Done = "[DONE]"

// Event is one server-sent event. Name is empty for plain data events.
type Event struct {
	Name string
	Data []byte
}

// EventStream yields events in order. Next returns io.EOF after the last
// event. Close releases the upstream and may be called at any time.
type EventStream interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// DataEvent encodes v as an unnamed event.
func DataEvent(v any) (Event, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Event{}, err
	}
	return Event{Data: b}, nil
}

// ErrorEvent encodes v as an "error" event.
func ErrorEvent(v any) Event {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(`{"error":"internal error"}`)
	}
	return Event{Name: "error", Data: b}
}

// DoneEvent is the stream terminator.
func DoneEvent() Event { return Event{Data: []byte(Done)} }

// InternalErrorEvent is sent in-band when a stream fails after it started.
func InternalErrorEvent() Event {
	return ErrorEvent(map[string]any{
		"error": map[string]any{"status_code": 500, "message": "Internal Server Error"},
	})
}

// Collect drains s. It is meant for tests and small streams.
func Collect(ctx context.Context, s EventStream) ([]Event, error) {
	defer s.Close()
	var out []Event
	for {
		ev, err := s.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}
