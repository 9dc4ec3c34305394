package openai

import (
	"context"
	"io"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/rs/zerolog"

	"airouter/internal/backend"
)

// chunkStream relays upstream chunks verbatim and ends with [DONE].
type chunkStream struct {
	stream *ssestream.Stream[oai.ChatCompletionChunk]
	log    zerolog.Logger
	ended  bool
}

func (c *chunkStream) Next(ctx context.Context) (backend.Event, error) {
	if c.ended {
		return backend.Event{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		c.ended = true
		return backend.Event{}, err
	}
	if c.stream.Next() {
		return backend.Event{Data: []byte(c.stream.Current().RawJSON())}, nil
	}
	c.ended = true
	if err := c.stream.Err(); err != nil {
		if ctx.Err() != nil {
			return backend.Event{}, ctx.Err()
		}
		c.log.Error().Err(err).Msg("upstream stream failed")
		return backend.InternalErrorEvent(), nil
	}
	return backend.DoneEvent(), nil
}

func (c *chunkStream) Close() error { return c.stream.Close() }
