package triton

import (
	"context"
	"errors"
	"io"
	"strings"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"

	"airouter/internal/apierr"
	"airouter/internal/inference"
)

// forEach calls fn for every inference response of s until the server ends the stream.
func forEach(ctx context.Context, s inference.Stream, fn func(*pb.ModelInferResponse) error) error {
	defer s.Close()
	for {
		resp, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return apierr.BackendProtocol("receive from triton: %v", err)
		}
		if msg := resp.GetErrorMessage(); msg != "" {
			return apierr.BackendReported("error message received from triton: " + msg)
		}
		ir := resp.GetInferResponse()
		if ir == nil {
			return apierr.BackendProtocol("empty infer response received")
		}
		if err := fn(ir); err != nil {
			return err
		}
	}
}

// collectText concatenates the decoded BYTES output of every response,
// passing each element through clean.
func collectText(ctx context.Context, s inference.Stream, output string, clean func(string) string) (string, error) {
	var sb strings.Builder
	err := forEach(ctx, s, func(ir *pb.ModelInferResponse) error {
		raw, _, ok := inference.RawOutput(ir, output)
		if !ok {
			return apierr.BackendProtocol("%s not found in Triton response", output)
		}
		parts, err := inference.DecodeBytes(raw)
		if err != nil {
			return apierr.BackendProtocol("decode %s: %v", output, err)
		}
		for _, p := range parts {
			sb.WriteString(clean(p))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func stripEOS(s string) string { return strings.ReplaceAll(s, EOS, "") }

func trimStripEOS(s string) string { return strings.ReplaceAll(strings.TrimSpace(s), EOS, "") }

func keep(s string) string { return s }
