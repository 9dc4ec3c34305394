// Package inferencetest runs an in-memory Triton server for tests.
package inferencetest

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"net"
	"sync"
	"testing"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"airouter/internal/inference"
)

// Handler answers one request by calling send zero or more times.
type Handler func(req *pb.ModelInferRequest, send func(*pb.ModelStreamInferResponse) error) error

// Server is a fake GRPCInferenceService. Zero value answers nothing and reports ready.
type Server struct {
	pb.UnimplementedGRPCInferenceServiceServer

	Handler  Handler
	NotReady bool

	mu       sync.Mutex
	requests []*pb.ModelInferRequest
}

func (s *Server) ModelStreamInfer(stream pb.GRPCInferenceService_ModelStreamInferServer) error {
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		if s.Handler == nil {
			continue
		}
		if err := s.Handler(req, stream.Send); err != nil {
			return err
		}
	}
}

func (s *Server) ServerReady(context.Context, *pb.ServerReadyRequest) (*pb.ServerReadyResponse, error) {
	return &pb.ServerReadyResponse{Ready: !s.NotReady}, nil
}

// Requests returns the requests received so far.
func (s *Server) Requests() []*pb.ModelInferRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*pb.ModelInferRequest(nil), s.requests...)
}

// Start serves s on an in-memory listener and returns a client connected to it.
// Both are shut down when the test ends.
func Start(t testing.TB, s *Server) *inference.Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	pb.RegisterGRPCInferenceServiceServer(gs, s)
	go func() { _ = gs.Serve(lis) }()

	c, err := inference.Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
		gs.Stop()
	})
	return c
}

// Text builds a response carrying one BYTES output.
func Text(output string, texts ...string) *pb.ModelStreamInferResponse {
	elems := make([][]byte, len(texts))
	for i, s := range texts {
		elems[i] = []byte(s)
	}
	return &pb.ModelStreamInferResponse{InferResponse: &pb.ModelInferResponse{
		Outputs: []*pb.ModelInferResponse_InferOutputTensor{{
			Name:     output,
			Datatype: inference.DatatypeBytes,
			Shape:    []int64{1, int64(len(texts))},
		}},
		RawOutputContents: [][]byte{inference.EncodeBytes(elems)},
	}}
}

// Floats builds a response carrying one FP32 output of the given shape.
func Floats(output string, shape []int64, vals []float32) *pb.ModelStreamInferResponse {
	raw := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(v))
	}
	return &pb.ModelStreamInferResponse{InferResponse: &pb.ModelInferResponse{
		Outputs: []*pb.ModelInferResponse_InferOutputTensor{{
			Name:     output,
			Datatype: inference.DatatypeFP32,
			Shape:    shape,
		}},
		RawOutputContents: [][]byte{raw},
	}}
}

// Error builds a response carrying only an error message.
func Error(msg string) *pb.ModelStreamInferResponse {
	return &pb.ModelStreamInferResponse{ErrorMessage: msg}
}

// Replay returns a handler that sends resps for every request.
func Replay(resps ...*pb.ModelStreamInferResponse) Handler {
	return func(_ *pb.ModelInferRequest, send func(*pb.ModelStreamInferResponse) error) error {
		for _, r := range resps {
			if err := send(r); err != nil {
				return err
			}
		}
		return nil
	}
}
