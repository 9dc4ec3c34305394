package inference

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Stream yields the responses of a single ModelStreamInfer call in arrival order.
// Recv returns io.EOF once the server has finished.
type Stream interface {
	Recv() (*pb.ModelStreamInferResponse, error)
	Close()
}

// Client is a Triton GRPCInferenceService client. It is safe for concurrent use.
type Client struct {
	conn *grpc.ClientConn
	svc  pb.GRPCInferenceServiceClient
}

// Dial creates a client for baseURL. http:// and bare host:port targets use
// plaintext, https:// uses TLS. Connections are established lazily.
func Dial(baseURL string, opts ...grpc.DialOption) (*Client, error) {
	target, creds, err := parseTarget(baseURL)
	if err != nil {
		return nil, err
	}
	all := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	all = append(all, opts...)
	conn, err := grpc.NewClient(target, all...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	return &Client{conn: conn, svc: pb.NewGRPCInferenceServiceClient(conn)}, nil
}

func parseTarget(baseURL string) (string, credentials.TransportCredentials, error) {
	if baseURL == "" {
		return "", nil, errors.New("empty triton base url")
	}
	if !strings.Contains(baseURL, "://") {
		return baseURL, insecure.NewCredentials(), nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", nil, fmt.Errorf("parse triton base url: %w", err)
	}
	switch u.Scheme {
	case "http", "grpc":
		return u.Host, insecure.NewCredentials(), nil
	case "https", "grpcs":
		return u.Host, credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12}), nil
	default:
		// Resolver schemes such as dns:/// and passthrough:/// go to grpc as-is.
		return baseURL, insecure.NewCredentials(), nil
	}
}

// StreamInfer sends req on a new ModelStreamInfer stream and half-closes it.
// Cancelling ctx, or calling Close, releases the stream.
func (c *Client) StreamInfer(ctx context.Context, req *pb.ModelInferRequest) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s, err := c.svc.ModelStreamInfer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := s.Send(req); err != nil {
		cancel()
		return nil, fmt.Errorf("send request: %w", err)
	}
	if err := s.CloseSend(); err != nil {
		cancel()
		return nil, fmt.Errorf("close send: %w", err)
	}
	return &grpcStream{s: s, cancel: cancel}, nil
}

type grpcStream struct {
	s      pb.GRPCInferenceService_ModelStreamInferClient
	cancel context.CancelFunc
}

func (g *grpcStream) Recv() (*pb.ModelStreamInferResponse, error) { return g.s.Recv() }
func (g *grpcStream) Close()                                      { g.cancel() }

// Ready reports whether the server accepts inference requests.
func (c *Client) Ready(ctx context.Context) error {
	resp, err := c.svc.ServerReady(ctx, &pb.ServerReadyRequest{})
	if err != nil {
		return fmt.Errorf("server ready: %w", err)
	}
	if !resp.GetReady() {
		return errors.New("server not ready")
	}
	return nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }
