package inference

import (
	"errors"
	"fmt"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
)

// LatestVersion selects the newest model version on the server.
const LatestVersion = "latest"

// Builder accumulates a ModelInferRequest. The first failing step is kept
// and every later call becomes a no-op; Build reports it.
type Builder struct {
	req   *pb.ModelInferRequest
	names map[string]struct{}
	err   error
}

// NewBuilder returns an empty request builder.
func NewBuilder() *Builder {
	return &Builder{req: &pb.ModelInferRequest{}, names: map[string]struct{}{}}
}

// Model sets the model name.
func (b *Builder) Model(name string) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = errors.New("model name is empty")
		return b
	}
	b.req.ModelName = name
	return b
}

// Version pins a model version; "" or LatestVersion leaves the choice to the server.
func (b *Builder) Version(v string) *Builder {
	if b.err != nil {
		return b
	}
	if v == LatestVersion {
		v = ""
	}
	b.req.ModelVersion = v
	return b
}

// ID sets the request identifier echoed back by the server.
func (b *Builder) ID(id string) *Builder {
	if b.err == nil {
		b.req.Id = id
	}
	return b
}

// Input appends a named tensor.
func (b *Builder) Input(name string, shape []int64, data TensorData) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.addInput(name, shape, data); err != nil {
		b.err = fmt.Errorf("input %s: %w", name, err)
	}
	return b
}

func (b *Builder) addInput(name string, shape []int64, data TensorData) error {
	if name == "" {
		return errors.New("empty tensor name")
	}
	if _, dup := b.names[name]; dup {
		return errors.New("duplicate tensor name")
	}
	if data == nil {
		return errors.New("nil tensor data")
	}
	count := int64(1)
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("negative dimension in shape %v", shape)
		}
		count *= d
	}
	if count != int64(data.Len()) {
		return fmt.Errorf("shape %v holds %d elements, payload has %d", shape, count, data.Len())
	}
	b.names[name] = struct{}{}
	b.req.Inputs = append(b.req.Inputs, &pb.ModelInferRequest_InferInputTensor{
		Name:     name,
		Datatype: data.Datatype(),
		Shape:    append([]int64(nil), shape...),
		Contents: data.Contents(),
	})
	return nil
}

// Output requests a named output tensor.
func (b *Builder) Output(name string) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" {
		b.err = errors.New("empty output name")
		return b
	}
	b.req.Outputs = append(b.req.Outputs, &pb.ModelInferRequest_InferRequestedOutputTensor{Name: name})
	return b
}

// Build returns the request or the first error recorded.
func (b *Builder) Build() (*pb.ModelInferRequest, error) {
	if b.err != nil {
		return nil, fmt.Errorf("build inference request: %w", b.err)
	}
	if b.req.ModelName == "" {
		return nil, errors.New("build inference request: model name not set")
	}
	if len(b.req.Outputs) == 0 {
		return nil, errors.New("build inference request: no outputs requested")
	}
	return b.req, nil
}
