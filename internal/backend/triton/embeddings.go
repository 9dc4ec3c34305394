package triton

import (
	"context"
	"fmt"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"

	"airouter/internal/apierr"
	"airouter/internal/backend"
	"airouter/internal/inference"
	"airouter/internal/request"
	"airouter/pkg/types"
)

const (
	embeddingInput  = "text"
	embeddingOutput = "embedding"
)

// TransformFloat32Array splits a flat little-endian float32 buffer into
// batch vectors of dims elements each. The vectors alias raw when possible.
func TransformFloat32Array(raw []byte, batch, dims int) ([][]float32, error) {
	flat, err := inference.Float32View(raw)
	if err != nil {
		return nil, err
	}
	return splitBatch(flat, batch, dims)
}

func splitBatch(flat []float32, batch, dims int) ([][]float32, error) {
	if batch < 0 || dims < 0 || len(flat) != batch*dims {
		return nil, fmt.Errorf("embedding buffer holds %d values, want %d x %d", len(flat), batch, dims)
	}
	out := make([][]float32, batch)
	for i := range out {
		out[i] = flat[i*dims : (i+1)*dims : (i+1)*dims]
	}
	return out, nil
}

func embeddingRequest(req *types.EmbeddingRequest, d *request.Data) (*pb.ModelInferRequest, int, error) {
	if req.Input.Tokens {
		return nil, 0, apierr.BadRequest("embedding input of token arrays is not supported")
	}
	texts := req.Input.Texts
	if len(texts) == 0 {
		return nil, 0, apierr.BadRequest("input must not be empty")
	}
	r, err := newBuilder(req.Model, d).
		Input(embeddingInput, []int64{int64(len(texts)), 1}, inference.Strings(texts...)).
		Output(embeddingOutput).
		Build()
	if err != nil {
		return nil, 0, apierr.BadRequest("%v", err)
	}
	return r, len(texts), nil
}

// Embeddings returns one vector per input string, in input order.
func (b *Backend) Embeddings(ctx context.Context, call backend.EmbeddingCall) (*backend.Reply, error) {
	r, batch, err := embeddingRequest(call.Request, call.Data)
	if err != nil {
		return nil, err
	}
	s, err := b.open(ctx, r)
	if err != nil {
		return nil, err
	}
	var data []types.Embedding
	err = forEach(ctx, s, func(ir *pb.ModelInferResponse) error {
		vecs, err := embeddingVectors(ir, batch)
		if err != nil {
			return err
		}
		for _, v := range vecs {
			data = append(data, types.Embedding{Object: types.ObjectEmbedding, Index: len(data), Embedding: v})
		}
		return nil
	})
	if err != nil {
		b.log.Error().Err(err).Str("model", call.Request.Model).Msg("embedding failed")
		return nil, err
	}
	if data == nil {
		return nil, apierr.BackendProtocol("%s not found in Triton response", embeddingOutput)
	}
	prompt := promptTokens(call.Data)
	return backend.JSON(types.EmbeddingResponse{
		Object: types.ObjectList,
		Data:   data,
		Model:  call.Data.ModelName(call.Request.Model),
		Usage:  types.Usage{PromptTokens: prompt, TotalTokens: prompt},
	})
}

func embeddingVectors(ir *pb.ModelInferResponse, batch int) ([][]float32, error) {
	raw, meta, ok := inference.RawOutput(ir, embeddingOutput)
	if !ok {
		return nil, apierr.BackendProtocol("%s not found in Triton response", embeddingOutput)
	}
	shape := meta.GetShape()
	if len(shape) < 2 {
		return nil, apierr.BackendProtocol("unexpected embedding shape %v", shape)
	}
	if shape[0] != int64(batch) {
		return nil, apierr.BackendProtocol("batch sizes of request and response differ")
	}
	flat, err := inference.DecodeFloats(raw, meta.GetDatatype())
	if err != nil {
		return nil, apierr.BackendProtocol("decode %s: %v", embeddingOutput, err)
	}
	vecs, err := splitBatch(flat, batch, int(shape[1]))
	if err != nil {
		return nil, apierr.BackendProtocol("%v", err)
	}
	return vecs, nil
}
