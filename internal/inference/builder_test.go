package inference

import (
	"testing"

	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildsRequest(t *testing.T) {
	req, err := NewBuilder().
		Model("ensemble").
		Version(LatestVersion).
		ID("req-1").
		Input("text_input", []int64{1, 1}, Strings("hi")).
		Input("max_tokens", []int64{1, 1}, Int32s{64}).
		Input("stream", []int64{1, 1}, Bools{true}).
		Output("text_output").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "ensemble", req.GetModelName())
	assert.Equal(t, "", req.GetModelVersion())
	assert.Equal(t, "req-1", req.GetId())
	require.Len(t, req.GetInputs(), 3)
	assert.Equal(t, DatatypeBytes, req.GetInputs()[0].GetDatatype())
	assert.Equal(t, [][]byte{[]byte("hi")}, req.GetInputs()[0].GetContents().GetBytesContents())
	assert.Equal(t, DatatypeInt32, req.GetInputs()[1].GetDatatype())
	assert.Equal(t, []int32{64}, req.GetInputs()[1].GetContents().GetIntContents())
	assert.Equal(t, []bool{true}, req.GetInputs()[2].GetContents().GetBoolContents())
	require.Len(t, req.GetOutputs(), 1)
	assert.Equal(t, "text_output", req.GetOutputs()[0].GetName())
}

func TestContentsPopulateOneField(t *testing.T) {
	data := []TensorData{
		Bools{true}, Int32s{1}, Int64s{1}, Uint32s{1}, Uint64s{1}, Float32s{1}, Float64s{1}, Strings("x"),
	}
	for _, d := range data {
		c := d.Contents()
		populated := 0
		for _, n := range []int{
			len(c.GetBoolContents()), len(c.GetIntContents()), len(c.GetInt64Contents()),
			len(c.GetUintContents()), len(c.GetUint64Contents()), len(c.GetFp32Contents()),
			len(c.GetFp64Contents()), len(c.GetBytesContents()),
		} {
			if n > 0 {
				populated++
			}
		}
		assert.Equal(t, 1, populated, d.Datatype())
	}
}

func TestBuilderFirstErrorWins(t *testing.T) {
	b := NewBuilder().
		Model("m").
		Input("x", []int64{2}, Int32s{1}).
		Input("", []int64{1}, Int32s{1}).
		Output("out")
	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input x")
	assert.Contains(t, err.Error(), "holds 2 elements")
}

func TestBuilderValidation(t *testing.T) {
	cases := map[string]*Builder{
		"empty model":     NewBuilder().Model("").Output("o"),
		"no model":        NewBuilder().Output("o"),
		"no outputs":      NewBuilder().Model("m").Input("a", []int64{1}, Bools{true}),
		"duplicate input": NewBuilder().Model("m").Input("a", []int64{1}, Bools{true}).Input("a", []int64{1}, Bools{false}).Output("o"),
		"negative dim":    NewBuilder().Model("m").Input("a", []int64{-1, -1}, Bools{true}).Output("o"),
		"bytes count":     NewBuilder().Model("m").Input("a", []int64{3, 1}, Strings("a", "b")).Output("o"),
		"empty output":    NewBuilder().Model("m").Output(""),
		"nil data":        NewBuilder().Model("m").Input("a", []int64{1}, nil).Output("o"),
	}
	for name, b := range cases {
		req, err := b.Build()
		assert.Error(t, err, name)
		assert.Nil(t, req, name)
	}
}

func TestBuilderBytesShapeCountsElements(t *testing.T) {
	req, err := NewBuilder().Model("emb").
		Input("text", []int64{3, 1}, Strings("a", "b", "c")).
		Output("embedding").
		Build()
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, req.GetInputs()[0].GetShape())
}

func TestOutputIndex(t *testing.T) {
	_, ok := OutputIndex(nil, "text_output")
	assert.False(t, ok)

	outs := []*pb.ModelInferResponse_InferOutputTensor{{Name: "a"}, {Name: "b"}}
	_, ok = OutputIndex(outs, "text_output")
	assert.False(t, ok)

	idx, ok := OutputIndex(outs, "b")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	resp := &pb.ModelInferResponse{Outputs: outs, RawOutputContents: [][]byte{{1}}}
	_, _, ok = RawOutput(resp, "b")
	assert.False(t, ok, "missing raw contents for index 1")
	raw, meta, ok := RawOutput(resp, "a")
	require.True(t, ok)
	assert.Equal(t, []byte{1}, raw)
	assert.Equal(t, "a", meta.GetName())
}
