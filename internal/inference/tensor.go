package inference

import (
	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
)

// Triton datatype names.
const (
	DatatypeBool   = "BOOL"
	DatatypeInt32  = "INT32"
	DatatypeInt64  = "INT64"
	DatatypeUint32 = "UINT32"
	DatatypeUint64 = "UINT64"
	DatatypeFP16   = "FP16"
	DatatypeFP32   = "FP32"
	DatatypeFP64   = "FP64"
	DatatypeBytes  = "BYTES"
)

// TensorData is the payload of one input tensor. The concrete slice type
// decides the datatype tag and which contents field is populated.
type TensorData interface {
	Datatype() string
	Len() int
	Contents() *pb.InferTensorContents
}

type (
	Bools    []bool
	Int32s   []int32
	Int64s   []int64
	Uint32s  []uint32
	Uint64s  []uint64
	Float32s []float32
	Float64s []float64
	// Bytes holds one opaque element per entry.
	Bytes [][]byte
)

func (t Bools) Datatype() string    { return DatatypeBool }
func (t Int32s) Datatype() string   { return DatatypeInt32 }
func (t Int64s) Datatype() string   { return DatatypeInt64 }
func (t Uint32s) Datatype() string  { return DatatypeUint32 }
func (t Uint64s) Datatype() string  { return DatatypeUint64 }
func (t Float32s) Datatype() string { return DatatypeFP32 }
func (t Float64s) Datatype() string { return DatatypeFP64 }
func (t Bytes) Datatype() string    { return DatatypeBytes }

func (t Bools) Len() int    { return len(t) }
func (t Int32s) Len() int   { return len(t) }
func (t Int64s) Len() int   { return len(t) }
func (t Uint32s) Len() int  { return len(t) }
func (t Uint64s) Len() int  { return len(t) }
func (t Float32s) Len() int { return len(t) }
func (t Float64s) Len() int { return len(t) }
func (t Bytes) Len() int    { return len(t) }

func (t Bools) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{BoolContents: t}
}

func (t Int32s) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{IntContents: t}
}

func (t Int64s) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{Int64Contents: t}
}

func (t Uint32s) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{UintContents: t}
}

func (t Uint64s) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{Uint64Contents: t}
}

func (t Float32s) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{Fp32Contents: t}
}

func (t Float64s) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{Fp64Contents: t}
}

func (t Bytes) Contents() *pb.InferTensorContents {
	return &pb.InferTensorContents{BytesContents: t}
}

// Strings converts text values into a Bytes tensor payload.
func Strings(s ...string) Bytes {
	out := make(Bytes, len(s))
	for i, v := range s {
		out[i] = []byte(v)
	}
	return out
}
