package inference

import (
	pb "github.com/Meesho/BharatMLStack/helix-client/pkg/clients/predator/client/grpc"
)

// OutputIndex returns the position of the first output named name. Servers
// may reorder outputs, so callers must not rely on the requested order.
func OutputIndex(outputs []*pb.ModelInferResponse_InferOutputTensor, name string) (int, bool) {
	for i, o := range outputs {
		if o.GetName() == name {
			return i, true
		}
	}
	return 0, false
}

// RawOutput returns the raw contents and metadata of the named output.
func RawOutput(resp *pb.ModelInferResponse, name string) ([]byte, *pb.ModelInferResponse_InferOutputTensor, bool) {
	idx, ok := OutputIndex(resp.GetOutputs(), name)
	if !ok || idx >= len(resp.GetRawOutputContents()) {
		return nil, nil, false
	}
	return resp.GetRawOutputContents()[idx], resp.GetOutputs()[idx], true
}
