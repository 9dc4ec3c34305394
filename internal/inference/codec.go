package inference

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
	"unsafe"

	"github.com/x448/float16"
)

var (
	// ErrInvalidUTF8 is returned when a BYTES element is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("byte tensor element is not valid utf-8")
	// ErrTruncatedTensor is returned by DecodeBytesStrict for a cut-off buffer.
	ErrTruncatedTensor = errors.New("byte tensor is truncated")
	// ErrMisalignedLength is returned when a buffer is not a whole number of elements.
	ErrMisalignedLength = errors.New("buffer length is not a multiple of the element width")
)

// EncodeBytes serializes elements using the BYTES wire layout: a 4-byte
// little-endian length followed by the element bytes.
func EncodeBytes(elems [][]byte) []byte {
	n := 0
	for _, e := range elems {
		n += 4 + len(e)
	}
	out := make([]byte, 0, n)
	for _, e := range elems {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(e)))
		out = append(out, e...)
	}
	return out
}

// DecodeBytes parses a raw BYTES tensor into strings. A buffer that ends in
// the middle of a length prefix, or whose length prefix runs past the end,
// is treated as ending there. Invalid UTF-8 is an error.
func DecodeBytes(raw []byte) ([]string, error) {
	out, _, err := decodeBytes(raw)
	return out, err
}

// DecodeBytesStrict is DecodeBytes but reports truncation as ErrTruncatedTensor.
func DecodeBytesStrict(raw []byte) ([]string, error) {
	out, truncated, err := decodeBytes(raw)
	if err != nil {
		return out, err
	}
	if truncated {
		return out, ErrTruncatedTensor
	}
	return out, nil
}

func decodeBytes(raw []byte) (out []string, truncated bool, err error) {
	for len(raw) > 0 {
		if len(raw) < 4 {
			return out, true, nil
		}
		n := binary.LittleEndian.Uint32(raw)
		raw = raw[4:]
		if uint64(n) > uint64(len(raw)) {
			return out, true, nil
		}
		elem := raw[:n]
		if !utf8.Valid(elem) {
			return out, false, fmt.Errorf("element %d: %w", len(out), ErrInvalidUTF8)
		}
		out = append(out, string(elem))
		raw = raw[n:]
	}
	return out, false, nil
}

var littleEndianHost = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// Float32View interprets raw as little-endian float32 values. The result
// aliases raw whenever the host layout allows it; callers must not modify
// raw while the view is in use.
func Float32View(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("fp32 buffer of %d bytes: %w", len(raw), ErrMisalignedLength)
	}
	if len(raw) == 0 {
		return []float32{}, nil
	}
	if littleEndianHost && uintptr(unsafe.Pointer(&raw[0]))%4 == 0 {
		return unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), len(raw)/4), nil
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// Float16ToFloat32 widens little-endian IEEE half-precision values.
func Float16ToFloat32(raw []byte) ([]float32, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("fp16 buffer of %d bytes: %w", len(raw), ErrMisalignedLength)
	}
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = float16.Frombits(binary.LittleEndian.Uint16(raw[i*2:])).Float32()
	}
	return out, nil
}

// DecodeFloats decodes a raw float tensor of the given datatype into float32 values.
func DecodeFloats(raw []byte, datatype string) ([]float32, error) {
	switch datatype {
	case DatatypeFP32, "":
		return Float32View(raw)
	case DatatypeFP16:
		return Float16ToFloat32(raw)
	case DatatypeFP64:
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("fp64 buffer of %d bytes: %w", len(raw), ErrMisalignedLength)
		}
		out := make([]float32, len(raw)/8)
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported float datatype %q", datatype)
	}
}
