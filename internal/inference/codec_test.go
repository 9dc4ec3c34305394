package inference

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestBytesRoundTrip(t *testing.T) {
	cases := [][]string{
		{},
		{""},
		{"hello"},
		{"a", "", "ünïcødé", "日本語", "line\nbreak"},
	}
	for _, in := range cases {
		raw := EncodeBytes(Strings(in...))
		got, err := DecodeBytes(raw)
		require.NoError(t, err)
		if len(in) == 0 {
			assert.Empty(t, got)
			continue
		}
		assert.Equal(t, in, got)
	}
}

func TestDecodeBytesLenientTruncation(t *testing.T) {
	full := EncodeBytes(Strings("abc", "defg"))

	// Partial length prefix after the first element.
	got, err := DecodeBytes(full[:4+3+2])
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, got)

	// Length prefix pointing past the end.
	got, err = DecodeBytes(full[:len(full)-1])
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, got)

	// Fewer than four bytes overall.
	got, err = DecodeBytes([]byte{1, 0})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeBytesStrictReportsTruncation(t *testing.T) {
	full := EncodeBytes(Strings("abc", "defg"))
	got, err := DecodeBytesStrict(full[:len(full)-1])
	require.ErrorIs(t, err, ErrTruncatedTensor)
	assert.Equal(t, []string{"abc"}, got)

	got, err = DecodeBytesStrict(full)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "defg"}, got)
}

func TestDecodeBytesInvalidUTF8(t *testing.T) {
	raw := binary.LittleEndian.AppendUint32(nil, 2)
	raw = append(raw, 0xff, 0xfe)
	_, err := DecodeBytes(raw)
	require.ErrorIs(t, err, ErrInvalidUTF8)
	_, err = DecodeBytesStrict(raw)
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func FuzzDecodeBytes(f *testing.F) {
	f.Add([]byte{})
	f.Add(EncodeBytes(Strings("hello", "world")))
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 'a'})
	f.Fuzz(func(t *testing.T, raw []byte) {
		got, err := DecodeBytes(raw)
		if err != nil {
			return
		}
		// Re-encoding what was decoded must be a prefix of the input.
		enc := EncodeBytes(Strings(got...))
		if len(enc) > len(raw) || string(enc) != string(raw[:len(enc)]) {
			t.Fatalf("re-encoded %x is not a prefix of %x", enc, raw)
		}
	})
}

func le32(vals ...float32) []byte {
	var out []byte
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func TestFloat32View(t *testing.T) {
	want := []float32{0, 1.5, -2.25, float32(math.Inf(1))}
	got, err := Float32View(le32(want...))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	empty, err := Float32View(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFloat32ViewMisaligned(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 4097} {
		_, err := Float32View(make([]byte, n))
		require.ErrorIs(t, err, ErrMisalignedLength, "len %d", n)
	}
}

func TestFloat32ViewUnalignedStart(t *testing.T) {
	buf := append([]byte{0}, le32(3, 4)...)
	got, err := Float32View(buf[1:])
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, got)
}

func TestDecodeFloats(t *testing.T) {
	var fp16 []byte
	for _, v := range []float32{0.5, -1, 2} {
		fp16 = binary.LittleEndian.AppendUint16(fp16, float16.Fromfloat32(v).Bits())
	}
	got, err := DecodeFloats(fp16, DatatypeFP16)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1, 2}, got)

	fp64 := binary.LittleEndian.AppendUint64(nil, math.Float64bits(1.25))
	got, err = DecodeFloats(fp64, DatatypeFP64)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.25}, got)

	_, err = DecodeFloats([]byte{1, 2, 3}, DatatypeFP16)
	require.ErrorIs(t, err, ErrMisalignedLength)

	_, err = DecodeFloats(nil, DatatypeInt32)
	require.Error(t, err)
}
