// Package audio prepares uploaded WAV files for speech recognition models:
// mono, 16 kHz, float32, zero padded to whole blocks.
package audio

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog/log"

	"airouter/internal/apierr"
)

const (
	// TargetRate is the sample rate expected by the model.
	TargetRate = 16000
	// MaxChannels is the widest layout that can be downmixed.
	MaxChannels = 8
	// PadBlock is the sample count the model input is padded to a multiple of.
	PadBlock = 160000
)

const wavFormatIEEEFloat = 3

// Prepare decodes a WAV stream into padded mono TargetRate samples.
func Prepare(r io.ReadSeeker) ([]float32, error) {
	samples, channels, rate, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if channels != 1 || rate != TargetRate {
		log.Debug().Int("channels", channels).Int("sample_rate", rate).Msg("transcoding audio")
	}
	mono := Resample(Downmix(samples, channels), rate, TargetRate)
	padded := Pad(mono, PadBlock)
	log.Debug().Int("num_samples", len(mono)).Int("num_samples_padded", len(padded)).Msg("audio prepared")
	return padded, nil
}

// Decode reads interleaved PCM samples normalized to [-1, 1].
func Decode(r io.ReadSeeker) (samples []float32, channels, rate int, err error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, 0, apierr.BadRequest("failed to process audio file: not a valid wav file")
	}
	channels = int(dec.NumChans)
	rate = int(dec.SampleRate)
	if channels > MaxChannels {
		return nil, 0, 0, apierr.BadRequest("audio with > %d channels not supported", MaxChannels)
	}
	if dec.WavAudioFormat == wavFormatIEEEFloat {
		samples, err = decodeFloat(dec)
		if err != nil {
			return nil, 0, 0, err
		}
		return samples, channels, rate, nil
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, apierr.BadRequest("failed to process audio file: %v", err)
	}
	return normalize(buf), channels, rate, nil
}

// decodeFloat reads a little-endian IEEE float data chunk. go-audio only
// decodes integer PCM.
func decodeFloat(dec *wav.Decoder) ([]float32, error) {
	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		return nil, apierr.BadRequest("failed to process audio file: no data chunk")
	}
	raw, err := io.ReadAll(io.LimitReader(dec.PCMChunk.R, int64(dec.PCMSize)))
	if err != nil {
		return nil, apierr.BadRequest("failed to process audio file: %v", err)
	}
	switch dec.BitDepth {
	case 32:
		out := make([]float32, len(raw)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	case 64:
		out := make([]float32, len(raw)/8)
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
		return out, nil
	}
	return nil, apierr.BadRequest("failed to process audio file: %d-bit float wav not supported", dec.BitDepth)
}

func normalize(buf *audio.IntBuffer) []float32 {
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := float32(int64(1) << (depth - 1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	return out
}

// Downmix averages interleaved channels into one.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[f*channels+c]
		}
		out[f] = sum / float32(channels)
	}
	return out
}

// Resample converts mono samples between rates by linear interpolation.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || len(samples) == 0 {
		return samples
	}
	n := int(int64(len(samples)) * int64(to) / int64(from))
	out := make([]float32, n)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}

// Pad appends zeros up to the next multiple of block. Input that already
// fills whole blocks still gets one more block.
func Pad(samples []float32, block int) []float32 {
	padded := len(samples) + block - len(samples)%block
	out := make([]float32, padded)
	copy(out, samples)
	return out
}

// Supported reports whether a transcription upload extension is accepted at all.
// Only "wav" can be decoded locally; the others are passed to OpenAI backends.
func Supported(ext string) bool {
	switch ext {
	case "flac", "m4a", "mp3", "mp4", "mpeg", "mpga", "ogg", "ogm", "wav", "webm":
		return true
	}
	return false
}
