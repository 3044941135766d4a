// Package resampler converts 16 bit PCM between sample rates with
// libsamplerate.
package resampler

import (
	"fmt"

	"github.com/dh1tw/gosamplerate"

	"github.com/dh1tw/speechBridge/audio"
)

// chunkFrames limits the amount of frames handed to libsamplerate per call
// so that the converted output always fits into the converter's buffer.
const (
	chunkFrames = 4096
	bufferLen   = 65536
)

// Resampler holds a samplerate converter and its needed variables. It is
// not safe for concurrent use.
type Resampler struct {
	gosamplerate.Src
	channels int
}

// New returns a Resampler for interleaved audio with the given amount of
// channels.
func New(channels int) (*Resampler, error) {
	if channels < 1 {
		return nil, fmt.Errorf("resampler: invalid channel count %d", channels)
	}
	srConv, err := gosamplerate.New(gosamplerate.SRC_SINC_FASTEST, channels, bufferLen)
	if err != nil {
		return nil, fmt.Errorf("resampler: %v", err)
	}
	return &Resampler{
		Src:      srConv,
		channels: channels,
	}, nil
}

// Process converts a complete buffer from one sample rate into another.
// The converter is reset afterwards, so consecutive calls are independent.
func (r *Resampler) Process(samples []int16, from, to int) ([]int16, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("resampler: invalid sample rates %d -> %d", from, to)
	}
	if from == to || len(samples) == 0 {
		return audio.Copy(samples), nil
	}

	defer r.Reset()

	ratio := float64(to) / float64(from)
	in := audio.Int16ToFloat32(samples)
	out := make([]float32, 0, int(float64(len(in))*ratio)+r.channels)

	step := chunkFrames * r.channels
	for i := 0; i < len(in); i += step {
		end := i + step
		last := false
		if end >= len(in) {
			end = len(in)
			last = true
		}
		res, err := r.Src.Process(in[i:end], ratio, last)
		if err != nil {
			return nil, fmt.Errorf("resampler: %v", err)
		}
		out = append(out, res...)
	}

	return audio.Float32ToInt16(out), nil
}

// Close frees the underlying converter.
func (r *Resampler) Close() error {
	return gosamplerate.Delete(r.Src)
}

// Resample is a convenience function converting a single buffer.
func Resample(samples []int16, channels, from, to int) ([]int16, error) {
	if from == to {
		return audio.Copy(samples), nil
	}
	r, err := New(channels)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Process(samples, from, to)
}
