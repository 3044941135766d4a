// Package audio contains the data contract for audio crossing the bridge:
// signed 16 bit samples, interleaved by channel, little endian when
// serialized. Every function returns freshly allocated slices; callers and
// sessions never share sample memory.
package audio

import (
	"encoding/binary"
	"errors"
)

// ErrOddByteCount is returned when a byte slice can not hold a whole
// number of 16 bit samples.
var ErrOddByteCount = errors.New("audio: odd byte count for 16 bit PCM")

// Buffer contains interleaved 16 bit PCM samples with their metadata.
type Buffer struct {
	Data       []int16
	Samplerate int
	Channels   int
}

// Frames returns the number of sample frames (samples per channel).
func (b Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Copy returns a copy of samples. A nil input results in an empty, non nil
// slice.
func Copy(samples []int16) []int16 {
	res := make([]int16, len(samples))
	copy(res, samples)
	return res
}

// Int16ToBytes serializes samples as little endian 16 bit PCM.
func Int16ToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

// BytesToInt16 deserializes little endian 16 bit PCM.
func BytesToInt16(b []byte) ([]int16, error) {
	if len(b)%2 != 0 {
		return nil, ErrOddByteCount
	}
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples, nil
}

// Int16ToFloat32 converts samples into the range [-1, 1).
func Int16ToFloat32(samples []int16) []float32 {
	res := make([]float32, len(samples))
	for i, s := range samples {
		res[i] = float32(s) / 32768
	}
	return res
}

// Float32ToInt16 converts float samples in the range [-1, 1] into 16 bit
// samples. Values outside of the range are clipped.
func Float32ToInt16(samples []float32) []int16 {
	const max = 32768
	res := make([]int16, len(samples))
	for i, s := range samples {
		f := int(s * max)
		if f > max-1 {
			f = max - 1
		} else if f < -max {
			f = -max
		}
		res[i] = int16(f)
	}
	return res
}
