// Package highpass implements the pre-processing filter applied to audio
// before it is encoded. It removes DC offset and low frequency rumble which
// would otherwise waste bits of a low bitrate speech codec.
package highpass

import (
	"github.com/chewxy/math32"

	"github.com/dh1tw/speechBridge/audio"
)

// DefaultCutoff is the -3dB corner frequency in Hz.
const DefaultCutoff = 60

// Filter is a first order high-pass filter. The filter state persists
// between calls to Process so that a stream can be filtered frame by frame
// without discontinuities.
type Filter struct {
	alpha float32
	prevX float32
	prevY float32
}

// New returns a Filter for audio sampled at samplerate with the given
// cutoff frequency (Hz).
func New(samplerate int, cutoff float32) *Filter {
	rc := 1 / (2 * math32.Pi * cutoff)
	dt := 1 / float32(samplerate)
	return &Filter{
		alpha: rc / (rc + dt),
	}
}

// Process filters samples and returns the filtered copy.
func (f *Filter) Process(samples []int16) []int16 {
	in := audio.Int16ToFloat32(samples)
	out := make([]float32, len(in))
	for i, x := range in {
		y := f.alpha * (f.prevY + x - f.prevX)
		f.prevX = x
		f.prevY = y
		out[i] = y
	}
	return audio.Float32ToInt16(out)
}

// Reset clears the filter state.
func (f *Filter) Reset() {
	f.prevX = 0
	f.prevY = 0
}
