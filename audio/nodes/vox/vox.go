package vox

import (
	"github.com/chewxy/math32"

	"github.com/dh1tw/speechBridge/audio"
)

// Vox classifies audio frames as voice or silence. A frame is voice when
// its RMS (root mean square) rises above the threshold. After the level
// falls below the threshold, frames are still reported as voice until the
// hold time (counted in frames) has passed, so that word endings are not
// cut off.
type Vox struct {
	active       bool
	silentFrames int
	threshold    float32
	holdFrames   int
}

// New is the constructor method for a Vox Object. By default the threshold
// is set to 0.01 (-40 dBFS) and the hold time to 5 frames.
func New(opts ...Option) *Vox {
	v := &Vox{
		threshold:  0.01,
		holdFrames: 5,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Active processes one frame and reports if it contains voice. Frames must
// be supplied in stream order.
func (v *Vox) Active(frame []int16) bool {

	if len(frame) == 0 {
		return v.active
	}

	if rms(frame) >= v.threshold {
		v.silentFrames = 0
		v.active = true
		return true
	}

	if !v.active {
		return false
	}

	v.silentFrames++
	if v.silentFrames > v.holdFrames {
		v.active = false
		return false
	}

	return true
}

// Reset returns the Vox into its initial (silent) state.
func (v *Vox) Reset() {
	v.active = false
	v.silentFrames = 0
}

// calculate the root mean square for a non-interlaced audio
// frame
func rms(frame []int16) float32 {
	var sum float32
	for _, el := range audio.Int16ToFloat32(frame) {
		sum = sum + el*el
	}
	sum = sum / float32(len(frame))
	return math32.Sqrt(sum)
}
