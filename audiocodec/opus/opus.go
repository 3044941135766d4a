// Package opus provides a speech codec engine on top of libopus. Opus
// packets are variable in size, so every packet is wrapped into a fixed
// size frame: the first byte holds the length of the opus payload, the
// payload follows and the remainder is zero padded. The encoder is
// limited to the payload capacity of the frame so that every packet fits.
package opus

import (
	"fmt"

	ac "github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/utils"
	opus "gopkg.in/hraban/opus.v2"
)

const frameRate = 50

var (
	bitrates    = []int{6000, 9200, 12000, 16000, 24000, 32000}
	samplerates = []int{8000, 12000, 16000, 24000, 48000}
)

func init() {
	ac.Register(New())
}

// Engine is the opus codec engine.
type Engine struct {
	options Options
}

// New returns an opus Engine. By default the encoder runs in VoIP mode
// with complexity 5, limited to wideband.
func New(opts ...Option) *Engine {
	e := &Engine{
		options: Options{
			Application:      opus.AppVoIP,
			Complexity:       5,
			MaxBandwidth:     opus.Wideband,
			SilenceThreshold: 0.003,
		},
	}

	for _, option := range opts {
		option(&e.options)
	}

	return e
}

// Name returns the name of the engine
func (e *Engine) Name() string { return "opus" }

// SupportedBitrates returns the bitrate table of the engine.
func (e *Engine) SupportedBitrates() []int {
	return append([]int(nil), bitrates...)
}

// SupportedSamplerates returns the sample rates libopus accepts.
func (e *Engine) SupportedSamplerates() []int {
	return append([]int(nil), samplerates...)
}

// FrameRate returns 50 (20ms frames).
func (e *Engine) FrameRate() int { return frameRate }

// FrameLengthSamples returns the amount of samples per channel of a 20ms frame.
func (e *Engine) FrameLengthSamples(sampleRateHz int) int {
	return sampleRateHz / frameRate
}

func packetSize(bitrate int) int {
	return bitrate / (8 * frameRate)
}

func checkOptions(o ac.Options) error {
	if !utils.IntInSlice(o.Samplerate, samplerates) {
		return fmt.Errorf("opus: unsupported samplerate %d", o.Samplerate)
	}
	if o.Channels != 1 && o.Channels != 2 {
		return fmt.Errorf("opus: unsupported number of channels %d", o.Channels)
	}
	return nil
}
