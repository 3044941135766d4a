package opus

import (
	"fmt"

	ac "github.com/dh1tw/speechBridge/audiocodec"
	opus "gopkg.in/hraban/opus.v2"
)

// Decoder is the data structure which holds internal values
// for the decoder.
type Decoder struct {
	options     ac.Options
	decoder     *opus.Decoder
	frameLength int
}

// NewDecoder is the constructor method for an Opus decoder.
func (e *Engine) NewDecoder(opts ...ac.Option) (ac.Decoder, error) {

	oc := &Decoder{
		options: ac.Options{
			Samplerate: 16000,
			Channels:   1,
		},
	}

	for _, option := range opts {
		option(&oc.options)
	}

	if err := checkOptions(oc.options); err != nil {
		return nil, err
	}

	decoder, err := opus.NewDecoder(oc.options.Samplerate,
		oc.options.Channels)
	if err != nil {
		return nil, err
	}

	oc.decoder = decoder
	oc.frameLength = oc.options.Samplerate / frameRate
	return oc, nil
}

// Name returns the name of the audio codec
func (oc *Decoder) Name() string {
	return "opus"
}

// Decode unwraps the opus payload from a fixed size packet and decodes it
// into one frame. A nil packet lets libopus conceal the missing frame.
func (oc *Decoder) Decode(packet []byte) ([]int16, error) {

	pcm := make([]int16, oc.frameLength*oc.options.Channels)

	if packet == nil {
		if err := oc.decoder.DecodePLC(pcm); err != nil {
			return nil, err
		}
		return pcm, nil
	}

	if len(packet) < 2 {
		return nil, fmt.Errorf("opus: packet too short (%d bytes)", len(packet))
	}

	n := int(packet[0])
	if n == 0 || n > len(packet)-1 {
		return nil, fmt.Errorf("opus: invalid payload length %d in %d byte packet",
			n, len(packet))
	}

	samples, err := oc.decoder.Decode(packet[1:1+n], pcm)
	if err != nil {
		return nil, err
	}

	return pcm[:samples*oc.options.Channels], nil
}

// Close releases the decoder.
func (oc *Decoder) Close() error {
	oc.decoder = nil
	return nil
}
