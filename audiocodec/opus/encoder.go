package opus

import (
	"fmt"

	"github.com/dh1tw/speechBridge/audio/nodes/vox"
	ac "github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/utils"
	opus "gopkg.in/hraban/opus.v2"
)

// Encoder wraps a libopus encoder and emits fixed size packets.
type Encoder struct {
	options    ac.Options
	encoder    *opus.Encoder
	vox        *vox.Vox
	packetSize int
	buf        []byte
}

// NewEncoder is the constructor method for an Opus encoder. The default
// bitrate is 6000 bps.
func (e *Engine) NewEncoder(opts ...ac.Option) (ac.Encoder, error) {

	oEnc := &Encoder{
		options: ac.Options{
			Samplerate: 16000,
			Channels:   1,
			Bitrate:    6000,
		},
	}

	for _, option := range opts {
		option(&oEnc.options)
	}

	if err := checkOptions(oEnc.options); err != nil {
		return nil, err
	}

	encoder, err := opus.NewEncoder(oEnc.options.Samplerate,
		oEnc.options.Channels,
		e.options.Application)
	if err != nil {
		return nil, err
	}

	if err := encoder.SetComplexity(e.options.Complexity); err != nil {
		return nil, err
	}

	if err := encoder.SetMaxBandwidth(e.options.MaxBandwidth); err != nil {
		return nil, err
	}

	oEnc.encoder = encoder

	if err := oEnc.SetBitrate(oEnc.options.Bitrate); err != nil {
		return nil, err
	}

	if oEnc.options.DTX {
		oEnc.vox = vox.New(vox.Threshold(e.options.SilenceThreshold))
	}

	return oEnc, nil
}

// Name returns the name of the audio codec
func (oEnc *Encoder) Name() string {
	return "opus"
}

// SetBitrate changes the bitrate and therefore the packet size of all
// subsequent packets.
func (oEnc *Encoder) SetBitrate(bitrate int) error {
	if !utils.IntInSlice(bitrate, bitrates) {
		return fmt.Errorf("opus: unsupported bitrate %d", bitrate)
	}
	if err := oEnc.encoder.SetBitrate(bitrate); err != nil {
		return err
	}
	oEnc.options.Bitrate = bitrate
	oEnc.packetSize = packetSize(bitrate)
	oEnc.buf = make([]byte, oEnc.packetSize-1)
	return nil
}

// Encode one 20ms frame of interleaved samples into a packet. With DTX
// enabled, silent frames return a nil packet.
func (oEnc *Encoder) Encode(frame []int16) ([]byte, error) {

	if oEnc.vox != nil && !oEnc.vox.Active(frame) {
		return nil, nil
	}

	n, err := oEnc.encoder.Encode(frame, oEnc.buf)
	if err != nil {
		return nil, err
	}

	packet := make([]byte, oEnc.packetSize)
	packet[0] = byte(n)
	copy(packet[1:], oEnc.buf[:n])

	return packet, nil
}

// Close releases the encoder.
func (oEnc *Encoder) Close() error {
	oEnc.encoder = nil
	return nil
}
