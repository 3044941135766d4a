// Package mock implements a deterministic speech codec engine in pure Go.
// It mimics the packet sizes and frame timing of Lyra (3200, 6000 and
// 9200 bps at 50 frames per second) without any model. Each packet
// carries a marker byte, a frame counter and the quantized mean of the
// frame, which is all the decoder needs to synthesize a constant frame.
package mock

import (
	"encoding/binary"
	"errors"
	"fmt"

	ac "github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/utils"
)

// Marker is the first byte of every packet produced by the mock encoder.
const Marker byte = 0xA5

const frameRate = 50

var (
	bitrates    = []int{3200, 6000, 9200}
	samplerates = []int{8000, 16000, 32000, 48000}
)

// ErrCorruptPacket is returned by the decoder for packets which have not
// been produced by the mock encoder.
var ErrCorruptPacket = errors.New("mock: corrupt packet")

func init() {
	ac.Register(Engine{})
}

// Engine is the mock codec engine. The zero value is ready to use.
type Engine struct{}

// Name returns the name under which the engine is registered.
func (Engine) Name() string { return "mock" }

// SupportedBitrates returns the bitrate table.
func (Engine) SupportedBitrates() []int {
	return append([]int(nil), bitrates...)
}

// SupportedSamplerates returns the accepted sample rates.
func (Engine) SupportedSamplerates() []int {
	return append([]int(nil), samplerates...)
}

// FrameRate returns the number of frames per second.
func (Engine) FrameRate() int { return frameRate }

// FrameLengthSamples returns the samples of one 20ms frame.
func (Engine) FrameLengthSamples(sampleRateHz int) int {
	return sampleRateHz / frameRate
}

func checkOptions(o ac.Options) error {
	if !utils.IntInSlice(o.Samplerate, samplerates) {
		return fmt.Errorf("mock: unsupported samplerate %d", o.Samplerate)
	}
	if o.Channels != 1 {
		return fmt.Errorf("mock: unsupported number of channels %d", o.Channels)
	}
	return nil
}

// NewEncoder creates a mock encoder. The default bitrate is 3200 bps.
func (e Engine) NewEncoder(opts ...ac.Option) (ac.Encoder, error) {
	enc := &encoder{
		options: ac.Options{
			Samplerate: 16000,
			Channels:   1,
			Bitrate:    3200,
		},
	}

	for _, option := range opts {
		option(&enc.options)
	}

	if err := checkOptions(enc.options); err != nil {
		return nil, err
	}

	if err := enc.SetBitrate(enc.options.Bitrate); err != nil {
		return nil, err
	}

	return enc, nil
}

// NewDecoder creates a mock decoder.
func (e Engine) NewDecoder(opts ...ac.Option) (ac.Decoder, error) {
	dec := &decoder{
		options: ac.Options{
			Samplerate: 16000,
			Channels:   1,
		},
	}

	for _, option := range opts {
		option(&dec.options)
	}

	if err := checkOptions(dec.options); err != nil {
		return nil, err
	}

	dec.frameLength = dec.options.Samplerate / frameRate
	return dec, nil
}

type encoder struct {
	options    ac.Options
	packetSize int
	counter    byte
	closed     bool
}

func (enc *encoder) Name() string { return "mock" }

func (enc *encoder) SetBitrate(bitrate int) error {
	if !utils.IntInSlice(bitrate, bitrates) {
		return fmt.Errorf("mock: unsupported bitrate %d", bitrate)
	}
	enc.options.Bitrate = bitrate
	enc.packetSize = bitrate / (8 * frameRate)
	return nil
}

func (enc *encoder) Encode(frame []int16) ([]byte, error) {
	if enc.closed {
		return nil, errors.New("mock: encoder closed")
	}

	if len(frame) != enc.options.Samplerate/frameRate {
		return nil, fmt.Errorf("mock: frame has %d samples, expected %d",
			len(frame), enc.options.Samplerate/frameRate)
	}

	if enc.options.DTX && silent(frame) {
		return nil, nil
	}

	var sum int64
	for _, s := range frame {
		sum += int64(s)
	}
	mean := int16(sum / int64(len(frame)))

	packet := make([]byte, enc.packetSize)
	packet[0] = Marker
	packet[1] = enc.counter
	binary.LittleEndian.PutUint16(packet[2:4], uint16(mean))
	for i := 4; i < len(packet); i++ {
		packet[i] = enc.counter ^ byte(i)
	}
	enc.counter++

	return packet, nil
}

func (enc *encoder) Close() error {
	enc.closed = true
	return nil
}

func silent(frame []int16) bool {
	for _, s := range frame {
		if s != 0 {
			return false
		}
	}
	return true
}

type decoder struct {
	options     ac.Options
	frameLength int
	last        int16
	lostInRow   int
	closed      bool
}

func (dec *decoder) Name() string { return "mock" }

// Decode synthesizes a constant frame from the packet. A nil packet
// repeats the previous frame, attenuated by 6 dB for every consecutive
// concealed frame.
func (dec *decoder) Decode(packet []byte) ([]int16, error) {
	if dec.closed {
		return nil, errors.New("mock: decoder closed")
	}

	var value int16

	if packet == nil {
		dec.lostInRow++
		value = dec.last >> dec.lostInRow
		if dec.lostInRow > 16 {
			value = 0
		}
	} else {
		if len(packet) < 4 || packet[0] != Marker {
			return nil, ErrCorruptPacket
		}
		value = int16(binary.LittleEndian.Uint16(packet[2:4]))
		dec.last = value
		dec.lostInRow = 0
	}

	frame := make([]int16, dec.frameLength)
	for i := range frame {
		frame[i] = value
	}
	return frame, nil
}

func (dec *decoder) Close() error {
	dec.closed = true
	return nil
}
