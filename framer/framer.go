// Package framer maps a negotiated bitrate to the fixed size of the packets
// on the wire. An encoded stream carries no header; the packet size is known
// only through the bitrate supplied out of band.
package framer

import (
	"errors"
	"fmt"
	"sort"
)

// Lyra compatible defaults: 20ms frames and three quantizer rates.
const (
	DefaultFrameRate = 50
)

// DefaultBitrates are the bitrates (bps) of the default framing table.
var DefaultBitrates = []int{3200, 6000, 9200}

var (
	// ErrUnsupportedBitrate indicates a bitrate outside of the framing table.
	ErrUnsupportedBitrate = errors.New("framer: unsupported bitrate")
	// ErrTruncatedStream indicates a stream whose length is not a multiple
	// of the packet size.
	ErrTruncatedStream = errors.New("framer: truncated stream")
)

// Framer holds the packet sizes for a fixed set of bitrates. It is
// immutable after construction and safe for concurrent use.
type Framer struct {
	frameRate int
	sizes     map[int]int
	bitrates  []int
}

// New returns a Framer for a codec producing frameRate packets per second
// at the given bitrates. Every bitrate must map to a whole number of bytes
// per packet.
func New(frameRate int, bitrates ...int) (*Framer, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("framer: invalid frame rate %d", frameRate)
	}
	if len(bitrates) == 0 {
		return nil, errors.New("framer: no bitrates provided")
	}

	f := &Framer{
		frameRate: frameRate,
		sizes:     make(map[int]int, len(bitrates)),
	}

	for _, b := range bitrates {
		bitsPerPacket := 8 * frameRate
		if b <= 0 || b%bitsPerPacket != 0 {
			return nil, fmt.Errorf("framer: bitrate %d does not fit into whole bytes at %d frames/s",
				b, frameRate)
		}
		if _, ok := f.sizes[b]; ok {
			continue
		}
		f.sizes[b] = b / bitsPerPacket
		f.bitrates = append(f.bitrates, b)
	}
	sort.Ints(f.bitrates)

	return f, nil
}

// MustNew is like New but panics on error. Only use it with constant tables.
func MustNew(frameRate int, bitrates ...int) *Framer {
	f, err := New(frameRate, bitrates...)
	if err != nil {
		panic(err)
	}
	return f
}

// FrameRate returns the amount of packets per second.
func (f *Framer) FrameRate() int {
	return f.frameRate
}

// Bitrates returns a sorted copy of the supported bitrates.
func (f *Framer) Bitrates() []int {
	res := make([]int, len(f.bitrates))
	copy(res, f.bitrates)
	return res
}

// PacketSizeForBitrate returns the size in bytes of every packet encoded
// at bitrate.
func (f *Framer) PacketSizeForBitrate(bitrate int) (int, error) {
	size, ok := f.sizes[bitrate]
	if !ok {
		return 0, fmt.Errorf("%w: %d bps (supported: %v)", ErrUnsupportedBitrate, bitrate, f.bitrates)
	}
	return size, nil
}

// Split cuts stream into packets of the size belonging to bitrate. The
// returned packets alias stream. An empty stream results in zero packets.
func (f *Framer) Split(stream []byte, bitrate int) ([][]byte, error) {
	size, err := f.PacketSizeForBitrate(bitrate)
	if err != nil {
		return nil, err
	}

	if rest := len(stream) % size; rest != 0 {
		return nil, fmt.Errorf("%w: %d bytes are not a multiple of %d byte packets (%d trailing)",
			ErrTruncatedStream, len(stream), size, rest)
	}

	packets := make([][]byte, 0, len(stream)/size)
	for i := 0; i < len(stream); i += size {
		packets = append(packets, stream[i:i+size:i+size])
	}
	return packets, nil
}

var defaultFramer = MustNew(DefaultFrameRate, DefaultBitrates...)

// Default returns the framer of the default (Lyra compatible) table.
func Default() *Framer {
	return defaultFramer
}

// PacketSizeForBitrate returns the packet size of the default table.
func PacketSizeForBitrate(bitrate int) (int, error) {
	return defaultFramer.PacketSizeForBitrate(bitrate)
}
