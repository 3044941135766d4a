package audiocodec

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Engine is implemented by a speech codec which can be driven frame by
// frame. An Engine is a factory; the stateful parts are the Encoder and
// Decoder instances it creates.
type Engine interface {
	Name() string
	SupportedBitrates() []int
	SupportedSamplerates() []int
	// FrameRate returns the number of codec frames per second. It is
	// independent of the sample rate and the bitrate.
	FrameRate() int
	// FrameLengthSamples returns the number of samples (per channel) of
	// one codec frame at the given sample rate.
	FrameLengthSamples(sampleRateHz int) int
	NewEncoder(opts ...Option) (Encoder, error)
	NewDecoder(opts ...Option) (Decoder, error)
}

// Encoder turns one frame of 16 bit PCM samples into one packet. A nil
// (or zero length) packet without error means the frame was classified
// as silence and suppressed (DTX).
type Encoder interface {
	Name() string
	Encode(frame []int16) ([]byte, error)
	SetBitrate(bitrate int) error
	Close() error
}

// Decoder turns one packet into one frame of 16 bit PCM samples. Passing
// a nil packet requests a concealment frame synthesized from the
// decoder's prior context.
type Decoder interface {
	Name() string
	Decode(packet []byte) ([]int16, error)
	Close() error
}

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters which are common to all engines.
type Options struct {
	Samplerate int
	Channels   int
	Bitrate    int
	DTX        bool
	ModelPath  string
}

// Samplerate is a functional option to set the sample rate of the
// encoder or decoder.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// Channels is a functional option to set the amount of audio channels.
func Channels(chs int) Option {
	return func(args *Options) {
		args.Channels = chs
	}
}

// Bitrate is a functional option to set the initial bitrate of an encoder.
func Bitrate(b int) Option {
	return func(args *Options) {
		args.Bitrate = b
	}
}

// DTX is a functional option to enable discontinuous transmission. Silent
// frames won't produce a packet.
func DTX(enabled bool) Option {
	return func(args *Options) {
		args.DTX = enabled
	}
}

// ModelPath is a functional option to set the directory from which an
// engine loads its model files. An empty path selects the engine's
// built-in model.
func ModelPath(p string) Option {
	return func(args *Options) {
		args.ModelPath = p
	}
}

// ErrUnknownEngine is returned by Lookup when no engine with the requested
// name has been registered.
var ErrUnknownEngine = errors.New("audiocodec: unknown engine")

var (
	muEngines sync.RWMutex
	engines   = map[string]Engine{}
)

// Register makes an engine available by name. It is typically called
// from the init function of the package implementing the engine.
func Register(e Engine) {
	muEngines.Lock()
	defer muEngines.Unlock()
	engines[e.Name()] = e
}

// Lookup returns the registered engine with the given name.
func Lookup(name string) (Engine, error) {
	muEngines.RLock()
	defer muEngines.RUnlock()
	e, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	return e, nil
}

// Engines returns the names of all registered engines in sorted order.
func Engines() []string {
	muEngines.RLock()
	defer muEngines.RUnlock()
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
