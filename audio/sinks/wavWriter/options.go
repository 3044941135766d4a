package wavWriter

const (
	DefaultChannels   = 1
	DefaultBitDepth   = 16
	DefaultSamplerate = 16000
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of the wav file to be written.
type Options struct {
	Channels   int
	BitDepth   int
	Samplerate int
}

// Channels is a functional option to set the amount of channels of the
// wav file.
func Channels(chs int) Option {
	return func(args *Options) {
		args.Channels = chs
	}
}

// Samplerate is a functional option to set the sample rate of the
// wav file.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}
