package opus

import opus "gopkg.in/hraban/opus.v2"

// Option is the type for a function option
type Option func(*Options)

// Options contains the libopus specific settings of the Engine.
type Options struct {
	Application      opus.Application
	Complexity       int
	MaxBandwidth     opus.Bandwidth
	SilenceThreshold float32
}

// Application is a functional option to set the opus application mode
// (opus.AppVoIP, opus.AppAudio or opus.AppRestrictedLowdelay).
func Application(app opus.Application) Option {
	return func(args *Options) {
		args.Application = app
	}
}

// Complexity is a functional option to set the encoder's computational
// complexity (0...10).
func Complexity(c int) Option {
	return func(args *Options) {
		args.Complexity = c
	}
}

// MaxBandwidth is a functional option to limit the audio bandwidth of
// the encoder.
func MaxBandwidth(bw opus.Bandwidth) Option {
	return func(args *Options) {
		args.MaxBandwidth = bw
	}
}

// SilenceThreshold is a functional option to set the RMS level (0...1)
// below which a frame is considered silence when DTX is enabled.
func SilenceThreshold(t float32) Option {
	return func(args *Options) {
		args.SilenceThreshold = t
	}
}
