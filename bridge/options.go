package bridge

import (
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/loss"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the settings of a Bridge.
type Options struct {
	Logger      *zap.Logger
	DefaultLoss loss.Spec
	ChunkFrames int
}

// Logger is a functional option to set the logger which receives the
// details of failed calls.
func Logger(l *zap.Logger) Option {
	return func(args *Options) {
		if l != nil {
			args.Logger = l
		}
	}
}

// DefaultLoss is a functional option to set the simulated channel used
// by DecodeBuffer and DecodeFile. By default every packet is delivered.
func DefaultLoss(spec loss.Spec) Option {
	return func(args *Options) {
		args.DefaultLoss = spec
	}
}

// ChunkFrames is a functional option to set the amount of codec frames
// processed at once.
func ChunkFrames(n int) Option {
	return func(args *Options) {
		args.ChunkFrames = n
	}
}
