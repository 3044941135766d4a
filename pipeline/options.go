package pipeline

import "go.uber.org/zap"

// DefaultChunkFrames is the amount of codec frames processed per chunk
// (1s at 20ms frames).
const DefaultChunkFrames = 50

// DefaultBacklog is the amount of PCM writes a StreamEncoder queues
// before it rejects further writes.
const DefaultBacklog = 64

// Option is the type for a function option
type Option func(*Options)

// Options contains the settings of a Pipeline.
type Options struct {
	Logger      *zap.Logger
	ChunkFrames int
	Backlog     int
}

// Logger is a functional option to set the logger of the pipeline.
func Logger(l *zap.Logger) Option {
	return func(args *Options) {
		if l != nil {
			args.Logger = l
		}
	}
}

// ChunkFrames is a functional option to set the amount of codec frames
// which are handed to a session at once.
func ChunkFrames(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.ChunkFrames = n
		}
	}
}

// Backlog is a functional option to set the capacity (in writes) of the
// queue of a StreamEncoder.
func Backlog(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.Backlog = n
		}
	}
}
