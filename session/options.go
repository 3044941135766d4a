package session

import "go.uber.org/zap"

// Option is the type for a function option
type Option func(*Options)

// Options contains the settings shared by encoder and decoder sessions.
type Options struct {
	Logger *zap.Logger
}

// Logger is a functional option to set the logger of a session. By
// default nothing is logged.
func Logger(l *zap.Logger) Option {
	return func(args *Options) {
		if l != nil {
			args.Logger = l
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Logger: zap.NewNop(),
	}
	for _, option := range opts {
		option(&o)
	}
	return o
}
