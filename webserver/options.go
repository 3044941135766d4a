package webserver

import "go.uber.org/zap"

// Option is the type for a function option
type Option func(*Options)

// Options contains the settings of the WebServer.
type Options struct {
	Logger         *zap.Logger
	Backlog        int
	AllowedOrigins []string
}

// Logger is a functional option to set the logger of the webserver.
func Logger(l *zap.Logger) Option {
	return func(args *Options) {
		if l != nil {
			args.Logger = l
		}
	}
}

// Backlog is a functional option to set the amount of websocket messages
// queued per stream before the stream is closed.
func Backlog(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.Backlog = n
		}
	}
}

// AllowedOrigins is a functional option to accept websocket connections
// from pages served by other origins (e.g. "https://example.com"). "*"
// accepts any origin. By default only same origin requests are accepted.
func AllowedOrigins(origins ...string) Option {
	return func(args *Options) {
		args.AllowedOrigins = append(args.AllowedOrigins, origins...)
	}
}
