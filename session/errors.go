package session

import (
	"errors"
	"fmt"

	"github.com/dh1tw/speechBridge/metrics"
)

// Kind classifies the failures of a session.
type Kind int

const (
	// ConfigError: unsupported sample rate, channels, bitrate or model path.
	ConfigError Kind = iota + 1
	// LifecycleError: an operation was called in the wrong state.
	LifecycleError
	// TruncatedStream: the stream length is not a multiple of the packet size.
	TruncatedStream
	// EngineFailure: the codec engine reported a failure.
	EngineFailure
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case LifecycleError:
		return "LifecycleError"
	case TruncatedStream:
		return "TruncatedStream"
	case EngineFailure:
		return "EngineFailure"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels to be used with errors.Is.
var (
	ErrConfig    = errors.New("session: invalid configuration")
	ErrLifecycle = errors.New("session: invalid state")
	ErrTruncated = errors.New("session: truncated stream")
	ErrEngine    = errors.New("session: engine failure")
)

func (k Kind) sentinel() error {
	switch k {
	case ConfigError:
		return ErrConfig
	case LifecycleError:
		return ErrLifecycle
	case TruncatedStream:
		return ErrTruncated
	case EngineFailure:
		return ErrEngine
	}
	return nil
}

// Error is the error type returned by the sessions.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel belonging to the error's Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the Kind of err or 0 if err is not a session error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) *Error {
	metrics.ErrorsTotal.WithLabelValues(kind.String()).Inc()
	return &Error{Kind: kind, Op: op, Err: err}
}

func newErrorf(kind Kind, op string, format string, args ...interface{}) *Error {
	return newError(kind, op, fmt.Errorf(format, args...))
}
