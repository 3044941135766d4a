package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/framer"
	"github.com/dh1tw/speechBridge/loss"
	"github.com/dh1tw/speechBridge/metrics"
)

// DecoderStats counts the packets a decoder session has processed since
// it was initialized.
type DecoderStats struct {
	Delivered  int
	Lost       int
	Duplicated int
	Frames     int
}

// DecoderSession turns a packet stream into PCM while simulating the
// delivery of each packet. All methods are safe for concurrent use.
type DecoderSession struct {
	mu          sync.Mutex
	engine      audiocodec.Engine
	logger      *zap.Logger
	state       State
	config      CodecConfig
	decoder     audiocodec.Decoder
	framer      *framer.Framer
	lastPayload []byte
	stats       DecoderStats
}

// NewDecoderSession returns an uninitialized decoder session for engine.
func NewDecoderSession(engine audiocodec.Engine, opts ...Option) *DecoderSession {
	o := newOptions(opts)
	return &DecoderSession{
		engine: engine,
		logger: o.Logger.With(zap.String("session", "decoder"), zap.String("engine", engine.Name())),
	}
}

// Initialize allocates the engine decoder. The bitrate of the config is
// ignored; it is supplied with every Decode call.
func (s *DecoderSession) Initialize(cfg CodecConfig) error {
	const op = "decoder initialize"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Ready {
		return newErrorf(LifecycleError, op, "decoder already initialized")
	}

	cfg = cfg.withDefaults(s.engine)
	cfg.BitrateBps = 0
	if err := cfg.Validate(s.engine); err != nil {
		return err
	}

	fr, err := framerFor(s.engine)
	if err != nil {
		return newError(ConfigError, op, err)
	}

	dec, err := s.engine.NewDecoder(cfg.engineOptions()...)
	if err != nil {
		return newError(ConfigError, op, err)
	}

	s.decoder = dec
	s.framer = fr
	s.config = cfg
	s.lastPayload = nil
	s.stats = DecoderStats{}
	s.state = Ready

	metrics.ActiveSessions.WithLabelValues("decoder").Inc()
	s.logger.Debug("decoder initialized",
		zap.Int("samplerate", cfg.SampleRateHz),
		zap.Int("channels", cfg.NumChannels),
		zap.String("model_path", cfg.ModelPath))

	return nil
}

// Release frees the engine decoder. It is safe to call Release in any
// state and more than once.
func (s *DecoderSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.decoder != nil {
		if err := s.decoder.Close(); err != nil {
			s.logger.Warn("unable to close decoder", zap.Error(err))
		}
		s.decoder = nil
	}

	if s.state == Ready {
		metrics.ActiveSessions.WithLabelValues("decoder").Dec()
		s.logger.Debug("decoder released", zap.Any("stats", s.stats))
	}

	s.state = Uninitialized
	s.lastPayload = nil
	s.config = CodecConfig{}
}

// State returns the lifecycle state of the session.
func (s *DecoderSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the active configuration.
func (s *DecoderSession) Config() CodecConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Stats returns the packet counters since the last Initialize.
func (s *DecoderSession) Stats() DecoderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Decode splits stream into packets of the size belonging to bitrate and
// decodes them in order. The delivery of each packet is decided by a
// LossSimulator built from spec; lost packets are concealed by the
// engine. If the engine fails, the frames decoded so far are returned
// together with the error.
func (s *DecoderSession) Decode(stream []byte, bitrate int, spec loss.Spec) ([]int16, error) {
	if s.State() != Ready {
		return nil, newErrorf(LifecycleError, "decode", "decoder not initialized")
	}
	sim, err := loss.New(spec)
	if err != nil {
		return nil, newError(ConfigError, "decode", err)
	}
	return s.DecodeWith(stream, bitrate, sim)
}

// DecodeWith is like Decode but uses a caller owned simulator, so that
// the packet index continues over consecutive calls.
func (s *DecoderSession) DecodeWith(stream []byte, bitrate int, sim *loss.Simulator) ([]int16, error) {
	const op = "decode"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return nil, newErrorf(LifecycleError, op, "decoder not initialized")
	}

	packets, err := s.framer.Split(stream, bitrate)
	switch {
	case errors.Is(err, framer.ErrTruncatedStream):
		return nil, newError(TruncatedStream, op, err)
	case err != nil:
		return nil, newError(ConfigError, op, err)
	}

	frameLength := s.engine.FrameLengthSamples(s.config.SampleRateHz) * s.config.NumChannels
	out := make([]int16, 0, len(packets)*frameLength)

	for i, packet := range packets {
		class := sim.Next()

		var payload []byte
		switch class {
		case loss.Delivered:
			payload = packet
		case loss.Duplicated:
			// replay the last received payload in place of this one
			payload = s.lastPayload
		}

		frame, err := s.decoder.Decode(payload)
		if err != nil {
			s.logger.Warn("engine failed to decode packet",
				zap.Int("packet", i),
				zap.Stringer("class", class),
				zap.Error(err))
			return out, newError(EngineFailure, op, err)
		}

		switch class {
		case loss.Delivered:
			s.lastPayload = append(s.lastPayload[:0], packet...)
			s.stats.Delivered++
		case loss.Lost:
			s.stats.Lost++
		case loss.Duplicated:
			s.stats.Duplicated++
		}
		metrics.PacketsDecodedTotal.WithLabelValues(class.String()).Inc()

		s.stats.Frames++
		out = append(out, frame...)
	}

	return out, nil
}
