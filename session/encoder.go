package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/audio/nodes/highpass"
	"github.com/dh1tw/speechBridge/audio/resampler"
	"github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/framer"
	"github.com/dh1tw/speechBridge/metrics"
)

// EncoderSession turns PCM into a stream of fixed size packets. All
// methods are safe for concurrent use; calls are serialized.
type EncoderSession struct {
	mu          sync.Mutex
	engine      audiocodec.Engine
	logger      *zap.Logger
	state       State
	config      CodecConfig
	encoder     audiocodec.Encoder
	framer      *framer.Framer
	filter      *highpass.Filter
	frameLength int
	packetSize  int
}

// NewEncoderSession returns an uninitialized encoder session for engine.
func NewEncoderSession(engine audiocodec.Engine, opts ...Option) *EncoderSession {
	o := newOptions(opts)
	return &EncoderSession{
		engine: engine,
		logger: o.Logger.With(zap.String("session", "encoder"), zap.String("engine", engine.Name())),
	}
}

// Initialize allocates the engine encoder. Calling Initialize on a Ready
// session fails with a LifecycleError and leaves the session untouched.
func (s *EncoderSession) Initialize(cfg CodecConfig) error {
	const op = "encoder initialize"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Ready {
		return newErrorf(LifecycleError, op, "encoder already initialized")
	}

	cfg = cfg.withDefaults(s.engine)
	if err := cfg.Validate(s.engine); err != nil {
		return err
	}

	fr, err := framerFor(s.engine)
	if err != nil {
		return newError(ConfigError, op, err)
	}

	packetSize, err := fr.PacketSizeForBitrate(cfg.BitrateBps)
	if err != nil {
		return newError(ConfigError, op, err)
	}

	enc, err := s.engine.NewEncoder(cfg.engineOptions()...)
	if err != nil {
		return newError(ConfigError, op, err)
	}

	s.encoder = enc
	s.framer = fr
	s.config = cfg
	s.packetSize = packetSize
	s.frameLength = s.engine.FrameLengthSamples(cfg.SampleRateHz) * cfg.NumChannels
	s.filter = highpass.New(cfg.SampleRateHz, highpass.DefaultCutoff)
	s.state = Ready

	metrics.ActiveSessions.WithLabelValues("encoder").Inc()
	s.logger.Debug("encoder initialized",
		zap.Int("samplerate", cfg.SampleRateHz),
		zap.Int("channels", cfg.NumChannels),
		zap.Int("bitrate", cfg.BitrateBps),
		zap.Bool("dtx", cfg.EnableDTX),
		zap.Bool("preprocessing", cfg.EnablePreprocessing),
		zap.String("model_path", cfg.ModelPath))

	return nil
}

// Release frees the engine encoder. It is safe to call Release in any
// state and more than once.
func (s *EncoderSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encoder != nil {
		if err := s.encoder.Close(); err != nil {
			s.logger.Warn("unable to close encoder", zap.Error(err))
		}
		s.encoder = nil
	}

	if s.state == Ready {
		metrics.ActiveSessions.WithLabelValues("encoder").Dec()
		s.logger.Debug("encoder released")
	}

	s.state = Uninitialized
	s.filter = nil
	s.config = CodecConfig{}
}

// State returns the lifecycle state of the session.
func (s *EncoderSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Config returns the active configuration.
func (s *EncoderSession) Config() CodecConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// PacketSize returns the size of the packets currently produced.
func (s *EncoderSession) PacketSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packetSize
}

// FrameLength returns the amount of samples consumed per packet.
func (s *EncoderSession) FrameLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLength
}

// SetBitrate changes the bitrate of all subsequent Encode calls. Packets
// which have already been returned are not affected.
func (s *EncoderSession) SetBitrate(bitrate int) error {
	const op = "set bitrate"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return newErrorf(LifecycleError, op, "encoder not initialized")
	}

	size, err := s.framer.PacketSizeForBitrate(bitrate)
	if err != nil {
		return newError(ConfigError, op, err)
	}

	if err := s.encoder.SetBitrate(bitrate); err != nil {
		return newError(ConfigError, op, err)
	}

	s.config.BitrateBps = bitrate
	s.packetSize = size
	s.logger.Debug("bitrate changed", zap.Int("bitrate", bitrate))
	return nil
}

// SetPreprocessing enables or disables the high-pass filter for the
// following Encode calls. Enabling it starts with a fresh filter state.
func (s *EncoderSession) SetPreprocessing(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return newErrorf(LifecycleError, "set preprocessing", "encoder not initialized")
	}

	if enabled && !s.config.EnablePreprocessing {
		s.filter.Reset()
	}
	s.config.EnablePreprocessing = enabled
	return nil
}

// Encode partitions pcm into frames and encodes each of them into one
// packet. A trailing partial frame is zero padded. With DTX enabled,
// silent frames produce no packet at all. On an engine failure the
// packets encoded so far are returned together with the error.
func (s *EncoderSession) Encode(pcm []int16) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.encode("encode", pcm)
}

// EncodeAt is like Encode but accepts audio sampled at sampleRateHz. If
// the rate differs from the session's rate the audio is resampled first.
func (s *EncoderSession) EncodeAt(pcm []int16, sampleRateHz int) ([]byte, error) {
	const op = "encode"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return nil, newErrorf(LifecycleError, op, "encoder not initialized")
	}

	if sampleRateHz <= 0 {
		return nil, newErrorf(ConfigError, op, "invalid sample rate %d Hz", sampleRateHz)
	}

	if sampleRateHz != s.config.SampleRateHz && len(pcm) > 0 {
		resampled, err := resampler.Resample(pcm, s.config.NumChannels,
			sampleRateHz, s.config.SampleRateHz)
		if err != nil {
			return nil, newError(EngineFailure, op, err)
		}
		pcm = resampled
	}

	return s.encode(op, pcm)
}

func (s *EncoderSession) encode(op string, pcm []int16) ([]byte, error) {

	if s.state != Ready {
		return nil, newErrorf(LifecycleError, op, "encoder not initialized")
	}

	pcm = audio.PadToMultiple(pcm, s.frameLength)
	frames := len(pcm) / s.frameLength
	out := make([]byte, 0, frames*s.packetSize)

	for i := 0; i < frames; i++ {
		frame := pcm[i*s.frameLength : (i+1)*s.frameLength]

		if s.config.EnablePreprocessing {
			frame = s.filter.Process(frame)
		}

		packet, err := s.encoder.Encode(frame)
		if err != nil {
			s.logger.Warn("engine failed to encode frame", zap.Int("frame", i), zap.Error(err))
			return out, newError(EngineFailure, op, err)
		}

		if len(packet) == 0 {
			metrics.FramesSuppressedTotal.Inc()
			continue
		}

		if len(packet) != s.packetSize {
			err := errors.New("packet size does not match the bitrate")
			s.logger.Warn("engine produced invalid packet",
				zap.Int("frame", i),
				zap.Int("size", len(packet)),
				zap.Int("expected", s.packetSize))
			return out, newError(EngineFailure, op, err)
		}

		out = append(out, packet...)
		metrics.PacketsEncodedTotal.Inc()
	}

	return out, nil
}
