// Package bridge is the call surface exposed to host applications. Every
// method is blocking and reports failure through a sentinel value (false
// or nil); the cause of a failure is logged, never returned. Panics are
// recovered and reported as failure.
package bridge

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/loss"
	"github.com/dh1tw/speechBridge/metrics"
	"github.com/dh1tw/speechBridge/pipeline"
	"github.com/dh1tw/speechBridge/session"
)

// Bridge owns one encoder and one decoder session. The two directions are
// independent and may be used concurrently.
type Bridge struct {
	encMu    sync.Mutex
	decMu    sync.Mutex
	engine   audiocodec.Engine
	pipeline *pipeline.Pipeline
	encoder  *session.EncoderSession
	decoder  *session.DecoderSession
	options  Options
	logger   *zap.Logger
}

// New returns a Bridge for engine with both sessions uninitialized.
func New(engine audiocodec.Engine, opts ...Option) (*Bridge, error) {
	b := &Bridge{
		engine: engine,
		options: Options{
			Logger:      zap.NewNop(),
			DefaultLoss: loss.NoLoss(),
			ChunkFrames: pipeline.DefaultChunkFrames,
		},
	}

	for _, option := range opts {
		option(&b.options)
	}

	if err := b.options.DefaultLoss.Validate(); err != nil && b.options.DefaultLoss.Pattern.IsEmpty() {
		return nil, err
	}

	b.logger = b.options.Logger.With(zap.String("engine", engine.Name()))

	p, err := pipeline.New(engine,
		pipeline.Logger(b.logger),
		pipeline.ChunkFrames(b.options.ChunkFrames))
	if err != nil {
		return nil, err
	}

	b.pipeline = p
	b.encoder = session.NewEncoderSession(engine, session.Logger(b.logger))
	b.decoder = session.NewDecoderSession(engine, session.Logger(b.logger))

	return b, nil
}

// Engine returns the codec engine of the bridge.
func (b *Bridge) Engine() audiocodec.Engine {
	return b.engine
}

// call executes f, logs its outcome and converts a panic into a failure.
func (b *Bridge) call(op string, f func() error, fields ...zap.Field) (ok bool) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("recovered from panic",
				append(fields, zap.String("op", op), zap.Any("panic", r), zap.Stack("stack"))...)
			ok = false
		}
		outcome := "success"
		if !ok {
			outcome = "failure"
		}
		metrics.BoundaryCallsTotal.WithLabelValues(op, outcome).Inc()
		metrics.CallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if err := f(); err != nil {
		b.logger.Warn(op+" failed", append(fields, zap.Error(err))...)
		return false
	}

	b.logger.Debug(op, fields...)
	return true
}

// InitializeEncoder opens the encoder session. It fails if the encoder
// is already initialized or the parameters are not supported.
func (b *Bridge) InitializeEncoder(sampleRateHz, numChannels, bitrate int, enableDtx bool, modelPath string) bool {
	return b.call("InitializeEncoder", func() error {
		b.encMu.Lock()
		defer b.encMu.Unlock()
		return b.encoder.Initialize(session.CodecConfig{
			SampleRateHz: sampleRateHz,
			NumChannels:  numChannels,
			BitrateBps:   bitrate,
			EnableDTX:    enableDtx,
			ModelPath:    modelPath,
		})
	},
		zap.Int("samplerate", sampleRateHz),
		zap.Int("channels", numChannels),
		zap.Int("bitrate", bitrate),
		zap.Bool("dtx", enableDtx),
		zap.String("model_path", modelPath))
}

// ReleaseEncoder closes the encoder session. Releasing an uninitialized
// encoder is a no-op.
func (b *Bridge) ReleaseEncoder() {
	b.call("ReleaseEncoder", func() error {
		b.encMu.Lock()
		defer b.encMu.Unlock()
		b.encoder.Release()
		return nil
	})
}

// SetBitrate changes the bitrate of the following EncodeBuffer calls. It
// fails if the encoder is not initialized or the bitrate is not supported.
func (b *Bridge) SetBitrate(bitrate int) bool {
	return b.call("SetBitrate", func() error {
		b.encMu.Lock()
		defer b.encMu.Unlock()
		return b.encoder.SetBitrate(bitrate)
	}, zap.Int("bitrate", bitrate))
}

// EncodeBuffer encodes pcm (sampled at sampleRateHz) into a packet
// stream. It returns nil on failure and an empty slice for empty input.
func (b *Bridge) EncodeBuffer(pcm []int16, sampleRateHz int, enablePreprocessing bool) []byte {
	var out []byte

	ok := b.call("EncodeBuffer", func() error {
		b.encMu.Lock()
		defer b.encMu.Unlock()

		if err := b.encoder.SetPreprocessing(enablePreprocessing); err != nil {
			return err
		}

		res, err := b.pipeline.EncodeBuffer(b.encoder, audio.Copy(pcm), sampleRateHz)
		if err != nil {
			return err
		}
		out = res
		return nil
	},
		zap.Int("samples", len(pcm)),
		zap.Int("samplerate", sampleRateHz),
		zap.Bool("preprocessing", enablePreprocessing))

	if !ok {
		return nil
	}
	return out
}

// InitializeDecoder opens the decoder session.
func (b *Bridge) InitializeDecoder(sampleRateHz, numChannels int, modelPath string) bool {
	return b.call("InitializeDecoder", func() error {
		b.decMu.Lock()
		defer b.decMu.Unlock()
		return b.decoder.Initialize(session.CodecConfig{
			SampleRateHz: sampleRateHz,
			NumChannels:  numChannels,
			ModelPath:    modelPath,
		})
	},
		zap.Int("samplerate", sampleRateHz),
		zap.Int("channels", numChannels),
		zap.String("model_path", modelPath))
}

// ReleaseDecoder closes the decoder session.
func (b *Bridge) ReleaseDecoder() {
	b.call("ReleaseDecoder", func() error {
		b.decMu.Lock()
		defer b.decMu.Unlock()
		b.decoder.Release()
		return nil
	})
}

// DecodeBuffer decodes a packet stream under the default loss
// simulation. It returns nil on failure and an empty slice for an empty
// stream.
func (b *Bridge) DecodeBuffer(packets []byte, bitrate int) []int16 {
	return b.decodeBuffer("DecodeBuffer", packets, bitrate, b.options.DefaultLoss)
}

// DecodeBufferWithLoss is like DecodeBuffer with an explicit loss
// simulation.
func (b *Bridge) DecodeBufferWithLoss(packets []byte, bitrate int, spec loss.Spec) []int16 {
	return b.decodeBuffer("DecodeBufferWithLoss", packets, bitrate, spec)
}

func (b *Bridge) decodeBuffer(op string, packets []byte, bitrate int, spec loss.Spec) []int16 {
	var out []int16

	ok := b.call(op, func() error {
		b.decMu.Lock()
		defer b.decMu.Unlock()

		stream := make([]byte, len(packets))
		copy(stream, packets)

		res, err := b.pipeline.DecodeBuffer(b.decoder, stream, bitrate, spec)
		if err != nil {
			return err
		}
		out = res
		return nil
	},
		zap.Int("bytes", len(packets)),
		zap.Int("bitrate", bitrate),
		zap.Float64("loss_rate", spec.PacketLossRate),
		zap.Float64("burst_length", spec.AverageBurstLength),
		zap.Ints("lost", spec.Pattern.LostIndices()),
		zap.Ints("duplicated", spec.Pattern.DuplicatedIndices()))

	if !ok {
		return nil
	}
	return out
}

// DecoderStats returns the packet counters of the decoder session.
func (b *Bridge) DecoderStats() session.DecoderStats {
	return b.decoder.Stats()
}

// EncodeFile encodes a wav file into a raw packet file with a private
// encoder session. The bridge's own encoder session is not involved.
func (b *Bridge) EncodeFile(inputPath, outputPath string, bitrate int, enablePreprocessing, enableDtx bool, modelPath string) bool {
	return b.call("EncodeFile", func() error {
		return b.pipeline.EncodeFile(pipeline.FileEncodeRequest{
			Input:         inputPath,
			Output:        outputPath,
			Bitrate:       bitrate,
			Preprocessing: enablePreprocessing,
			DTX:           enableDtx,
			ModelPath:     modelPath,
		})
	},
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("bitrate", bitrate),
		zap.Bool("preprocessing", enablePreprocessing),
		zap.Bool("dtx", enableDtx),
		zap.String("model_path", modelPath))
}

// DecodeFile decodes a raw packet file into a 16 bit mono wav file under
// the default loss simulation.
func (b *Bridge) DecodeFile(inputPath, outputPath string, sampleRateHz, bitrate int, modelPath string) bool {
	spec := b.options.DefaultLoss
	return b.call("DecodeFile", func() error {
		return b.pipeline.DecodeFile(pipeline.FileDecodeRequest{
			Input:        inputPath,
			Output:       outputPath,
			SampleRateHz: sampleRateHz,
			Bitrate:      bitrate,
			ModelPath:    modelPath,
			Loss:         &spec,
		})
	},
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("samplerate", sampleRateHz),
		zap.Int("bitrate", bitrate),
		zap.String("model_path", modelPath))
}
