// Package pipeline drives encoder and decoder sessions over buffers and
// files of arbitrary length. Input is processed in chunks of a fixed
// amount of codec frames; a failing chunk stops the pipeline and the
// output produced so far is returned together with the error.
package pipeline

import (
	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audio/resampler"
	"github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/framer"
	"github.com/dh1tw/speechBridge/loss"
	"github.com/dh1tw/speechBridge/session"
)

// Pipeline streams audio through the sessions of one codec engine.
type Pipeline struct {
	engine  audiocodec.Engine
	framer  *framer.Framer
	options Options
	logger  *zap.Logger
}

// New returns a Pipeline for engine.
func New(engine audiocodec.Engine, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		engine: engine,
		options: Options{
			Logger:      zap.NewNop(),
			ChunkFrames: DefaultChunkFrames,
			Backlog:     DefaultBacklog,
		},
	}

	for _, option := range opts {
		option(&p.options)
	}

	fr, err := framer.New(engine.FrameRate(), engine.SupportedBitrates()...)
	if err != nil {
		return nil, err
	}
	p.framer = fr
	p.logger = p.options.Logger.With(zap.String("engine", engine.Name()))

	return p, nil
}

// Engine returns the codec engine of the pipeline.
func (p *Pipeline) Engine() audiocodec.Engine {
	return p.engine
}

// EncodeBuffer encodes pcm sampled at sampleRateHz chunk by chunk with
// enc. If the rate differs from the session's rate, the whole buffer is
// resampled first.
func (p *Pipeline) EncodeBuffer(enc *session.EncoderSession, pcm []int16, sampleRateHz int) ([]byte, error) {

	if len(pcm) == 0 || enc.State() != session.Ready {
		return enc.EncodeAt(pcm, sampleRateHz)
	}

	cfg := enc.Config()
	if sampleRateHz != cfg.SampleRateHz {
		if sampleRateHz <= 0 {
			return enc.EncodeAt(pcm, sampleRateHz)
		}
		resampled, err := resampler.Resample(pcm, cfg.NumChannels, sampleRateHz, cfg.SampleRateHz)
		if err != nil {
			// let the session report the failure
			return enc.EncodeAt(pcm, sampleRateHz)
		}
		pcm = resampled
	}

	out := make([]byte, 0)
	err := p.encodeChunks(enc, pcm, func(packets []byte) error {
		out = append(out, packets...)
		return nil
	})

	return out, err
}

func (p *Pipeline) encodeChunks(enc *session.EncoderSession, pcm []int16, sink func([]byte) error) error {
	chunk := p.options.ChunkFrames * enc.FrameLength()

	for i := 0; i < len(pcm); i += chunk {
		end := i + chunk
		if end > len(pcm) {
			end = len(pcm)
		}
		packets, err := enc.Encode(pcm[i:end])
		if len(packets) > 0 {
			if serr := sink(packets); serr != nil {
				return serr
			}
		}
		if err != nil {
			p.logger.Debug("encode aborted", zap.Int("offset", i), zap.Error(err))
			return err
		}
	}
	return nil
}

// DecodeBuffer decodes stream chunk by chunk with dec. A single simulator
// built from spec classifies all packets of the stream.
func (p *Pipeline) DecodeBuffer(dec *session.DecoderSession, stream []byte, bitrate int, spec loss.Spec) ([]int16, error) {

	sim, err := loss.New(spec)
	if err != nil {
		// the session turns an invalid spec into a ConfigError
		return dec.Decode(stream, bitrate, spec)
	}

	out := make([]int16, 0)
	err = p.decodeChunks(dec, stream, bitrate, sim, func(pcm []int16) error {
		out = append(out, pcm...)
		return nil
	})

	return out, err
}

func (p *Pipeline) decodeChunks(dec *session.DecoderSession, stream []byte, bitrate int,
	sim *loss.Simulator, sink func([]int16) error) error {

	size, err := p.framer.PacketSizeForBitrate(bitrate)
	if err != nil || len(stream)%size != 0 || len(stream) == 0 {
		// the session reports lifecycle, bitrate and truncation errors
		// before anything is decoded
		pcm, err := dec.DecodeWith(stream, bitrate, sim)
		if err == nil && len(pcm) > 0 {
			err = sink(pcm)
		}
		return err
	}

	chunk := p.options.ChunkFrames * size

	for i := 0; i < len(stream); i += chunk {
		end := i + chunk
		if end > len(stream) {
			end = len(stream)
		}
		pcm, err := dec.DecodeWith(stream[i:end], bitrate, sim)
		if len(pcm) > 0 {
			if serr := sink(pcm); serr != nil {
				return serr
			}
		}
		if err != nil {
			p.logger.Debug("decode aborted", zap.Int("offset", i), zap.Error(err))
			return err
		}
	}
	return nil
}
