package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/audio/resampler"
	"github.com/dh1tw/speechBridge/audio/sinks/wavWriter"
	"github.com/dh1tw/speechBridge/audio/sources/wavReader"
	"github.com/dh1tw/speechBridge/loss"
	"github.com/dh1tw/speechBridge/session"
	"github.com/dh1tw/speechBridge/utils"
)

// FileEncodeRequest describes the encoding of a wav file into a raw
// packet file.
type FileEncodeRequest struct {
	Input         string `json:"input"`
	Output        string `json:"output"`
	Bitrate       int    `json:"bitrate"`
	Preprocessing bool   `json:"preprocessing"`
	DTX           bool   `json:"dtx"`
	ModelPath     string `json:"model_path"`
}

// FileDecodeRequest describes the decoding of a raw packet file into a
// 16 bit mono wav file. A nil Loss decodes without simulated loss.
type FileDecodeRequest struct {
	Input        string     `json:"input"`
	Output       string     `json:"output"`
	SampleRateHz int        `json:"samplerate"`
	Bitrate      int        `json:"bitrate"`
	ModelPath    string     `json:"model_path"`
	Loss         *loss.Spec `json:"-"`
}

// EncodeFile reads a wav file, mixes it down to mono and writes the
// encoded packets to the output file. The output file only appears if
// the whole file has been encoded successfully. Files with a sample rate
// the engine does not support are resampled to the engine's default rate.
func (p *Pipeline) EncodeFile(req FileEncodeRequest) error {

	log := p.logger.With(zap.String("input", req.Input), zap.String("output", req.Output))

	r, err := wavReader.NewWavReader(req.Input,
		wavReader.FramesPerBuffer(p.options.ChunkFrames*p.engine.FrameLengthSamples(48000)))
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", req.Input, err)
	}
	defer r.Close()

	cfg := session.CodecConfig{
		SampleRateHz:        r.Samplerate(),
		NumChannels:         1,
		BitrateBps:          req.Bitrate,
		EnableDTX:           req.DTX,
		EnablePreprocessing: req.Preprocessing,
		ModelPath:           req.ModelPath,
	}

	resample := !utils.IntInSlice(r.Samplerate(), p.engine.SupportedSamplerates())
	if resample {
		cfg.SampleRateHz = session.DefaultConfig(p.engine).SampleRateHz
		log.Info("resampling input",
			zap.Int("from", r.Samplerate()),
			zap.Int("to", cfg.SampleRateHz))
	}

	enc := session.NewEncoderSession(p.engine, session.Logger(p.logger))
	if err := enc.Initialize(cfg); err != nil {
		return err
	}
	defer enc.Release()

	out, err := newAtomicFile(req.Output)
	if err != nil {
		return err
	}

	write := func(packets []byte) error {
		_, err := out.Write(packets)
		return err
	}

	if resample {
		err = p.encodeResampled(enc, r, cfg.SampleRateHz, write)
	} else {
		err = p.encodeStreaming(enc, r, write)
	}
	if err != nil {
		out.Abort()
		return err
	}

	if err := out.Commit(); err != nil {
		return err
	}

	log.Debug("file encoded", zap.Int("bytes", out.written))
	return nil
}

// encodeStreaming feeds the wav file chunk by chunk through a
// StreamEncoder so that partial frames are carried over between chunks.
func (p *Pipeline) encodeStreaming(enc *session.EncoderSession, r *wavReader.WavReader, sink func([]byte) error) error {
	se, err := p.NewStreamEncoder(enc)
	if err != nil {
		return err
	}

	for {
		buf, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if err := se.Write(audio.DownmixToMono(buf.Channels, buf.Data)); err != nil {
			return err
		}
		packets, err := se.Drain()
		if len(packets) > 0 {
			if serr := sink(packets); serr != nil {
				return serr
			}
		}
		if err != nil {
			return err
		}
	}

	packets, err := se.Flush()
	if len(packets) > 0 {
		if serr := sink(packets); serr != nil {
			return serr
		}
	}
	return err
}

func (p *Pipeline) encodeResampled(enc *session.EncoderSession, r *wavReader.WavReader, to int, sink func([]byte) error) error {
	buf, err := r.ReadAll()
	if err != nil {
		return err
	}

	mono := audio.DownmixToMono(buf.Channels, buf.Data)
	pcm, err := resampler.Resample(mono, 1, buf.Samplerate, to)
	if err != nil {
		return err
	}
	p.logger.Debug("input resampled",
		zap.Int("frames", buf.Frames()),
		zap.Int("resampled", len(pcm)))

	return p.encodeChunks(enc, pcm, sink)
}

// DecodeFile decodes a raw packet file into a 16 bit mono wav file. A
// single simulator classifies the packets of the whole file. The output
// file only appears if the whole file has been decoded successfully.
func (p *Pipeline) DecodeFile(req FileDecodeRequest) error {

	log := p.logger.With(zap.String("input", req.Input), zap.String("output", req.Output))

	spec := loss.NoLoss()
	if req.Loss != nil {
		spec = *req.Loss
	}

	dec := session.NewDecoderSession(p.engine, session.Logger(p.logger))
	err := dec.Initialize(session.CodecConfig{
		SampleRateHz: req.SampleRateHz,
		NumChannels:  1,
		ModelPath:    req.ModelPath,
	})
	if err != nil {
		return err
	}
	defer dec.Release()

	stream, err := os.ReadFile(req.Input)
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", req.Input, err)
	}

	sim, err := loss.New(spec)
	if err != nil {
		_, err = dec.Decode(nil, req.Bitrate, spec)
		return err
	}

	size, err := p.framer.PacketSizeForBitrate(req.Bitrate)
	if err != nil || len(stream)%size != 0 {
		// fail before the output file is created
		_, err = dec.DecodeWith(stream, req.Bitrate, sim)
		return err
	}

	w, err := wavWriter.NewWavWriter(req.Output,
		wavWriter.Samplerate(req.SampleRateHz),
		wavWriter.Channels(1))
	if err != nil {
		return err
	}

	err = p.decodeChunks(dec, stream, req.Bitrate, sim, w.Write)
	if err != nil {
		w.Abort()
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	st := dec.Stats()
	log.Debug("file decoded",
		zap.Int("frames", st.Frames),
		zap.Int("samples", w.Frames()),
		zap.Int("delivered", st.Delivered),
		zap.Int("lost", st.Lost),
		zap.Int("duplicated", st.Duplicated))

	return nil
}

// atomicFile is written into a temporary file next to its destination
// and renamed into place on Commit.
type atomicFile struct {
	path    string
	file    *os.File
	written int
}

func newAtomicFile(path string) (*atomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &atomicFile{path: path, file: f}, nil
}

func (a *atomicFile) Write(b []byte) (int, error) {
	n, err := a.file.Write(b)
	a.written += n
	return n, err
}

func (a *atomicFile) Commit() error {
	if err := a.file.Close(); err != nil {
		os.Remove(a.file.Name())
		return err
	}
	if err := os.Rename(a.file.Name(), a.path); err != nil {
		os.Remove(a.file.Name())
		return err
	}
	return nil
}

func (a *atomicFile) Abort() {
	a.file.Close()
	os.Remove(a.file.Name())
}
