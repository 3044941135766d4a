package wavReader

import (
	"errors"
	"fmt"
	"io"
	"os"

	ga "github.com/go-audio/audio"
	wav "github.com/go-audio/wav"

	"github.com/dh1tw/speechBridge/audio"
)

// ErrInvalidFile is returned if the file is not a valid PCM WAV file.
var ErrInvalidFile = errors.New("wavReader: invalid WAV file")

// WavReader reads audio frames from an uncompressed PCM wav file and
// converts them into 16 bit samples.
type WavReader struct {
	options    Options
	file       *os.File
	dec        *wav.Decoder
	samplerate int
	channels   int
	bitDepth   int
	buf        *ga.IntBuffer
}

// NewWavReader opens a wav file from disk and validates its header.
func NewWavReader(path string, opts ...Option) (*WavReader, error) {

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(f)

	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	w := &WavReader{
		options: Options{
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		file:       f,
		dec:        dec,
		samplerate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
	}

	for _, o := range opts {
		o(&w.options)
	}

	switch w.bitDepth {
	case 8, 16, 24, 32:
	default:
		f.Close()
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidFile, w.bitDepth)
	}

	if w.channels < 1 || w.samplerate <= 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidFile, w.channels, w.samplerate)
	}

	if w.options.FramesPerBuffer <= 0 {
		w.options.FramesPerBuffer = DefaultFramesPerBuffer
	}

	w.buf = &ga.IntBuffer{
		Data:   make([]int, w.options.FramesPerBuffer*w.channels),
		Format: dec.Format(),
	}

	return w, nil
}

// Samplerate returns the sample rate of the file.
func (w *WavReader) Samplerate() int {
	return w.samplerate
}

// Channels returns the amount of interleaved channels of the file.
func (w *WavReader) Channels() int {
	return w.channels
}

// Read returns the next buffer with up to FramesPerBuffer frames. At the end
// of the file io.EOF is returned.
func (w *WavReader) Read() (audio.Buffer, error) {
	w.buf.Data = w.buf.Data[:cap(w.buf.Data)]

	n, err := w.dec.PCMBuffer(w.buf)
	if err != nil {
		return audio.Buffer{}, err
	}
	if n == 0 {
		return audio.Buffer{}, io.EOF
	}

	return audio.Buffer{
		Data:       w.toInt16(w.buf.Data[:n]),
		Samplerate: w.samplerate,
		Channels:   w.channels,
	}, nil
}

// ReadAll reads all remaining frames of the file into a single buffer.
func (w *WavReader) ReadAll() (audio.Buffer, error) {
	res := audio.Buffer{
		Data:       []int16{},
		Samplerate: w.samplerate,
		Channels:   w.channels,
	}
	for {
		buf, err := w.Read()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return audio.Buffer{}, err
		}
		res.Data = append(res.Data, buf.Data...)
	}
}

// Close closes the underlying file.
func (w *WavReader) Close() error {
	return w.file.Close()
}

// toInt16 scales the decoded integer samples to 16 bit.
func (w *WavReader) toInt16(data []int) []int16 {
	res := make([]int16, len(data))
	for i, s := range data {
		switch w.bitDepth {
		case 8:
			// 8 bit wav samples are unsigned
			res[i] = int16((s - 128) << 8)
		case 24:
			res[i] = int16(s >> 8)
		case 32:
			res[i] = int16(s >> 16)
		default:
			res[i] = int16(s)
		}
	}
	return res
}
