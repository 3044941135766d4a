package wavWriter

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ga "github.com/go-audio/audio"
	wav "github.com/go-audio/wav"
)

// WavWriter writes 16 bit audio frames into a wav file. The samples are
// written into a temporary file next to the destination which is only
// renamed into place by Close. Abort discards everything written so far,
// so a failed operation never leaves a valid looking wav file behind.
type WavWriter struct {
	sync.Mutex
	path    string
	file    *os.File
	encoder *wav.Encoder
	options Options
	frames  int
	done    bool
}

// NewWavWriter returns a wavWriter to which audio frames can be written to.
func NewWavWriter(path string, opts ...Option) (*WavWriter, error) {

	w := &WavWriter{
		path: path,
		options: Options{
			Channels:   DefaultChannels,
			BitDepth:   DefaultBitDepth,
			Samplerate: DefaultSamplerate,
		},
	}

	for _, o := range opts {
		o(&w.options)
	}

	// only 16 bit samples cross the bridge
	w.options.BitDepth = 16

	if w.options.Channels < 1 || w.options.Samplerate <= 0 {
		return nil, fmt.Errorf("wavWriter: invalid format %d channels at %d Hz",
			w.options.Channels, w.options.Samplerate)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	w.file = f

	w.encoder = wav.NewEncoder(f, w.options.Samplerate,
		w.options.BitDepth, w.options.Channels, 1)

	return w, nil
}

// Write appends interleaved 16 bit samples to the file.
func (w *WavWriter) Write(samples []int16) error {
	w.Lock()
	defer w.Unlock()

	if w.done {
		return fmt.Errorf("wavWriter: %s already closed", w.path)
	}

	if len(samples) == 0 {
		return nil
	}

	buf := ga.IntBuffer{
		Format: &ga.Format{
			SampleRate:  w.options.Samplerate,
			NumChannels: w.options.Channels,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: w.options.BitDepth,
	}

	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := w.encoder.Write(&buf); err != nil {
		return err
	}

	w.frames += len(samples) / w.options.Channels
	return nil
}

// Frames returns the number of frames written so far.
func (w *WavWriter) Frames() int {
	w.Lock()
	defer w.Unlock()
	return w.frames
}

// Close finalizes the wav header and moves the file to its destination.
func (w *WavWriter) Close() error {
	w.Lock()
	defer w.Unlock()

	if w.done {
		return nil
	}
	w.done = true

	if err := w.encoder.Close(); err != nil {
		w.file.Close()
		os.Remove(w.file.Name())
		return err
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.file.Name())
		return err
	}
	if err := os.Rename(w.file.Name(), w.path); err != nil {
		os.Remove(w.file.Name())
		return err
	}
	return nil
}

// Abort discards the temporary file. The destination is left untouched.
func (w *WavWriter) Abort() error {
	w.Lock()
	defer w.Unlock()

	if w.done {
		return nil
	}
	w.done = true

	w.file.Close()
	return os.Remove(w.file.Name())
}
