package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/audio/sinks/wavWriter"
	"github.com/dh1tw/speechBridge/audio/sources/wavReader"
	"github.com/dh1tw/speechBridge/audiocodec/mock"
	"github.com/dh1tw/speechBridge/loss"
	"github.com/dh1tw/speechBridge/session"
)

func newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(mock.Engine{}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func constSignal(n int, v int16) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func writeWav(t *testing.T, path string, samplerate, channels int, samples []int16) {
	t.Helper()
	w, err := wavWriter.NewWavWriter(path,
		wavWriter.Samplerate(samplerate),
		wavWriter.Channels(channels))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(samples); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	p := newPipeline(t, ChunkFrames(7))

	enc := session.NewEncoderSession(mock.Engine{})
	if err := enc.Initialize(session.CodecConfig{SampleRateHz: 16000, BitrateBps: 9200}); err != nil {
		t.Fatal(err)
	}
	defer enc.Release()

	dec := session.NewDecoderSession(mock.Engine{})
	if err := dec.Initialize(session.CodecConfig{SampleRateHz: 16000}); err != nil {
		t.Fatal(err)
	}
	defer dec.Release()

	// 2.5s = 125 frames, spread over chunks of 7 frames
	in := constSignal(40000, -300)
	stream, err := p.EncodeBuffer(enc, in, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(stream) != 125*23 {
		t.Fatalf("expected %d bytes, got %d", 125*23, len(stream))
	}

	out, err := p.DecodeBuffer(dec, stream, 9200, loss.NoLoss())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range out {
		if out[i] != -300 {
			t.Fatalf("sample %d: got %d", i, out[i])
		}
	}
}

func TestChunkedDecodeMatchesSingleCall(t *testing.T) {
	p := newPipeline(t, ChunkFrames(3))

	enc := session.NewEncoderSession(mock.Engine{})
	enc.Initialize(session.CodecConfig{SampleRateHz: 8000})
	defer enc.Release()

	var in []int16
	for i := 0; i < 20; i++ {
		in = append(in, constSignal(160, int16(i*10))...)
	}
	stream, _ := enc.Encode(in)

	spec := loss.Spec{
		Params: loss.Params{PacketLossRate: 0.3, AverageBurstLength: 2},
		Seed:   42,
	}

	chunked := session.NewDecoderSession(mock.Engine{})
	chunked.Initialize(session.CodecConfig{SampleRateHz: 8000})
	defer chunked.Release()
	a, err := p.DecodeBuffer(chunked, stream, 3200, spec)
	if err != nil {
		t.Fatal(err)
	}

	single := session.NewDecoderSession(mock.Engine{})
	single.Initialize(session.CodecConfig{SampleRateHz: 8000})
	defer single.Release()
	b, err := single.Decode(stream, 3200, spec)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != len(b) {
		t.Fatalf("length mismatch %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %d != %d", i, a[i], b[i])
		}
	}
}

func TestBufferErrors(t *testing.T) {
	p := newPipeline(t)

	enc := session.NewEncoderSession(mock.Engine{})
	if _, err := p.EncodeBuffer(enc, constSignal(320, 0), 16000); !errors.Is(err, session.ErrLifecycle) {
		t.Fatalf("expected LifecycleError, got %v", err)
	}

	dec := session.NewDecoderSession(mock.Engine{})
	if _, err := p.DecodeBuffer(dec, nil, 3200, loss.NoLoss()); !errors.Is(err, session.ErrLifecycle) {
		t.Fatalf("expected LifecycleError, got %v", err)
	}
	bad := loss.Spec{Params: loss.Params{PacketLossRate: 2, AverageBurstLength: 1}}
	if _, err := p.DecodeBuffer(dec, make([]byte, 8), 3200, bad); !errors.Is(err, session.ErrLifecycle) {
		t.Fatalf("expected LifecycleError for invalid spec on uninitialized decoder, got %v", err)
	}

	dec.Initialize(session.CodecConfig{SampleRateHz: 16000})
	defer dec.Release()
	if _, err := p.DecodeBuffer(dec, make([]byte, 9), 3200, loss.NoLoss()); !errors.Is(err, session.ErrTruncated) {
		t.Fatalf("expected TruncatedStream, got %v", err)
	}
	if _, err := p.DecodeBuffer(dec, make([]byte, 8), 3200, bad); !errors.Is(err, session.ErrConfig) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestStreamEncoder(t *testing.T) {
	p := newPipeline(t, Backlog(2))

	enc := session.NewEncoderSession(mock.Engine{})
	enc.Initialize(session.CodecConfig{SampleRateHz: 8000})
	defer enc.Release()

	se, err := p.NewStreamEncoder(enc)
	if err != nil {
		t.Fatal(err)
	}

	// 100 + 100 samples = 1 complete frame of 160 samples
	se.Write(constSignal(100, 1))
	se.Write(constSignal(100, 1))
	if err := se.Write(constSignal(100, 1)); !errors.Is(err, ErrBacklogFull) {
		t.Fatalf("expected ErrBacklogFull, got %v", err)
	}

	packets, err := se.Drain()
	if err != nil {
		t.Fatal(err)
	}
	if len(packets) != 8 {
		t.Fatalf("expected 1 packet, got %d bytes", len(packets))
	}
	if se.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", se.Pending())
	}

	// 40 stashed samples are flushed as one padded frame
	packets, err = se.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if len(packets) != 8 {
		t.Fatalf("expected 1 packet on flush, got %d bytes", len(packets))
	}

	packets, err = se.Flush()
	if err != nil || len(packets) != 0 {
		t.Fatalf("second flush must be empty, got %d bytes, %v", len(packets), err)
	}
}

func TestStreamEncoderNeedsReadySession(t *testing.T) {
	p := newPipeline(t)
	if _, err := p.NewStreamEncoder(session.NewEncoderSession(mock.Engine{})); !errors.Is(err, session.ErrLifecycle) {
		t.Fatalf("expected LifecycleError, got %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	encoded := filepath.Join(dir, "in.lyra")
	out := filepath.Join(dir, "out.wav")

	// stereo input, both channels carry the same constant
	stereo := constSignal(2*16000, 2000)
	writeWav(t, in, 16000, 2, stereo)

	p := newPipeline(t, ChunkFrames(10))

	err := p.EncodeFile(FileEncodeRequest{Input: in, Output: encoded, Bitrate: 6000})
	if err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() != 50*15 {
		t.Fatalf("expected %d bytes, got %d", 50*15, fi.Size())
	}

	err = p.DecodeFile(FileDecodeRequest{Input: encoded, Output: out, SampleRateHz: 16000, Bitrate: 6000})
	if err != nil {
		t.Fatal(err)
	}

	buf := readWav(t, out)
	if buf.Channels != 1 || buf.Samplerate != 16000 || len(buf.Data) != 16000 {
		t.Fatalf("unexpected output %d ch, %d Hz, %d samples",
			buf.Channels, buf.Samplerate, len(buf.Data))
	}
	if buf.Data[100] != 2000 {
		t.Fatalf("expected 2000, got %d", buf.Data[100])
	}
}

func TestDecodeFileWithLoss(t *testing.T) {
	dir := t.TempDir()
	encoded := filepath.Join(dir, "in.lyra")
	out := filepath.Join(dir, "out.wav")

	enc := session.NewEncoderSession(mock.Engine{})
	enc.Initialize(session.CodecConfig{SampleRateHz: 8000})
	stream, _ := enc.Encode(constSignal(160*4, 400))
	enc.Release()
	if err := os.WriteFile(encoded, stream, 0644); err != nil {
		t.Fatal(err)
	}

	spec := loss.Spec{Pattern: loss.NewPattern([]int{2}, nil)}
	p := newPipeline(t, ChunkFrames(1))
	err := p.DecodeFile(FileDecodeRequest{
		Input: encoded, Output: out, SampleRateHz: 8000, Bitrate: 3200, Loss: &spec,
	})
	if err != nil {
		t.Fatal(err)
	}

	buf := readWav(t, out)
	if buf.Data[2*160] != 200 || buf.Data[3*160] != 400 {
		t.Fatalf("unexpected frames %d / %d", buf.Data[2*160], buf.Data[3*160])
	}
}

func TestTruncatedFileProducesNoOutput(t *testing.T) {
	dir := t.TempDir()
	encoded := filepath.Join(dir, "broken.lyra")
	out := filepath.Join(dir, "out.wav")

	if err := os.WriteFile(encoded, make([]byte, 20), 0644); err != nil {
		t.Fatal(err)
	}

	p := newPipeline(t)
	err := p.DecodeFile(FileDecodeRequest{Input: encoded, Output: out, SampleRateHz: 16000, Bitrate: 3200})
	if !errors.Is(err, session.ErrTruncated) {
		t.Fatalf("expected TruncatedStream, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the input file, found %d entries", len(entries))
	}
}

func TestFailedEncodeLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.lyra")
	writeWav(t, in, 16000, 1, constSignal(320, 1))

	p := newPipeline(t)
	err := p.EncodeFile(FileEncodeRequest{Input: in, Output: out, Bitrate: 1234})
	if !errors.Is(err, session.ErrConfig) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatal("output must not exist")
	}

	if err := p.EncodeFile(FileEncodeRequest{Input: filepath.Join(dir, "missing.wav"), Output: out}); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func readWav(t *testing.T, path string) audio.Buffer {
	t.Helper()
	r, err := wavReader.NewWavReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	buf, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return buf
}
