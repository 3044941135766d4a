package wavWriter

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/audio/sources/wavReader"
)

func TestWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")

	w, err := NewWavWriter(path, Samplerate(16000), Channels(1))
	if err != nil {
		t.Fatal(err)
	}

	samples := []int16{0, 100, -100, 32767, -32768, 5}
	if err := w.Write(samples[:3]); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(samples[3:]); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("destination must not exist before Close")
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if w.Frames() != len(samples) {
		t.Fatalf("expected %d frames, got %d", len(samples), w.Frames())
	}

	buf := readWav(t, path)
	if buf.Samplerate != 16000 || buf.Channels != 1 {
		t.Fatalf("unexpected format %d Hz / %d ch", buf.Samplerate, buf.Channels)
	}
	if !reflect.DeepEqual(buf.Data, samples) {
		t.Fatalf("got %v, want %v", buf.Data, samples)
	}
}

func TestAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	w, err := NewWavWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write([]int16{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := w.Abort(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty directory, found %d entries", len(entries))
	}

	if err := w.Write([]int16{1}); err == nil {
		t.Fatal("write after abort must fail")
	}
}

func TestInvalidFormat(t *testing.T) {
	if _, err := NewWavWriter(filepath.Join(t.TempDir(), "x.wav"), Channels(0)); err == nil {
		t.Fatal("expected error for 0 channels")
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
