package opus

import (
	"math"
	"testing"

	ac "github.com/dh1tw/speechBridge/audiocodec"
)

func sine(n, samplerate int, freq float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/float64(samplerate)))
	}
	return out
}

func TestFixedPacketSize(t *testing.T) {
	e := New()
	for _, bitrate := range e.SupportedBitrates() {
		enc, err := e.NewEncoder(ac.Bitrate(bitrate))
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 10; i++ {
			p, err := enc.Encode(sine(320, 16000, 440))
			if err != nil {
				t.Fatal(err)
			}
			if len(p) != packetSize(bitrate) {
				t.Fatalf("bitrate %d: expected %d bytes, got %d",
					bitrate, packetSize(bitrate), len(p))
			}
			if int(p[0]) == 0 || int(p[0]) > len(p)-1 {
				t.Fatalf("invalid payload length %d", p[0])
			}
		}
	}
}

func TestDecodeAndConceal(t *testing.T) {
	e := New()
	enc, err := e.NewEncoder(ac.Bitrate(16000))
	if err != nil {
		t.Fatal(err)
	}
	dec, err := e.NewDecoder()
	if err != nil {
		t.Fatal(err)
	}

	p, err := enc.Encode(sine(320, 16000, 300))
	if err != nil {
		t.Fatal(err)
	}
	frame, err := dec.Decode(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 320 {
		t.Fatalf("expected 320 samples, got %d", len(frame))
	}

	frame, err = dec.Decode(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(frame) != 320 {
		t.Fatalf("expected 320 concealed samples, got %d", len(frame))
	}

	if _, err := dec.Decode(make([]byte, 40)); err == nil {
		t.Fatal("expected error for zero payload length")
	}
}

func TestDTX(t *testing.T) {
	enc, err := New().NewEncoder(ac.DTX(true))
	if err != nil {
		t.Fatal(err)
	}
	p, err := enc.Encode(make([]int16, 320))
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Fatal("silent frame should be suppressed")
	}
}

func TestUnsupported(t *testing.T) {
	e := New()
	if _, err := e.NewEncoder(ac.Samplerate(44100)); err == nil {
		t.Fatal("expected error for 44100 Hz")
	}
	if _, err := e.NewEncoder(ac.Bitrate(3200)); err == nil {
		t.Fatal("expected error for 3200 bps")
	}
}
