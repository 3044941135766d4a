package highpass

import (
	"math"
	"testing"
)

func TestRemovesDCOffset(t *testing.T) {
	f := New(16000, DefaultCutoff)

	dc := make([]int16, 320)
	for i := range dc {
		dc[i] = 8000
	}

	var last []int16
	for i := 0; i < 50; i++ {
		last = f.Process(dc)
	}

	for i, s := range last {
		if s > 50 || s < -50 {
			t.Fatalf("sample %d: dc offset not removed, got %d", i, s)
		}
	}
}

func TestPassesSpeechBand(t *testing.T) {
	f := New(16000, DefaultCutoff)

	const n = 1600
	in := make([]int16, n)
	for i := range in {
		in[i] = int16(10000 * math.Sin(2*math.Pi*1000*float64(i)/16000))
	}
	out := f.Process(in)

	var eIn, eOut float64
	for i := n / 2; i < n; i++ {
		eIn += float64(in[i]) * float64(in[i])
		eOut += float64(out[i]) * float64(out[i])
	}
	if ratio := eOut / eIn; ratio < 0.9 {
		t.Fatalf("1kHz tone attenuated too much, energy ratio %v", ratio)
	}
}

func TestStateContinuity(t *testing.T) {
	in := make([]int16, 640)
	for i := range in {
		in[i] = int16(5000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}

	whole := New(16000, DefaultCutoff).Process(in)

	split := New(16000, DefaultCutoff)
	parts := append(split.Process(in[:320]), split.Process(in[320:])...)

	for i := range whole {
		if whole[i] != parts[i] {
			t.Fatalf("sample %d differs: %d != %d", i, whole[i], parts[i])
		}
	}
}
