package loss

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestPatternOverridesModel(t *testing.T) {
	spec := Spec{
		Params: Params{
			PacketLossRate:     0.9,
			AverageBurstLength: 4,
		},
		Pattern: NewPattern([]int{3, 7}, []int{5}),
		Seed:    42,
	}

	want := []Class{Delivered, Delivered, Delivered, Lost, Delivered,
		Duplicated, Delivered, Lost, Delivered, Delivered}

	for run := 0; run < 3; run++ {
		sim, err := New(spec)
		if err != nil {
			t.Fatal(err)
		}
		got := make([]Class, len(want))
		for i := range got {
			got[i] = sim.Classify(i)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: got %v, want %v", run, got, want)
		}
	}
}

func TestPatternIsIndexed(t *testing.T) {
	sim, err := New(Spec{Pattern: NewPattern([]int{3, 7}, []int{5})})
	if err != nil {
		t.Fatal(err)
	}
	// out of order lookups must not depend on any internal state
	if c := sim.Classify(7); c != Lost {
		t.Errorf("classify(7): got %v", c)
	}
	if c := sim.Classify(5); c != Duplicated {
		t.Errorf("classify(5): got %v", c)
	}
	if c := sim.Classify(3); c != Lost {
		t.Errorf("classify(3): got %v", c)
	}
}

func TestLostWinsOverDuplicated(t *testing.T) {
	p := NewPattern([]int{2}, []int{2, -1})
	if c := p.Classify(2); c != Lost {
		t.Fatalf("got %v, want lost", c)
	}
	if got := p.DuplicatedIndices(); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("negative index must be dropped, got %v", got)
	}
}

func TestZeroRateAlwaysDelivered(t *testing.T) {
	for _, burst := range []float64{1, 3, 50} {
		sim, err := New(Spec{Params: Params{PacketLossRate: 0, AverageBurstLength: burst}, Seed: 7})
		if err != nil {
			t.Fatal(err)
		}
		sum := Measure(sim, 10000)
		if sum.Lost != 0 || sum.Duplicated != 0 {
			t.Fatalf("burst %v: expected no loss, got %+v", burst, sum)
		}
	}
}

func TestFullRateAlwaysLost(t *testing.T) {
	sim, err := New(Spec{Params: Params{PacketLossRate: 1, AverageBurstLength: 1}})
	if err != nil {
		t.Fatal(err)
	}
	sum := Measure(sim, 1000)
	if sum.Lost != 1000 {
		t.Fatalf("expected all packets lost, got %d", sum.Lost)
	}
}

func TestConvergence(t *testing.T) {
	tests := []struct {
		rate  float64
		burst float64
	}{
		{0.05, 1},
		{0.1, 2},
		{0.2, 3},
		{0.3, 1.5},
	}

	for _, tc := range tests {
		sim, err := New(Spec{
			Params: Params{PacketLossRate: tc.rate, AverageBurstLength: tc.burst},
			Seed:   1,
		})
		if err != nil {
			t.Fatal(err)
		}
		sum := Measure(sim, 200000)
		if math.Abs(sum.LossFraction-tc.rate) > 0.02 {
			t.Errorf("rate %v: lost fraction %v out of tolerance", tc.rate, sum.LossFraction)
		}
		if math.Abs(sum.MeanBurstLength-tc.burst) > 0.1*tc.burst {
			t.Errorf("rate %v burst %v: mean burst length %v out of tolerance",
				tc.rate, tc.burst, sum.MeanBurstLength)
		}
	}
}

func TestShortBurstRaisedToReachRate(t *testing.T) {
	tests := []struct {
		rate     float64
		burst    float64
		minBurst float64
	}{
		{0.8, 1, 4},
		{0.6, 1, 1.5},
		{0.9, 2, 9},
	}

	for _, tc := range tests {
		sim, err := New(Spec{
			Params: Params{PacketLossRate: tc.rate, AverageBurstLength: tc.burst},
			Seed:   7,
		})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(sim.BurstLength()-tc.minBurst) > 1e-9 {
			t.Errorf("rate %v burst %v: expected burst length %v, got %v",
				tc.rate, tc.burst, tc.minBurst, sim.BurstLength())
		}
		sum := Measure(sim, 200000)
		if math.Abs(sum.LossFraction-tc.rate) > 0.02 {
			t.Errorf("rate %v burst %v: lost fraction %v out of tolerance",
				tc.rate, tc.burst, sum.LossFraction)
		}
		if math.Abs(sum.MeanBurstLength-tc.minBurst) > 0.1*tc.minBurst {
			t.Errorf("rate %v burst %v: mean burst length %v out of tolerance",
				tc.rate, tc.burst, sum.MeanBurstLength)
		}
	}
}

func TestMinBurstLength(t *testing.T) {
	tests := []struct {
		p    Params
		want float64
	}{
		{Params{PacketLossRate: 0}, 1},
		{Params{PacketLossRate: 0.2}, 1},
		{Params{PacketLossRate: 0.5}, 1},
		{Params{PacketLossRate: 0.75}, 3},
		{Params{PacketLossRate: 1}, 1},
	}
	for _, tc := range tests {
		if got := tc.p.MinBurstLength(); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("rate %v: got %v, want %v", tc.p.PacketLossRate, got, tc.want)
		}
	}
}

func TestSameSeedSameSequence(t *testing.T) {
	spec := Spec{Params: Params{PacketLossRate: 0.25, AverageBurstLength: 2}, Seed: 99}

	a, _ := New(spec)
	b, _ := New(spec)
	for i := 0; i < 5000; i++ {
		if ca, cb := a.Next(), b.Next(); ca != cb {
			t.Fatalf("packet %d: %v != %v", i, ca, cb)
		}
	}

	spec.Seed = 100
	c, _ := New(spec)
	a, _ = New(Spec{Params: spec.Params, Seed: 99})
	differs := false
	for i := 0; i < 5000; i++ {
		if a.Next() != c.Next() {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("different seeds produced identical sequences")
	}
}

func TestInvalidParams(t *testing.T) {
	tests := []Params{
		{PacketLossRate: -0.1, AverageBurstLength: 1},
		{PacketLossRate: 1.1, AverageBurstLength: 1},
		{PacketLossRate: 0.1, AverageBurstLength: 0.5},
	}
	for _, p := range tests {
		if _, err := New(Spec{Params: p}); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%+v: expected ErrInvalidParams, got %v", p, err)
		}
	}
}

func TestNextIndex(t *testing.T) {
	sim, _ := New(NoLoss())
	for i := 0; i < 3; i++ {
		sim.Next()
	}
	if sim.NextIndex() != 3 {
		t.Fatalf("expected next index 3, got %d", sim.NextIndex())
	}
	if !NoLoss().IsLossless() {
		t.Fatal("NoLoss must be lossless")
	}
}

func TestClassString(t *testing.T) {
	if Lost.String() != "lost" || Duplicated.String() != "duplicated" || Delivered.String() != "delivered" {
		t.Fatal("unexpected class names")
	}
}
