package loss

import (
	"math/rand/v2"
)

// Simulator classifies a sequence of packets. The probabilistic model is
// stateful: every call advances the Markov chain by one packet, so packets
// must be classified in stream order. A Simulator is not safe for
// concurrent use.
type Simulator struct {
	pattern    Pattern
	usePattern bool

	rate      float64
	burst     float64
	goodToBad float64
	badToGood float64
	rng       *rand.Rand
	bad       bool
	started   bool
	nextIndex int
}

// New returns a Simulator for spec.
func New(spec Spec) (*Simulator, error) {
	s := &Simulator{}

	if !spec.Pattern.IsEmpty() {
		s.pattern = spec.Pattern
		s.usePattern = true
		return s, nil
	}

	if err := spec.Params.Validate(); err != nil {
		return nil, err
	}

	// Gilbert model: the stationary probability of the bad state is
	// p/(p+r) and the sojourn time in the bad state is geometric with
	// mean 1/r.
	s.rate = spec.PacketLossRate
	s.burst = spec.AverageBurstLength
	if s.rate > 0 && s.rate < 1 {
		// p <= 1 requires a burst length of at least rate/(1-rate). Shorter
		// bursts can not reach the loss rate and are raised to the minimum.
		if m := spec.Params.MinBurstLength(); s.burst < m {
			s.burst = m
		}
		s.badToGood = 1 / s.burst
		s.goodToBad = min(s.rate*s.badToGood/(1-s.rate), 1)
	}
	s.rng = rand.New(rand.NewPCG(spec.Seed, spec.Seed^0x9e3779b97f4a7c15))

	return s, nil
}

// Classify returns the fate of the packet with the given index.
func (s *Simulator) Classify(index int) Class {
	s.nextIndex = index + 1

	if s.usePattern {
		return s.pattern.Classify(index)
	}

	switch {
	case s.rate <= 0:
		return Delivered
	case s.rate >= 1:
		return Lost
	}

	if !s.started {
		s.started = true
		s.bad = s.rng.Float64() < s.rate
	} else if s.bad {
		if s.rng.Float64() < s.badToGood {
			s.bad = false
		}
	} else {
		if s.rng.Float64() < s.goodToBad {
			s.bad = true
		}
	}

	if s.bad {
		return Lost
	}
	return Delivered
}

// Next classifies the packet following the last classified one.
func (s *Simulator) Next() Class {
	return s.Classify(s.nextIndex)
}

// BurstLength returns the mean burst length the model runs with. It
// differs from the requested one when that was too short for the loss
// rate.
func (s *Simulator) BurstLength() float64 {
	return s.burst
}

// NextIndex returns the index which will be classified by Next.
func (s *Simulator) NextIndex() int {
	return s.nextIndex
}

// Summary contains the statistics of a simulated run.
type Summary struct {
	Packets         int
	Lost            int
	Duplicated      int
	LossFraction    float64
	Bursts          int
	MeanBurstLength float64
	MaxBurstLength  int
}

// Measure classifies the next n packets of sim and summarizes the outcome.
func Measure(sim *Simulator, n int) Summary {
	sum := Summary{Packets: n}
	run := 0

	endRun := func() {
		if run == 0 {
			return
		}
		sum.Bursts++
		if run > sum.MaxBurstLength {
			sum.MaxBurstLength = run
		}
		run = 0
	}

	for i := 0; i < n; i++ {
		switch sim.Next() {
		case Lost:
			sum.Lost++
			run++
		case Duplicated:
			sum.Duplicated++
			endRun()
		default:
			endRun()
		}
	}
	endRun()

	if n > 0 {
		sum.LossFraction = float64(sum.Lost) / float64(n)
	}
	if sum.Bursts > 0 {
		sum.MeanBurstLength = float64(sum.Lost) / float64(sum.Bursts)
	}
	return sum
}
