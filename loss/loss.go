// Package loss simulates the delivery of packets over a lossy channel. It
// is used offline to evaluate how a decoder copes with missing and
// duplicated packets; it is not a network stack.
//
// Either an explicit Pattern decides the fate of every packet index, or a
// two state (Gilbert) Markov model produces bursty losses whose long-run
// rate and mean burst length match the configured Params.
package loss

import (
	"errors"
	"fmt"
	"sort"
)

// Class is the classification of a single packet.
type Class int

const (
	// Delivered packets reach the decoder unaltered.
	Delivered Class = iota
	// Lost packets never reach the decoder; it has to conceal them.
	Lost
	// Duplicated slots receive the previously delivered packet again.
	Duplicated
)

func (c Class) String() string {
	switch c {
	case Delivered:
		return "delivered"
	case Lost:
		return "lost"
	case Duplicated:
		return "duplicated"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ErrInvalidParams is returned for loss parameters out of range.
var ErrInvalidParams = errors.New("loss: invalid parameters")

// Params parameterize the probabilistic loss model.
type Params struct {
	// PacketLossRate is the unconditional probability that a packet is
	// lost [0...1].
	PacketLossRate float64
	// AverageBurstLength is the mean number of consecutive lost packets
	// (>= 1).
	AverageBurstLength float64
}

// Validate checks that the parameters are within their valid ranges.
func (p Params) Validate() error {
	if p.PacketLossRate < 0 || p.PacketLossRate > 1 {
		return fmt.Errorf("%w: packet loss rate %v not within [0, 1]", ErrInvalidParams, p.PacketLossRate)
	}
	if p.AverageBurstLength < 1 {
		return fmt.Errorf("%w: average burst length %v must be >= 1", ErrInvalidParams, p.AverageBurstLength)
	}
	return nil
}

// MinBurstLength returns the shortest mean burst length with which the
// Gilbert model can reach the packet loss rate.
func (p Params) MinBurstLength() float64 {
	if p.PacketLossRate <= 0 || p.PacketLossRate >= 1 {
		return 1
	}
	return max(p.PacketLossRate/(1-p.PacketLossRate), 1)
}

// Pattern is a fixed set of lost and duplicated packet indices. A non
// empty pattern replaces the probabilistic model entirely.
type Pattern struct {
	Lost       map[int]struct{}
	Duplicated map[int]struct{}
}

// NewPattern builds a Pattern from index lists. Negative indices are ignored.
func NewPattern(lost, duplicated []int) Pattern {
	p := Pattern{
		Lost:       make(map[int]struct{}, len(lost)),
		Duplicated: make(map[int]struct{}, len(duplicated)),
	}
	for _, i := range lost {
		if i >= 0 {
			p.Lost[i] = struct{}{}
		}
	}
	for _, i := range duplicated {
		if i >= 0 {
			p.Duplicated[i] = struct{}{}
		}
	}
	return p
}

// IsEmpty reports if the pattern contains no index at all.
func (p Pattern) IsEmpty() bool {
	return len(p.Lost) == 0 && len(p.Duplicated) == 0
}

// Classify looks up index in the pattern. An index listed as lost and as
// duplicated is lost.
func (p Pattern) Classify(index int) Class {
	if _, ok := p.Lost[index]; ok {
		return Lost
	}
	if _, ok := p.Duplicated[index]; ok {
		return Duplicated
	}
	return Delivered
}

// LostIndices returns the sorted lost indices.
func (p Pattern) LostIndices() []int {
	return sortedKeys(p.Lost)
}

// DuplicatedIndices returns the sorted duplicated indices.
func (p Pattern) DuplicatedIndices() []int {
	return sortedKeys(p.Duplicated)
}

func sortedKeys(m map[int]struct{}) []int {
	res := make([]int, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Ints(res)
	return res
}

// Spec fully describes a simulated channel.
type Spec struct {
	Params
	Pattern Pattern
	// Seed initializes the random source of the probabilistic model.
	Seed uint64
}

// NoLoss returns a Spec under which every packet is delivered.
func NoLoss() Spec {
	return Spec{
		Params: Params{
			PacketLossRate:     0,
			AverageBurstLength: 1,
		},
	}
}

// IsLossless reports if every packet will be delivered under s.
func (s Spec) IsLossless() bool {
	return s.Pattern.IsEmpty() && s.PacketLossRate == 0
}
