package pipeline

import (
	"errors"
	"sync"

	ringBuffer "github.com/dh1tw/golang-ring"

	"github.com/dh1tw/speechBridge/audio"
	"github.com/dh1tw/speechBridge/session"
)

// ErrBacklogFull is returned by StreamEncoder.Write when the queued audio
// has not been drained in time.
var ErrBacklogFull = errors.New("pipeline: stream backlog full")

// StreamEncoder accepts PCM in writes of arbitrary size and encodes only
// complete codec frames. Samples of an incomplete frame are kept until
// the next write or until Flush. Write and Drain may be called from
// different goroutines.
type StreamEncoder struct {
	sync.Mutex
	enc         *session.EncoderSession
	ring        ringBuffer.Ring
	stash       []int16
	frameLength int
}

// NewStreamEncoder returns a StreamEncoder on top of an initialized
// encoder session.
func (p *Pipeline) NewStreamEncoder(enc *session.EncoderSession) (*StreamEncoder, error) {
	if enc.State() != session.Ready {
		// surface the session's lifecycle error
		_, err := enc.Encode(nil)
		return nil, err
	}

	s := &StreamEncoder{
		enc:         enc,
		ring:        ringBuffer.Ring{},
		frameLength: enc.FrameLength(),
	}
	s.ring.SetCapacity(p.options.Backlog)

	return s, nil
}

// Write queues a copy of pcm.
func (s *StreamEncoder) Write(pcm []int16) error {
	s.Lock()
	defer s.Unlock()

	if len(pcm) == 0 {
		return nil
	}

	if s.ring.Length() >= s.ring.Capacity() {
		return ErrBacklogFull
	}

	s.ring.Enqueue(audio.Copy(pcm))
	return nil
}

// Pending returns the amount of queued writes.
func (s *StreamEncoder) Pending() int {
	s.Lock()
	defer s.Unlock()
	return s.ring.Length()
}

// Drain encodes all complete frames of the queued audio and returns the
// packets.
func (s *StreamEncoder) Drain() ([]byte, error) {
	s.Lock()
	defer s.Unlock()

	for s.ring.Length() > 0 {
		data := s.ring.Dequeue()
		if data == nil {
			break
		}
		s.stash = append(s.stash, data.([]int16)...)
	}

	n := len(s.stash) / s.frameLength * s.frameLength
	if n == 0 {
		return []byte{}, nil
	}

	packets, err := s.enc.Encode(s.stash[:n])
	s.stash = append(s.stash[:0], s.stash[n:]...)
	return packets, err
}

// Flush drains the queue and encodes the remaining incomplete frame, zero
// padded.
func (s *StreamEncoder) Flush() ([]byte, error) {
	packets, err := s.Drain()
	if err != nil {
		return packets, err
	}

	s.Lock()
	defer s.Unlock()

	if len(s.stash) == 0 {
		return packets, nil
	}

	rest, err := s.enc.Encode(s.stash)
	s.stash = s.stash[:0]
	return append(packets, rest...), err
}
