// Package session implements the stateful encoder and decoder sessions
// around a codec engine. A session is an explicit object which owns the
// engine handle; the zero state is Uninitialized and only Initialize
// moves it to Ready.
package session

import (
	"fmt"

	"github.com/dh1tw/speechBridge/audiocodec"
	"github.com/dh1tw/speechBridge/framer"
)

// State of a session.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// framerFor builds the packet framer for the bitrate table of e.
func framerFor(e audiocodec.Engine) (*framer.Framer, error) {
	return framer.New(e.FrameRate(), e.SupportedBitrates()...)
}
