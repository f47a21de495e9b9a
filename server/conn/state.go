package conn

import (
	"strings"

	"github.com/juju/errors"
)

// State is one of the closed set of named configurations governing how
// actions are interpreted. A connection is always in exactly one State.
type State int

const (
	// StateClosed is the initial state. No data can be sent or received.
	StateClosed State = iota

	// StateListening means the connection is waiting for a handshake. The
	// first received data completes the handshake.
	StateListening

	// StateEstablished means the handshake is complete and data can flow in
	// both directions.
	StateEstablished
)

const (
	stateClosedString      = "Closed"
	stateListeningString   = "Listening"
	stateEstablishedString = "Established"
)

// String returns a string representation of State.
func (s State) String() string {
	switch s {
	case StateClosed:
		return stateClosedString
	case StateListening:
		return stateListeningString
	case StateEstablished:
		return stateEstablishedString
	default:
		return "Unknown"
	}
}

// StateFromString parses a State from its name. Matching is
// case-insensitive so values can come from config files or CLI flags.
func StateFromString(str string) (State, bool) {
	switch strings.ToLower(str) {
	case "closed":
		return StateClosed, true
	case "listening":
		return StateListening, true
	case "established":
		return StateEstablished, true
	default:
		return StateClosed, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	state, ok := StateFromString(string(b))
	if !ok {
		return errors.Errorf("unknown state: %q", string(b))
	}

	*s = state

	return nil
}
