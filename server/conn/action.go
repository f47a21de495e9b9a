package conn

import (
	"github.com/juju/errors"
)

// ActionKind is one of the four operations a caller may invoke on a
// connection.
type ActionKind int

const (
	ActionOpen ActionKind = iota
	ActionClose
	ActionSend
	ActionReceive
)

const (
	actionOpenString    = "open"
	actionCloseString   = "close"
	actionSendString    = "send"
	actionReceiveString = "receive"
)

// String returns a string representation of ActionKind.
func (k ActionKind) String() string {
	switch k {
	case ActionOpen:
		return actionOpenString
	case ActionClose:
		return actionCloseString
	case ActionSend:
		return actionSendString
	case ActionReceive:
		return actionReceiveString
	default:
		return "unknown"
	}
}

// ActionKindFromString parses an ActionKind from its name.
func ActionKindFromString(str string) (ActionKind, bool) {
	switch str {
	case actionOpenString:
		return ActionOpen, true
	case actionCloseString:
		return ActionClose, true
	case actionSendString:
		return ActionSend, true
	case actionReceiveString:
		return ActionReceive, true
	default:
		return ActionOpen, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ActionKind) UnmarshalText(b []byte) error {
	kind, ok := ActionKindFromString(string(b))
	if !ok {
		return errors.Errorf("unknown action: %q", string(b))
	}

	*k = kind

	return nil
}

// Action drives a single transition lookup. The payload is an opaque blob
// whose content is never inspected. Only the current state's handling policy
// determines whether an action is accepted or rejected.
type Action struct {
	Kind    ActionKind
	Payload []byte
}

// Open returns an action that requests the connection to start listening.
func Open() Action {
	return Action{Kind: ActionOpen}
}

// Close returns an action that requests the connection to close.
func Close() Action {
	return Action{Kind: ActionClose}
}

// Send returns an action that requests payload to be transmitted.
func Send(payload []byte) Action {
	return Action{Kind: ActionSend, Payload: payload}
}

// Receive returns an action that delivers payload to the connection.
func Receive(payload []byte) Action {
	return Action{Kind: ActionReceive, Payload: payload}
}
