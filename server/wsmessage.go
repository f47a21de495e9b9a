package server

import (
	"encoding/json"

	"github.com/juju/errors"

	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
)

type Serializer interface {
	Serialize(message Message) ([]byte, error)
}

type Deserializer interface {
	Deserialize([]byte) (Message, error)
}

// Message is a container for web-socket messages.
type Message struct {
	Type MessageType `json:"type"`
	// Conn is the connection this message is related to.
	Conn identifiers.ConnID `json:"conn"`
	// Payload content
	Payload interface{} `json:"payload"`
}

type MessageType string

const (
	// MessageTypeAction is sent by a watcher to apply an action to the
	// connection.
	MessageTypeAction MessageType = "action"

	// MessageTypeReport is broadcast to all watchers after an action was
	// applied.
	MessageTypeReport MessageType = "report"

	// MessageTypeState carries the current state. Sent to a watcher right
	// after it subscribes, and broadcast after SetState.
	MessageTypeState MessageType = "state"

	MessageTypePing MessageType = "ping"

	MessageTypeWatcherJoin  MessageType = "ws_watcher_join"
	MessageTypeWatcherLeave MessageType = "ws_watcher_leave"
)

func NewMessage(typ MessageType, connID identifiers.ConnID, payload interface{}) Message {
	return Message{Type: typ, Conn: connID, Payload: payload}
}

func NewMessageReport(connID identifiers.ConnID, report conn.Report) Message {
	return NewMessage(MessageTypeReport, connID, report)
}

func NewMessageState(connID identifiers.ConnID, state conn.State) Message {
	return NewMessage(MessageTypeState, connID, state.String())
}

func NewMessageWatcherJoin(connID identifiers.ConnID, watcherID identifiers.WatcherID, state conn.State) Message {
	return NewMessage(MessageTypeWatcherJoin, connID, map[string]string{
		"watcherID": watcherID.String(),
		"state":     state.String(),
	})
}

func NewMessageWatcherLeave(connID identifiers.ConnID, watcherID identifiers.WatcherID) Message {
	return NewMessage(MessageTypeWatcherLeave, connID, watcherID)
}

type ByteSerializer struct{}

func (s ByteSerializer) Serialize(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	return b, errors.Annotate(err, "serialize")
}

func (s ByteSerializer) Deserialize(data []byte) (msg Message, err error) {
	err = json.Unmarshal(data, &msg)
	return msg, errors.Annotate(err, "deserialize")
}
