package server

import (
	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
)

// WatcherWriter is a websocket subscriber attached to a connection.
type WatcherWriter interface {
	ID() identifiers.WatcherID
	Write(msg Message) error
}

// Adapter tracks the watchers of a single connection and fans messages out
// to them. The memory implementation covers a single instance, the redis
// implementation shares presence and broadcasts across instances.
type Adapter interface {
	Add(watcher WatcherWriter) error
	Remove(watcherID identifiers.WatcherID) error
	Broadcast(msg Message) error
	Emit(watcherID identifiers.WatcherID, msg Message) error
	Watchers() (identifiers.WatcherIDs, error)
	Size() (int, error)

	// SetState records the last committed state of the connection so other
	// instances and newly joined watchers can read it.
	SetState(state conn.State) error
	State() (conn.State, error)

	Close() error
}
