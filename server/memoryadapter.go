package server

import (
	"sort"
	"sync"

	"github.com/juju/errors"

	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
)

type MemoryAdapter struct {
	watchersMu *sync.RWMutex
	watchers   map[identifiers.WatcherID]WatcherWriter
	connID     identifiers.ConnID
	state      conn.State
}

func NewMemoryAdapter(connID identifiers.ConnID) *MemoryAdapter {
	var watchersMu sync.RWMutex

	return &MemoryAdapter{
		watchersMu: &watchersMu,
		watchers:   map[identifiers.WatcherID]WatcherWriter{},
		connID:     connID,
	}
}

// Add a watcher to the connection.
func (m *MemoryAdapter) Add(watcher WatcherWriter) (err error) {
	m.watchersMu.Lock()
	watcherID := watcher.ID()
	m.watchers[watcherID] = watcher
	err = m.broadcast(NewMessageWatcherJoin(m.connID, watcherID, m.state))
	m.watchersMu.Unlock()

	return errors.Trace(err)
}

func (m *MemoryAdapter) Close() error {
	return nil
}

// Remove a watcher from the connection.
func (m *MemoryAdapter) Remove(watcherID identifiers.WatcherID) (err error) {
	m.watchersMu.Lock()
	delete(m.watchers, watcherID)
	err = m.broadcast(NewMessageWatcherLeave(m.connID, watcherID))
	m.watchersMu.Unlock()

	return errors.Trace(err)
}

// SetState records the last committed state of the connection.
func (m *MemoryAdapter) SetState(state conn.State) error {
	m.watchersMu.Lock()
	m.state = state
	m.watchersMu.Unlock()

	return nil
}

// State returns the last recorded state of the connection.
func (m *MemoryAdapter) State() (conn.State, error) {
	m.watchersMu.RLock()
	state := m.state
	m.watchersMu.RUnlock()

	return state, nil
}

// Watchers returns the IDs of all watchers, sorted.
func (m *MemoryAdapter) Watchers() (identifiers.WatcherIDs, error) {
	m.watchersMu.RLock()
	watcherIDs := make(identifiers.WatcherIDs, 0, len(m.watchers))

	for watcherID := range m.watchers {
		watcherIDs = append(watcherIDs, watcherID)
	}
	m.watchersMu.RUnlock()

	sort.Sort(watcherIDs)

	return watcherIDs, nil
}

func (m *MemoryAdapter) Size() (value int, err error) {
	m.watchersMu.RLock()
	value = len(m.watchers)
	m.watchersMu.RUnlock()

	return
}

// Broadcast sends a message to all watcher sockets.
func (m *MemoryAdapter) Broadcast(msg Message) error {
	m.watchersMu.RLock()
	err := m.broadcast(msg)
	m.watchersMu.RUnlock()

	return errors.Trace(err)
}

func (m *MemoryAdapter) broadcast(msg Message) (err error) {
	for watcherID := range m.watchers {
		if emitErr := m.emit(watcherID, msg); emitErr != nil && err == nil {
			err = emitErr
		}
	}

	return
}

// Emit sends a message to a specific watcher socket.
func (m *MemoryAdapter) Emit(watcherID identifiers.WatcherID, msg Message) error {
	m.watchersMu.RLock()
	err := m.emit(watcherID, msg)
	m.watchersMu.RUnlock()

	return errors.Trace(err)
}

func (m *MemoryAdapter) emit(watcherID identifiers.WatcherID, msg Message) error {
	watcher, ok := m.watchers[watcherID]
	if !ok {
		return errors.Errorf("watcher not found, watcherID: %s", watcherID)
	}

	err := watcher.Write(msg)

	return errors.Annotatef(err, "emit watcherID: %s", watcherID)
}

var _ Adapter = &MemoryAdapter{}
