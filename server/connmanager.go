package server

import (
	"sort"
	"sync"
	"time"

	"github.com/juju/errors"

	"github.com/connstate/connstate/server/clock"
	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/logger"
	"github.com/connstate/connstate/server/uuid"
)

var ErrConnNotFound = errors.New("connection not found")

type NewAdapterFunc func(connID identifiers.ConnID) Adapter

// ConnInfo is a snapshot of a managed connection.
type ConnInfo struct {
	ID        identifiers.ConnID `json:"id"`
	State     conn.State         `json:"state"`
	CreatedAt time.Time          `json:"created_at"`
}

type connEntry struct {
	conn      *conn.Conn
	adapter   Adapter
	createdAt time.Time
	// watchers counts Enter calls without a matching Exit. The adapter
	// itself lives for the whole connection lifetime since it records the
	// connection state even when nobody is watching.
	watchers uint64
}

type ConnManagerParams struct {
	Log        logger.Logger
	Clock      clock.Clock
	NewAdapter NewAdapterFunc
}

// ConnManager hosts many connection state machines in one process. Each
// machine gets an adapter which tracks its watchers and records its last
// committed state.
type ConnManager struct {
	params ConnManagerParams
	log    logger.Logger

	mu    sync.RWMutex
	conns map[identifiers.ConnID]*connEntry
}

func NewConnManager(params ConnManagerParams) *ConnManager {
	return &ConnManager{
		params: params,
		log:    params.Log.WithNamespaceAppended("connmanager"),
		conns:  map[identifiers.ConnID]*connEntry{},
	}
}

// Create registers a new connection state machine starting in initial and
// returns its info. The connection ID is a generated base62 UUID.
func (m *ConnManager) Create(initial conn.State) ConnInfo {
	connID := identifiers.ConnID(uuid.New())

	c := conn.New(conn.Params{
		Log:     m.params.Log,
		ID:      connID,
		Initial: initial,
	})

	adapter := m.params.NewAdapter(connID)
	if err := adapter.SetState(initial); err != nil {
		m.log.Error("Set initial adapter state", errors.Trace(err), logger.Ctx{
			"conn_id": connID,
		})
	}

	entry := &connEntry{
		conn:      c,
		adapter:   adapter,
		createdAt: m.params.Clock.Now(),
	}

	m.mu.Lock()
	m.conns[connID] = entry
	m.mu.Unlock()

	prometheusConnCreatedTotal.Inc()
	prometheusConnActive.Inc()

	m.log.Info("Create conn", logger.Ctx{
		"conn_id": connID,
		"state":   initial,
	})

	return ConnInfo{
		ID:        connID,
		State:     initial,
		CreatedAt: entry.createdAt,
	}
}

func (m *ConnManager) entry(connID identifiers.ConnID) (*connEntry, bool) {
	m.mu.RLock()
	entry, ok := m.conns[connID]
	m.mu.RUnlock()

	return entry, ok
}

// Apply dispatches an action on a managed connection, records the committed
// state in the adapter and broadcasts the report to all watchers.
func (m *ConnManager) Apply(connID identifiers.ConnID, action conn.Action) (conn.Report, error) {
	entry, ok := m.entry(connID)
	if !ok {
		return conn.Report{}, errors.Annotatef(ErrConnNotFound, "apply %s", connID)
	}

	report := entry.conn.Apply(action)

	prometheusConnActionsTotal.Inc()

	if report.Rejected() {
		prometheusConnActionsRejectedTotal.Inc()
	}

	if report.Transitioned() {
		prometheusConnTransitionsTotal.Inc()
	}

	if err := entry.adapter.SetState(report.To); err != nil {
		m.log.Error("Record state", errors.Trace(err), logger.Ctx{
			"conn_id": connID,
		})
	}

	if err := entry.adapter.Broadcast(NewMessageReport(connID, report)); err != nil {
		m.log.Error("Broadcast report", errors.Trace(err), logger.Ctx{
			"conn_id": connID,
		})
	}

	return report, nil
}

// SetState unconditionally overwrites the state of a managed connection and
// notifies all watchers.
func (m *ConnManager) SetState(connID identifiers.ConnID, state conn.State) error {
	entry, ok := m.entry(connID)
	if !ok {
		return errors.Annotatef(ErrConnNotFound, "set state %s", connID)
	}

	entry.conn.SetState(state)

	if err := entry.adapter.SetState(state); err != nil {
		m.log.Error("Record state", errors.Trace(err), logger.Ctx{
			"conn_id": connID,
		})
	}

	if err := entry.adapter.Broadcast(NewMessageState(connID, state)); err != nil {
		m.log.Error("Broadcast state", errors.Trace(err), logger.Ctx{
			"conn_id": connID,
		})
	}

	return nil
}

// Get returns a snapshot of a managed connection.
func (m *ConnManager) Get(connID identifiers.ConnID) (ConnInfo, bool) {
	entry, ok := m.entry(connID)
	if !ok {
		return ConnInfo{}, false
	}

	return ConnInfo{
		ID:        connID,
		State:     entry.conn.State(),
		CreatedAt: entry.createdAt,
	}, true
}

// List returns snapshots of all managed connections, sorted by ID.
func (m *ConnManager) List() []ConnInfo {
	m.mu.RLock()
	connIDs := make(identifiers.ConnIDs, 0, len(m.conns))

	for connID := range m.conns {
		connIDs = append(connIDs, connID)
	}
	m.mu.RUnlock()

	sort.Sort(connIDs)

	infos := make([]ConnInfo, 0, len(connIDs))

	for _, connID := range connIDs {
		if info, ok := m.Get(connID); ok {
			infos = append(infos, info)
		}
	}

	return infos
}

// Size returns the number of managed connections.
func (m *ConnManager) Size() int {
	m.mu.RLock()
	size := len(m.conns)
	m.mu.RUnlock()

	return size
}

// Remove unregisters a connection and closes its adapter.
func (m *ConnManager) Remove(connID identifiers.ConnID) bool {
	m.mu.Lock()
	entry, ok := m.conns[connID]
	delete(m.conns, connID)
	m.mu.Unlock()

	if !ok {
		return false
	}

	if err := entry.adapter.Close(); err != nil {
		m.log.Error("Close adapter", errors.Trace(err), logger.Ctx{
			"conn_id": connID,
		})
	}

	prometheusConnRemovedTotal.Inc()
	prometheusConnActive.Dec()
	prometheusConnDuration.Observe(m.params.Clock.Since(entry.createdAt).Seconds())

	m.log.Info("Remove conn", logger.Ctx{
		"conn_id": connID,
	})

	return true
}

// Enter acquires the adapter of a connection for a watcher. Every Enter must
// be paired with an Exit.
func (m *ConnManager) Enter(connID identifiers.ConnID) (Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.conns[connID]
	if !ok {
		return nil, errors.Annotatef(ErrConnNotFound, "enter %s", connID)
	}

	entry.watchers++

	return entry.adapter, nil
}

// Exit releases the adapter of a connection previously acquired with Enter.
func (m *ConnManager) Exit(connID identifiers.ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.conns[connID]
	if !ok {
		return
	}

	if entry.watchers > 0 {
		entry.watchers--
	}
}
