package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/connstate/connstate/server"
	"github.com/connstate/connstate/server/clock"
	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/multierr"
	"github.com/connstate/connstate/server/test"
)

func newConnManager() *server.ConnManager {
	return server.NewConnManager(server.ConnManagerParams{
		Log:   test.NewLogger(),
		Clock: clock.New(),
		NewAdapter: func(connID identifiers.ConnID) server.Adapter {
			return server.NewMemoryAdapter(connID)
		},
	})
}

func TestConnManager_Create_Get_List(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newConnManager()

	info1 := m.Create(conn.StateClosed)
	info2 := m.Create(conn.StateListening)

	assert.NotEqual(t, info1.ID, info2.ID)
	assert.Equal(t, conn.StateClosed, info1.State)
	assert.Equal(t, conn.StateListening, info2.State)
	assert.False(t, info1.CreatedAt.IsZero())

	got, ok := m.Get(info2.ID)
	assert.True(t, ok)
	assert.Equal(t, info2, got)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	infos := m.List()
	require.Len(t, infos, 2)
	assert.True(t, infos[0].ID < infos[1].ID, "list must be sorted by ID")
	assert.Equal(t, 2, m.Size())
}

func TestConnManager_Apply(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newConnManager()
	info := m.Create(conn.StateClosed)

	report, err := m.Apply(info.ID, conn.Open())
	require.NoError(t, err)
	assert.True(t, report.Accepted())
	assert.Equal(t, conn.StateListening, report.To)

	got, ok := m.Get(info.ID)
	require.True(t, ok)
	assert.Equal(t, conn.StateListening, got.State)

	// The adapter records every committed state.
	adapter, err := m.Enter(info.ID)
	require.NoError(t, err)
	defer m.Exit(info.ID)

	state, err := adapter.State()
	require.NoError(t, err)
	assert.Equal(t, conn.StateListening, state)
}

func TestConnManager_Apply_NotFound(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newConnManager()

	_, err := m.Apply("missing", conn.Open())
	require.Error(t, err)
	assert.True(t, multierr.Is(err, server.ErrConnNotFound))
}

func TestConnManager_SetState(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newConnManager()
	info := m.Create(conn.StateClosed)

	require.NoError(t, m.SetState(info.ID, conn.StateListening))

	got, ok := m.Get(info.ID)
	require.True(t, ok)
	assert.Equal(t, conn.StateListening, got.State)

	err := m.SetState("missing", conn.StateListening)
	require.Error(t, err)
	assert.True(t, multierr.Is(err, server.ErrConnNotFound))
}

func TestConnManager_Apply_BroadcastsReport(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newConnManager()
	info := m.Create(conn.StateClosed)

	adapter, err := m.Enter(info.ID)
	require.NoError(t, err)
	defer m.Exit(info.ID)

	mockWriter := NewMockWriter()
	defer close(mockWriter.out)
	watcher := server.NewWatcher(mockWriter)
	require.NoError(t, adapter.Add(watcher))
	<-mockWriter.out // join message

	report, err := m.Apply(info.ID, conn.Send([]byte("Hello")))
	require.NoError(t, err)
	assert.True(t, report.Rejected())

	assert.Equal(t, serialize(t, server.NewMessageReport(info.ID, report)), <-mockWriter.out)

	require.NoError(t, adapter.Remove(watcher.ID()))
}

func TestConnManager_Remove(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newConnManager()
	info := m.Create(conn.StateClosed)

	assert.True(t, m.Remove(info.ID))
	assert.False(t, m.Remove(info.ID))
	assert.Equal(t, 0, m.Size())

	_, err := m.Enter(info.ID)
	require.Error(t, err)
	assert.True(t, multierr.Is(err, server.ErrConnNotFound))
}
