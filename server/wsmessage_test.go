package server

import (
	"testing"

	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
	"github.com/stretchr/testify/assert"
)

func TestMessageSerializeDeserialize(t *testing.T) {
	typ := MessageType("test-type")
	connID := identifiers.ConnID("test-conn")
	payload := "test-payload"
	m1 := NewMessage(typ, connID, payload)
	assert.Equal(t, typ, m1.Type)
	assert.Equal(t, payload, m1.Payload)
	assert.Equal(t, connID, m1.Conn)
	var s ByteSerializer
	serialized, err := s.Serialize(m1)
	assert.Nil(t, err)
	m2, err := s.Deserialize(serialized)
	assert.Nil(t, err)
	assert.Equal(t, typ, m2.Type)
	assert.Equal(t, payload, m2.Payload)
	assert.Equal(t, connID, m2.Conn)
}

func TestNewMessageReport(t *testing.T) {
	connID := identifiers.ConnID("test")
	report, _ := conn.Step(conn.StateClosed, conn.Open())
	m1 := NewMessageReport(connID, report)
	assert.Equal(t, MessageTypeReport, m1.Type)
	assert.Equal(t, connID, m1.Conn)
	assert.Equal(t, report, m1.Payload)
}

func TestNewMessageWatcherJoin(t *testing.T) {
	connID := identifiers.ConnID("test")
	watcherID := identifiers.WatcherID("watcher1")
	m1 := NewMessageWatcherJoin(connID, watcherID, conn.StateListening)
	assert.Equal(t, MessageTypeWatcherJoin, m1.Type)
	assert.Equal(t, connID, m1.Conn)
	payload, ok := m1.Payload.(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, watcherID.String(), payload["watcherID"])
	assert.Equal(t, "Listening", payload["state"])
}

func TestNewMessageWatcherLeave(t *testing.T) {
	connID := identifiers.ConnID("test")
	watcherID := identifiers.WatcherID("watcher1")
	m1 := NewMessageWatcherLeave(connID, watcherID)
	assert.Equal(t, MessageTypeWatcherLeave, m1.Type)
	assert.Equal(t, connID, m1.Conn)
	assert.Equal(t, watcherID, m1.Payload)
}
