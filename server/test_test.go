package server_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/connstate/connstate/server"
	"github.com/connstate/connstate/server/identifiers"
)

// This package contains commonly used test variables

const connID identifiers.ConnID = "test-conn"

// nolint:gochecknoglobals
var serializer server.ByteSerializer

type MockWSWriter struct {
	out      chan []byte
	closeCtx context.Context
	cancel   context.CancelFunc
}

func NewMockWriter() *MockWSWriter {
	closeCtx, cancel := context.WithCancel(context.Background())

	return &MockWSWriter{
		closeCtx: closeCtx,
		cancel:   cancel,
		out:      make(chan []byte, 16),
	}
}

func (w *MockWSWriter) Write(ctx context.Context, typ websocket.MessageType, msg []byte) error {
	w.out <- msg
	return nil
}

func (w *MockWSWriter) Read(ctx context.Context) (typ websocket.MessageType, msg []byte, err error) {
	// The context errors are returned unwrapped so that callers can match
	// them with errors.Is after the socket wrapper adds its own context.
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-w.closeCtx.Done():
		err = w.closeCtx.Err()
	}

	return
}

func (w *MockWSWriter) Close(statusCode websocket.StatusCode, reason string) error {
	w.cancel()
	return nil
}

func serialize(t *testing.T, msg server.Message) []byte {
	t.Helper()
	data, err := serializer.Serialize(msg)
	require.Nil(t, err)
	return data
}

// nolint:gochecknoglobals
var embed = server.Embed{
	Templates: os.DirFS("templates"),
}
