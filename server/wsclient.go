package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/uuid"
)

type WSWriter interface {
	Write(ctx context.Context, typ websocket.MessageType, msg []byte) error
}

type WSReader interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
}

type WSReadWriter interface {
	WSReader
	WSWriter
}

// Watcher is an abstraction for a subscriber websocket using channels.
type Watcher struct {
	id         identifiers.WatcherID
	ws         WSReadWriter
	serializer ByteSerializer

	errMu sync.RWMutex
	err   error
}

// NewWatcher creates a new watcher with a generated ID.
func NewWatcher(ws WSReadWriter) *Watcher {
	return NewWatcherWithID(ws, "")
}

func NewWatcherWithID(ws WSReadWriter, id identifiers.WatcherID) *Watcher {
	if id == "" {
		id = identifiers.WatcherID(uuid.New())
	}

	return &Watcher{
		id: id,
		ws: ws,
	}
}

func (w *Watcher) ID() identifiers.WatcherID {
	return w.id
}

// WriteTimeout writes a message to the websocket with a timeout.
func (w *Watcher) WriteTimeout(ctx context.Context, timeout time.Duration, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := w.serializer.Serialize(msg)
	if err != nil {
		return fmt.Errorf("watcher.WriteTimeout - error serializing message: %w", err)
	}

	return w.ws.Write(ctx, websocket.MessageText, data)
}

// Write writes a message to the watcher socket.
func (w *Watcher) Write(msg Message) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := w.WriteTimeout(ctx, 5*time.Second, msg)
	if err != nil {
		return fmt.Errorf("watcher.Write: %w", err)
	}

	return nil
}

func (w *Watcher) read(ctx context.Context) (message Message, err error) {
	typ, data, err := w.ws.Read(ctx)
	if err != nil {
		err = fmt.Errorf("watcher.read - error reading data: %w", err)
		return
	}

	message, err = w.serializer.Deserialize(data)
	if err != nil {
		err = fmt.Errorf("watcher.read - error deserializing data: %w", err)
		return
	}

	if typ != websocket.MessageText {
		err = fmt.Errorf("watcher.read - expected text message: %w", err)
	}

	return
}

func (w *Watcher) Err() error {
	w.errMu.RLock()
	defer w.errMu.RUnlock()

	return w.err
}

// Subscribe reads messages from the socket until an error occurs. The
// returned channel is closed after the error is recorded and can be
// retrieved with Err.
func (w *Watcher) Subscribe(ctx context.Context) <-chan Message {
	msgChan := make(chan Message)

	go func() {
		for {
			message, err := w.read(ctx)
			if err != nil {
				w.errMu.Lock()
				close(msgChan)
				w.err = err
				w.errMu.Unlock()

				return
			}

			msgChan <- message
		}
	}()

	return msgChan
}

var _ WatcherWriter = &Watcher{}
