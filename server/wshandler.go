package server

import (
	"context"
	e "errors"
	"net/http"
	"path"
	"time"

	"github.com/juju/errors"
	"nhooyr.io/websocket"

	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/logger"
)

// WSS accepts watcher websockets and attaches them to the adapter of the
// connection named in the request path.
type WSS struct {
	log   logger.Logger
	conns *ConnManager
}

func NewWSS(log logger.Logger, conns *ConnManager) *WSS {
	return &WSS{
		log:   log.WithNamespaceAppended("wss"),
		conns: conns,
	}
}

// WatchEvent is emitted for every message a watcher sends on its socket.
type WatchEvent struct {
	WatcherID identifiers.WatcherID
	ConnID    identifiers.ConnID
	Adapter   Adapter
	Message   Message
}

// HandleConn upgrades the request to a websocket, subscribes the watcher to
// the connection and pumps incoming messages to handleMessage until the
// socket is closed.
func (wss *WSS) HandleConn(w http.ResponseWriter, r *http.Request, handleMessage func(WatchEvent)) {
	var err error

	start := time.Now()

	prometheusWSConnTotal.Inc()
	prometheusWSConnActive.Inc()

	defer func() {
		prometheusWSConnActive.Dec()

		if err != nil {
			prometheusWSConnErrTotal.Inc()
		}

		prometheusWSConnDuration.Observe(time.Since(start).Seconds())
	}()

	connID := identifiers.ConnID(path.Base(r.URL.Path))

	log := wss.log.WithCtx(logger.Ctx{
		"conn_id": connID,
	})

	adapter, err := wss.conns.Enter(connID)
	if err != nil {
		log.Info("Watch unknown conn", nil)
		http.Error(w, "connection not found", http.StatusNotFound)

		return
	}

	defer wss.conns.Exit(connID)

	var c *websocket.Conn

	c, err = websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		log.Error("Accept websocket connection", errors.Trace(err), nil)

		return
	}

	defer c.Close(websocket.StatusInternalError, "")

	ctx := r.Context()

	watcher := NewWatcher(c)
	watcherID := watcher.ID()

	log = log.WithCtx(logger.Ctx{
		"watcher_id": watcherID,
	})

	log.Info("New watcher", nil)

	if err = adapter.Add(watcher); err != nil {
		log.Error("Add watcher to adapter", errors.Trace(err), nil)

		return
	}

	defer func() {
		if removeErr := adapter.Remove(watcherID); removeErr != nil {
			log.Error("Remove watcher from adapter", errors.Trace(removeErr), nil)
		}
	}()

	// Send a snapshot of the current state so the watcher does not have to
	// wait for the next action to learn it.
	if state, stateErr := adapter.State(); stateErr != nil {
		log.Error("Read state for snapshot", errors.Trace(stateErr), nil)
	} else if err = watcher.Write(NewMessageState(connID, state)); err != nil {
		log.Error("Write state snapshot", errors.Trace(err), nil)

		return
	}

	msgChan := watcher.Subscribe(ctx)

	for message := range msgChan {
		handleMessage(WatchEvent{
			WatcherID: watcherID,
			ConnID:    connID,
			Adapter:   adapter,
			Message:   message,
		})
	}

	err = watcher.Err()

	if e.Is(err, context.Canceled) {
		err = nil

		return
	}

	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		err = nil

		return
	}

	if err != nil {
		log.Error("Subscription error", errors.Trace(err), nil)
	}
}
