package server

import (
	"net/http"

	"github.com/juju/errors"

	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/logger"
)

// NewWatchHandler returns the handler behind /ws/{connID}. Watchers receive
// every report broadcast for the connection and may drive it by sending
// action messages.
func NewWatchHandler(log logger.Logger, wss *WSS, conns *ConnManager) http.Handler {
	log = log.WithNamespaceAppended("watch")

	fn := func(w http.ResponseWriter, r *http.Request) {
		wss.HandleConn(w, r, func(event WatchEvent) {
			log := log.WithCtx(logger.Ctx{
				"conn_id":    event.ConnID,
				"watcher_id": event.WatcherID,
			})

			var err error

			switch event.Message.Type {
			case MessageTypeAction:
				action, actionErr := actionFromPayload(event.Message.Payload)
				if actionErr != nil {
					log.Error("Decode action", errors.Trace(actionErr), nil)

					break
				}

				// The report is broadcast to all watchers by the manager, so
				// there is nothing to write back here.
				_, err = conns.Apply(event.ConnID, action)
				err = errors.Annotate(err, "apply action")
			case MessageTypePing:
				err = event.Adapter.Emit(event.WatcherID, NewMessage(MessageTypePing, event.ConnID, "pong"))
				err = errors.Annotate(err, "pong emit")
			}

			if err != nil {
				log.Error("Handle watcher message", errors.Trace(err), nil)
			}
		})
	}

	return http.HandlerFunc(fn)
}

// actionFromPayload decodes an action message payload of the form
// {"action": "send", "payload": "Hello"}.
func actionFromPayload(payload interface{}) (conn.Action, error) {
	values, ok := payload.(map[string]interface{})
	if !ok {
		return conn.Action{}, errors.Errorf("expected a map[string]interface{}, but got payload of type %T", payload)
	}

	name, ok := values["action"].(string)
	if !ok {
		return conn.Action{}, errors.Errorf("expected an action name, but got %T", values["action"])
	}

	kind, ok := conn.ActionKindFromString(name)
	if !ok {
		return conn.Action{}, errors.Errorf("unknown action: %q", name)
	}

	var data []byte

	if value, ok := values["payload"].(string); ok {
		data = []byte(value)
	}

	return conn.Action{Kind: kind, Payload: data}, nil
}
