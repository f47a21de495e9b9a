package conn

import (
	"sync"

	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/logger"
)

// Params are the parameters for creating a new Conn.
type Params struct {
	Log logger.Logger
	ID  identifiers.ConnID

	// Initial is the state the connection starts in. The zero value is
	// StateClosed.
	Initial State
}

// Conn is a connection state machine. It holds the current state and
// dispatches each action to state-specific behavior, committing the next
// state before the action returns.
//
// All methods are safe for concurrent use. Each action is atomic: the
// transition lookup, the effect and the state commit happen under one lock,
// so no intermediate state is ever observable between calls.
type Conn struct {
	log logger.Logger
	id  identifiers.ConnID

	mu    sync.Mutex
	state State
}

func New(params Params) *Conn {
	return &Conn{
		log: params.Log.WithNamespaceAppended("conn").WithCtx(logger.Ctx{
			"conn_id": params.ID,
		}),
		id:    params.ID,
		state: params.Initial,
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() identifiers.ConnID {
	return c.id
}

// State returns the current state.
func (c *Conn) State() State {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	return state
}

// SetState unconditionally overwrites the current state. Subsequent actions
// are interpreted according to the new state. Cannot fail.
func (c *Conn) SetState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.log.Debug("Set state", logger.Ctx{
		"state": state,
	})
}

// Apply dispatches action to the current state's behavior, commits the next
// state and returns the report. Rejected actions leave the state unchanged.
func (c *Conn) Apply(action Action) Report {
	c.mu.Lock()
	report, next := Step(c.state, action)
	c.state = next
	c.mu.Unlock()

	c.log.Trace(report.Message, logger.Ctx{
		"action": report.Action,
		"from":   report.From,
		"to":     report.To,
		"status": report.Status,
	})

	return report
}

// Open requests the connection to start listening.
func (c *Conn) Open() Report {
	return c.Apply(Open())
}

// Close requests the connection to close.
func (c *Conn) Close() Report {
	return c.Apply(Close())
}

// Send requests payload to be transmitted.
func (c *Conn) Send(payload []byte) Report {
	return c.Apply(Send(payload))
}

// Receive delivers payload to the connection.
func (c *Conn) Receive(payload []byte) Report {
	return c.Apply(Receive(payload))
}
