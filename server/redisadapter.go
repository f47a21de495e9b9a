package server

import (
	"context"
	e "errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/juju/errors"

	"github.com/connstate/connstate/server/conn"
	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/logger"
	"github.com/connstate/connstate/server/multierr"
)

const (
	defaultSubscriptionTimeout     = 10 * time.Second
	defaultSubscriptionChannelSize = 100
)

const redisStateField = "state"

// RedisAdapter shares the watchers and the state record of one connection
// between multiple instances. Reports are published on a redis channel and
// fanned out to the watchers connected to the local instance.
type RedisAdapter struct {
	log          logger.Logger
	serializer   Serializer
	deserializer Deserializer

	watchersMu *sync.RWMutex
	// watchers contains only watchers connected to the current instance. The
	// set of all watcher IDs, including those from other instances, lives in
	// a redis hash.
	watchers map[identifiers.WatcherID]WatcherWriter

	prefix   string
	connID   identifiers.ConnID
	pubRedis *redis.Client
	subRedis *redis.Client
	keys     struct {
		// state is a hash holding the last committed connection state.
		state string
		// watchers is a hash holding the IDs of all watchers.
		watchers string
		// reports is the broadcast channel for this connection.
		reports string
		// watcherPattern matches the per-watcher channels.
		watcherPattern string
	}
	stop func() error
}

func getConnStateName(prefix string, connID identifiers.ConnID) string {
	return prefix + ":conn:" + connID.String()
}

func getConnWatchersName(prefix string, connID identifiers.ConnID) string {
	return prefix + ":conn:" + connID.String() + ":watchers"
}

func getConnReportsName(prefix string, connID identifiers.ConnID) string {
	return prefix + ":conn:" + connID.String() + ":reports"
}

func getWatcherChannelName(prefix string, connID identifiers.ConnID, watcherID identifiers.WatcherID) string {
	return prefix + ":conn:" + connID.String() + ":watcher:" + watcherID.String()
}

// ReportsChannel returns the name of the redis channel this adapter
// publishes broadcasts on.
func (a *RedisAdapter) ReportsChannel() string {
	return a.keys.reports
}

func NewRedisAdapter(
	log logger.Logger,
	pubRedis *redis.Client,
	subRedis *redis.Client,
	prefix string,
	connID identifiers.ConnID,
) *RedisAdapter {
	var (
		watchersMu     sync.RWMutex
		byteSerializer ByteSerializer
	)

	adapter := RedisAdapter{
		log: log.WithNamespaceAppended("redis").WithCtx(logger.Ctx{
			"conn_id": connID,
		}),
		serializer:   byteSerializer,
		deserializer: byteSerializer,
		watchers:     map[identifiers.WatcherID]WatcherWriter{},
		watchersMu:   &watchersMu,
		prefix:       prefix,
		connID:       connID,
		pubRedis:     pubRedis,
		subRedis:     subRedis,
		stop:         nil,
	}

	adapter.keys.state = getConnStateName(prefix, connID)
	adapter.keys.watchers = getConnWatchersName(prefix, connID)
	adapter.keys.reports = getConnReportsName(prefix, connID)
	adapter.keys.watcherPattern = getWatcherChannelName(prefix, connID, "*")

	adapter.subscribeUntilReady(defaultSubscriptionTimeout)

	return &adapter
}

func (a *RedisAdapter) Add(watcher WatcherWriter) error {
	watcherID := watcher.ID()

	a.log.Trace("Add watcher", logger.Ctx{
		"watcher_id": watcherID,
	})

	a.watchersMu.Lock()
	a.watchers[watcherID] = watcher
	a.watchersMu.Unlock()

	state, err := a.State()
	if err != nil {
		return errors.Annotatef(err, "add watcher: %s", watcherID)
	}

	err = a.Broadcast(NewMessageWatcherJoin(a.connID, watcherID, state))

	return errors.Annotatef(err, "add watcher: %s", watcherID)
}

func (a *RedisAdapter) Remove(watcherID identifiers.WatcherID) error {
	a.watchersMu.Lock()
	_, ok := a.watchers[watcherID]
	delete(a.watchers, watcherID)
	a.watchersMu.Unlock()

	if !ok {
		return nil
	}

	err := a.remove(watcherID)

	return errors.Annotatef(err, "remove watcher: %s", watcherID)
}

func (a *RedisAdapter) removeAll(watcherIDs identifiers.WatcherIDs) error {
	errs := multierr.New()

	for _, watcherID := range watcherIDs {
		if err := a.remove(watcherID); err != nil {
			errs.Add(errors.Trace(err))
		}
	}

	return errors.Trace(errs.Err())
}

func (a *RedisAdapter) remove(watcherID identifiers.WatcherID) error {
	errs := multierr.New()

	a.log.Trace("Remove watcher", logger.Ctx{
		"watcher_id": watcherID,
	})

	// Can only remove watchers connected to this instance.
	if err := a.pubRedis.HDel(a.keys.watchers, watcherID.String()).Err(); err != nil {
		errs.Add(errors.Annotatef(err, "hdel %s %s", a.keys.watchers, watcherID))
	}

	if err := a.Broadcast(NewMessageWatcherLeave(a.connID, watcherID)); err != nil {
		errs.Add(errors.Annotatef(err, "broadcast watcher leave: %s", watcherID))
	}

	return errors.Trace(errs.Err())
}

// SetState records the last committed state of the connection in a redis
// hash so other instances and newly joined watchers can read it.
func (a *RedisAdapter) SetState(state conn.State) error {
	err := a.pubRedis.HSet(a.keys.state, redisStateField, state.String()).Err()

	return errors.Annotatef(err, "set state: %s", state)
}

// State returns the last recorded state of the connection. A connection
// without a record is reported as closed.
func (a *RedisAdapter) State() (conn.State, error) {
	value, err := a.pubRedis.HGet(a.keys.state, redisStateField).Result()
	if e.Is(err, redis.Nil) {
		return conn.StateClosed, nil
	}

	if err != nil {
		return conn.StateClosed, errors.Annotate(err, "get state")
	}

	state, ok := conn.StateFromString(value)
	if !ok {
		return conn.StateClosed, errors.Errorf("unknown state recorded: %q", value)
	}

	return state, nil
}

// Watchers returns the IDs of all known watchers, including those connected
// to other instances, sorted.
func (a *RedisAdapter) Watchers() (identifiers.WatcherIDs, error) {
	values, err := a.pubRedis.HKeys(a.keys.watchers).Result()
	if err != nil {
		return nil, errors.Annotate(err, "watchers")
	}

	watcherIDs := make(identifiers.WatcherIDs, 0, len(values))

	for _, value := range values {
		watcherIDs = append(watcherIDs, identifiers.WatcherID(value))
	}

	sort.Sort(watcherIDs)

	return watcherIDs, nil
}

// Size returns the count of all known watchers.
func (a *RedisAdapter) Size() (int, error) {
	value, err := a.pubRedis.HLen(a.keys.watchers).Result()

	return int(value), errors.Annotate(err, "size")
}

func (a *RedisAdapter) handleMessage(pattern string, channel string, message string) error {
	msg, err := a.deserializer.Deserialize([]byte(message))
	if err != nil {
		return errors.Annotate(err, "deserialize redis subscription")
	}

	a.log.Trace("handleMessage", logger.Ctx{
		"pattern":      pattern,
		"channel":      channel,
		"message_type": msg.Type,
	})

	handleWatcherJoin := func() error {
		payload, ok := msg.Payload.(map[string]interface{})
		if !ok {
			return errors.Errorf("watcher join: expected a map[string]interface{}, but got payload of type %T", msg.Payload)
		}

		err := a.pubRedis.HSet(a.keys.watchers, payload["watcherID"], "").Err()
		if err != nil {
			return errors.Annotate(err, "watcher join")
		}

		err = a.localBroadcast(msg)

		return errors.Annotate(err, "watcher join")
	}

	handleWatcherLeave := func() error {
		if err := a.localBroadcast(msg); err != nil {
			return errors.Trace(err)
		}

		watcherID, ok := msg.Payload.(string)
		if !ok {
			return errors.Errorf("watcher leave: expected a string, but got payload of type %T", msg.Payload)
		}

		err := a.pubRedis.HDel(a.keys.watchers, watcherID).Err()

		return errors.Annotate(err, "watcher leave")
	}

	handleWatcherChannel := func() error {
		params := strings.Split(channel, ":")
		watcherID := identifiers.WatcherID(params[len(params)-1])

		a.watchersMu.RLock()
		watcher, ok := a.watchers[watcherID]
		a.watchersMu.RUnlock()

		if !ok {
			// The watcher is connected to another instance.
			return nil
		}

		err := a.localEmit(watcher, msg)

		return errors.Annotatef(err, "channel %s", channel)
	}

	switch {
	case channel == a.keys.reports:
		switch msg.Type {
		case MessageTypeWatcherJoin:
			err = errors.Trace(handleWatcherJoin())
		case MessageTypeWatcherLeave:
			err = errors.Trace(handleWatcherLeave())
		default:
			err = errors.Trace(a.localBroadcast(msg))
		}
	case pattern == a.keys.watcherPattern:
		err = errors.Trace(handleWatcherChannel())
	}

	return errors.Trace(err)
}

// subscribe reads from the subscribed channels and dispatches relevant
// messages to local watcher sockets. Blocks until the context is done.
func (a *RedisAdapter) subscribe(ctx context.Context, ready chan<- struct{}) error {
	a.log.Debug("Subscribe", logger.Ctx{
		"channel": a.keys.reports,
		"pattern": a.keys.watcherPattern,
	})

	pubsub := a.subRedis.PSubscribe(a.keys.reports, a.keys.watcherPattern)
	defer pubsub.Close()

	ch := pubsub.ChannelWithSubscriptions(defaultSubscriptionChannelSize)

	isReady := false

	for {
		select {
		case msg := <-ch:
			switch msg := msg.(type) {
			case *redis.Subscription:
				if !isReady {
					isReady = true

					close(ready)
				}
			case *redis.Message:
				err := a.handleMessage(msg.Pattern, msg.Channel, msg.Payload)
				if err != nil {
					a.log.Error("Handle message", errors.Trace(err), nil)
				}
			}
		case <-ctx.Done():
			err := ctx.Err()

			a.log.Debug("Subscribe done", logger.Ctx{
				"err": err,
			})

			return errors.Trace(err)
		}
	}
}

func (a *RedisAdapter) subscribeUntilReady(timeout time.Duration) {
	var err error

	done := make(chan struct{})
	ready := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())

	a.stop = func() error {
		cancel()
		<-done

		return errors.Trace(err)
	}

	go func() {
		err = errors.Trace(a.subscribe(ctx, ready))

		close(done)
	}()

	var timeoutDoneCh <-chan struct{}

	if timeout > 0 {
		timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), timeout)
		defer timeoutCancel()

		timeoutDoneCh = timeoutCtx.Done()
	}

	select {
	case <-ready:
	case <-timeoutDoneCh:
		cancel()
	}
}

// Close closes the subscription and removes the local watchers, but leaves
// the redis clients open since they are shared with other adapters.
func (a *RedisAdapter) Close() error {
	errs := multierr.New()

	if a.stop != nil {
		if err := errors.Cause(a.stop()); !e.Is(err, context.Canceled) {
			errs.Add(errors.Trace(err))
		}
	}

	a.watchersMu.Lock()
	watcherIDs := make(identifiers.WatcherIDs, 0, len(a.watchers))

	for watcherID := range a.watchers {
		watcherIDs = append(watcherIDs, watcherID)
		delete(a.watchers, watcherID)
	}
	a.watchersMu.Unlock()

	if err := a.removeAll(watcherIDs); err != nil {
		errs.Add(errors.Trace(err))
	}

	return errors.Trace(errs.Err())
}

func (a *RedisAdapter) publish(channel string, msg Message) error {
	data, err := a.serializer.Serialize(msg)
	if err != nil {
		return errors.Annotate(err, "serialize")
	}

	err = a.pubRedis.Publish(channel, string(data)).Err()

	return errors.Annotate(err, "publish")
}

// Broadcast publishes a message to the reports channel. The message reaches
// the watchers on all instances through their subscriptions.
func (a *RedisAdapter) Broadcast(msg Message) error {
	a.log.Trace("Broadcast", logger.Ctx{
		"message_type": msg.Type,
	})

	err := a.publish(a.keys.reports, msg)

	return errors.Annotate(err, "broadcast")
}

func (a *RedisAdapter) localBroadcast(msg Message) error {
	a.watchersMu.RLock()
	watchers := make([]WatcherWriter, 0, len(a.watchers))

	for _, watcher := range a.watchers {
		watchers = append(watchers, watcher)
	}
	a.watchersMu.RUnlock()

	errs := multierr.New()

	for _, watcher := range watchers {
		if err := a.localEmit(watcher, msg); err != nil {
			errs.Add(errors.Trace(err))
		}
	}

	return errors.Trace(errs.Err())
}

// Emit publishes a message on the channel of a single watcher. The instance
// the watcher is connected to delivers it to the socket.
func (a *RedisAdapter) Emit(watcherID identifiers.WatcherID, msg Message) error {
	channel := getWatcherChannelName(a.prefix, a.connID, watcherID)

	err := a.publish(channel, msg)

	return errors.Annotatef(err, "emit watcherID: %s", watcherID)
}

func (a *RedisAdapter) localEmit(watcher WatcherWriter, msg Message) error {
	err := watcher.Write(msg)

	return errors.Annotatef(err, "write watcherID: %s", watcher.ID())
}

var _ Adapter = &RedisAdapter{}
