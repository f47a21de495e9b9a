package server

import (
	"net"
	"strconv"

	"github.com/go-redis/redis/v7"
	"github.com/juju/errors"

	"github.com/connstate/connstate/server/identifiers"
	"github.com/connstate/connstate/server/logger"
	"github.com/connstate/connstate/server/multierr"
)

// AdapterFactory creates adapters according to the store configuration. The
// redis clients for publishing and subscribing are shared between all
// adapters created by one factory.
type AdapterFactory struct {
	pubClient *redis.Client
	subClient *redis.Client

	NewAdapter NewAdapterFunc
}

func NewAdapterFactory(log logger.Logger, c StoreConfig) *AdapterFactory {
	log = log.WithNamespaceAppended("adapterfactory")

	f := AdapterFactory{}

	switch c.Type {
	case StoreTypeRedis:
		addr := net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
		prefix := c.Redis.Prefix

		log.Info("Using RedisAdapter", logger.Ctx{
			"remote_addr":  addr,
			"redis_prefix": prefix,
		})

		f.pubClient = redis.NewClient(&redis.Options{
			Addr: addr,
		})
		f.subClient = redis.NewClient(&redis.Options{
			Addr: addr,
		})

		f.NewAdapter = func(connID identifiers.ConnID) Adapter {
			return NewRedisAdapter(log, f.pubClient, f.subClient, prefix, connID)
		}
	default:
		log.Info("Using MemoryAdapter", nil)

		f.NewAdapter = func(connID identifiers.ConnID) Adapter {
			return NewMemoryAdapter(connID)
		}
	}

	return &f
}

func (a *AdapterFactory) Close() error {
	errs := multierr.New()

	if a.pubClient != nil {
		errs.Add(errors.Trace(a.pubClient.Close()))
	}

	if a.subClient != nil {
		errs.Add(errors.Trace(a.subClient.Close()))
	}

	return errors.Trace(errs.Err())
}
