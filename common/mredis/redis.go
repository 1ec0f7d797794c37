package mredis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/elder-platform/elder/common/mlog"
)

// RedisConnection is a hub which deals with the redis connection backing
// CacheInvalidator's keyspace broadcast (spec §2 Observability/caching).
type RedisConnection struct {
	ConnectionStringSource string
	Client                 *redis.Client
	Connected              bool
	Logger                 mlog.Logger
}

func (rc *RedisConnection) logger() mlog.Logger {
	if rc.Logger != nil {
		return rc.Logger
	}

	return &mlog.NoneLogger{}
}

// Connect keeps a singleton connection with redis.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	logger := rc.logger()
	logger.Info("connecting to redis")

	opts, err := redis.ParseURL(rc.ConnectionStringSource)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(opts)

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Errorf("redis ping failed: %v", err)
		return err
	}

	logger.Info("connected to redis")

	rc.Connected = true
	rc.Client = rdb

	return nil
}

// GetDB returns the redis client, initializing the connection if necessary.
func (rc *RedisConnection) GetDB(ctx context.Context) (*redis.Client, error) {
	if rc.Client == nil {
		if err := rc.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return rc.Client, nil
}
