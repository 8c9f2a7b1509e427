package infra

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis builds a client from a redis:// URL and fails fast on an
// unreachable server rather than surfacing it on the first cache read.
func NewRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}
