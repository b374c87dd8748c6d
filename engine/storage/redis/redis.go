// Package redis implements a flow registry storage backend using Redis.
// Sessions expire through Redis key expiry: every snapshot write
// refreshes the TTL of the flow and the session's last-seen key.
package redis

import (
	"time"

	"github.com/micromdm/nanointake/engine/storage/kv"
	"github.com/micromdm/nanointake/utils/kv/kvredis"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the default session lifetime after its last write.
const DefaultTTL = time.Hour * 24

// Redis is a Redis-backed flow registry storage backend.
type Redis struct {
	*kv.KV
}

type config struct {
	prefix string
	ttl    time.Duration
}

// Option configures the Redis storage.
type Option func(*config)

// WithTTL sets the session lifetime. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix. Default is "nanointake:".
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = prefix
	}
}

func New(client redis.UniversalClient, opts ...Option) *Redis {
	cfg := &config{prefix: "nanointake:", ttl: DefaultTTL}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Redis{KV: kv.New(
		kvredis.NewBucket(client, kvredis.WithPrefix(cfg.prefix+"flow:"), kvredis.WithTTL(cfg.ttl)),
		kvredis.NewBucket(client, kvredis.WithPrefix(cfg.prefix+"session:"), kvredis.WithTTL(cfg.ttl)),
	)}
}
