// Package kvredis implements a key-value store backed by Redis.
package kvredis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/micromdm/nanointake/utils/kv"
	"github.com/redis/go-redis/v9"
)

// KVRedis is a Redis-backed key-value store.
// Every key is namespaced with a prefix and every write (re)sets the
// key's expiry to the configured TTL.
type KVRedis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a KVRedis.
type Option func(*KVRedis)

// WithTTL sets the expiry applied on every write.
// A zero TTL means keys never expire.
func WithTTL(ttl time.Duration) Option {
	return func(s *KVRedis) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(s *KVRedis) {
		s.prefix = prefix
	}
}

// NewBucket creates a new Redis bucket using client.
func NewBucket(client redis.UniversalClient, opts ...Option) *KVRedis {
	s := &KVRedis{client: client, prefix: "nanointake:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *KVRedis) key(k string) string {
	return s.prefix + k
}

func (s *KVRedis) Get(ctx context.Context, k string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", kv.ErrKeyNotFound, k)
	} else if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (s *KVRedis) Set(ctx context.Context, k string, v []byte) error {
	if err := s.client.Set(ctx, s.key(k), v, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *KVRedis) Has(ctx context.Context, k string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(k)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *KVRedis) Delete(ctx context.Context, k string) error {
	if err := s.client.Del(ctx, s.key(k)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys returns the keys in this bucket using SCAN.
// Scan errors end the key stream early.
func (s *KVRedis) Keys(cancel <-chan struct{}) <-chan string {
	r := make(chan string)
	go func() {
		defer close(r)
		iter := s.client.Scan(context.Background(), 0, s.prefix+"*", 100).Iterator()
		for iter.Next(context.Background()) {
			select {
			case <-cancel:
				return
			case r <- iter.Val()[len(s.prefix):]:
			}
		}
	}()
	return r
}
