// Package kvmap implements an in-memory key-value store backed by a Go map.
package kvmap

import (
	"context"
	"fmt"
	"sync"

	"github.com/micromdm/nanointake/utils/kv"
)

// KVMap is an in-memory key-value bucket.
// Values are copied on the way in and out.
type KVMap struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewBucket creates a new empty bucket.
func NewBucket() *KVMap {
	return &KVMap{m: make(map[string][]byte)}
}

func clone(v []byte) []byte {
	return append([]byte(nil), v...)
}

// Get returns a copy of the value of k.
func (b *KVMap) Get(_ context.Context, k string) ([]byte, error) {
	b.mu.RLock()
	v, ok := b.m[k]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", kv.ErrKeyNotFound, k)
	}
	return clone(v), nil
}

func (b *KVMap) Set(_ context.Context, k string, v []byte) error {
	v = clone(v)
	b.mu.Lock()
	b.m[k] = v
	b.mu.Unlock()
	return nil
}

func (b *KVMap) Has(_ context.Context, k string) (bool, error) {
	b.mu.RLock()
	_, ok := b.m[k]
	b.mu.RUnlock()
	return ok, nil
}

func (b *KVMap) Delete(_ context.Context, k string) error {
	b.mu.Lock()
	delete(b.m, k)
	b.mu.Unlock()
	return nil
}

// Keys returns the keys present in the bucket at the time of the call.
// The keys are collected up front so the bucket may be modified while
// the channel is drained.
func (b *KVMap) Keys(cancel <-chan struct{}) <-chan string {
	b.mu.RLock()
	keys := make([]string, 0, len(b.m))
	for k := range b.m {
		keys = append(keys, k)
	}
	b.mu.RUnlock()

	r := make(chan string)
	go func() {
		defer close(r)
		for _, k := range keys {
			select {
			case <-cancel:
				return
			case r <- k:
			}
		}
	}()
	return r
}
