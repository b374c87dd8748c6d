// Package kv implements a flow registry storage backend using a key-value interface.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/utils/kv"
	"github.com/micromdm/nanointake/workflow"
)

const keySep = "."

// KV is a flow registry storage backend using a key-value interface.
// Snapshots are keyed by session and flow ID. A second bucket tracks
// when each session was last written to for expiry.
type KV struct {
	mu        sync.RWMutex
	flowStore kv.TraversingBucket
	seenStore kv.TraversingBucket
	now       func() time.Time
}

// New creates a new key-value flow registry storage backend.
func New(flowStore kv.TraversingBucket, seenStore kv.TraversingBucket) *KV {
	return &KV{
		flowStore: flowStore,
		seenStore: seenStore,
		now:       time.Now,
	}
}

func flowKey(sessionID, flowID string) string {
	return sessionID + keySep + flowID
}

func validate(sessionID, flowID string) error {
	if err := storage.Validate(sessionID, flowID); err != nil {
		return err
	}
	if strings.Contains(sessionID, keySep) {
		return fmt.Errorf("invalid session id: %q", sessionID)
	}
	return nil
}

// RetrieveSnapshot implements the storage interface method.
func (s *KV) RetrieveSnapshot(ctx context.Context, sessionID, flowID string) (*workflow.Snapshot, error) {
	if err := validate(sessionID, flowID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, err := s.flowStore.Get(ctx, flowKey(sessionID, flowID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("getting flow %s: %w", flowID, err)
	}
	snap := new(workflow.Snapshot)
	if err = snap.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// StoreSnapshot implements the storage interface method.
func (s *KV) StoreSnapshot(ctx context.Context, sessionID, flowID string, snap *workflow.Snapshot) error {
	if err := validate(sessionID, flowID); err != nil {
		return err
	}
	if snap == nil {
		return storage.ErrNilSnapshot
	}
	raw, err := snap.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err = s.flowStore.Set(ctx, flowKey(sessionID, flowID), raw); err != nil {
		return fmt.Errorf("setting flow %s: %w", flowID, err)
	}
	seen := []byte(s.now().UTC().Format(time.RFC3339Nano))
	if err = s.seenStore.Set(ctx, sessionID, seen); err != nil {
		return fmt.Errorf("setting session last seen: %w", err)
	}
	return nil
}

// ExpireSessions implements the storage interface method.
func (s *KV) ExpireSessions(ctx context.Context, lastSeenBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired int
	for _, sessionID := range kv.KeysWithPrefix(ctx, s.seenStore, "") {
		raw, err := s.seenStore.Get(ctx, sessionID)
		if errors.Is(err, kv.ErrKeyNotFound) {
			continue
		} else if err != nil {
			return expired, fmt.Errorf("getting session last seen: %w", err)
		}
		seen, err := time.Parse(time.RFC3339Nano, string(raw))
		if err == nil && !seen.Before(lastSeenBefore) {
			continue
		}
		// unparseable times are treated as expired
		flows := kv.KeysWithPrefix(ctx, s.flowStore, sessionID+keySep)
		if err = kv.DeleteSlice(ctx, s.flowStore, flows); err != nil {
			return expired, fmt.Errorf("deleting session flows: %w", err)
		}
		if err = s.seenStore.Delete(ctx, sessionID); err != nil {
			return expired, fmt.Errorf("deleting session last seen: %w", err)
		}
		expired++
	}
	return expired, nil
}
