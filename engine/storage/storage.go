// Package storage defines types and primitives for flow registry storage backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/micromdm/nanointake/workflow"
)

var (
	ErrMissingSessionID = errors.New("missing session id")
	ErrMissingFlowID    = errors.New("missing flow id")
	ErrNilSnapshot      = errors.New("nil snapshot")
)

// FlowStorage is the per-session flow registry.
// Each session maps opaque flow IDs to the latest snapshot of that flow.
type FlowStorage interface {
	// RetrieveSnapshot returns the latest snapshot of flowID in sessionID.
	// A nil snapshot and nil error are returned if no such flow exists.
	RetrieveSnapshot(ctx context.Context, sessionID, flowID string) (*workflow.Snapshot, error)

	// StoreSnapshot creates or overwrites the snapshot of flowID in sessionID.
	// Implementations also refresh the session's last-seen time.
	StoreSnapshot(ctx context.Context, sessionID, flowID string, s *workflow.Snapshot) error
}

// SessionExpirer is implemented by backends that expire sessions themselves.
// Backends with native key expiry (e.g. Redis) need not implement it.
type SessionExpirer interface {
	// ExpireSessions deletes every flow of sessions last seen before lastSeenBefore.
	// The number of expired sessions is returned.
	ExpireSessions(ctx context.Context, lastSeenBefore time.Time) (int, error)
}

// AllStorage is a flow registry that also expires its own sessions.
type AllStorage interface {
	FlowStorage
	SessionExpirer
}

// Validate checks the common storage method arguments.
func Validate(sessionID, flowID string) error {
	if sessionID == "" {
		return ErrMissingSessionID
	}
	if flowID == "" {
		return ErrMissingFlowID
	}
	return nil
}
