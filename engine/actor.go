package engine

import (
	"context"
	"fmt"

	"github.com/micromdm/nanointake/log/logkeys"
	"github.com/micromdm/nanointake/workflow"

	"github.com/micromdm/nanolib/log/ctxlog"
)

// Actor is a live, request-scoped instance of one flow.
// It is reconstructed from storage on every request and is not safe
// for concurrent use.
type Actor struct {
	id        string
	sessionID string
	snapshot  workflow.Snapshot
	engine    *Engine
}

func (e *Engine) newActor(sessionID, flowID string, s workflow.Snapshot) *Actor {
	return &Actor{
		id:        flowID,
		sessionID: sessionID,
		snapshot:  s,
		engine:    e,
	}
}

// ID returns the flow ID.
func (a *Actor) ID() string {
	return a.id
}

// SessionID returns the ID of the session the flow belongs to.
func (a *Actor) SessionID() string {
	return a.sessionID
}

// Snapshot returns a copy of the current snapshot.
func (a *Actor) Snapshot() workflow.Snapshot {
	return a.snapshot.Clone()
}

// State returns the current state.
func (a *Actor) State() workflow.State {
	return a.snapshot.State
}

// Meta returns the navigation metadata of the current state.
func (a *Actor) Meta() (workflow.StateMeta, bool) {
	return a.engine.machine.Meta(a.snapshot.State)
}

// Context returns a copy of the current context.
func (a *Actor) Context() workflow.MachineContext {
	return a.snapshot.Context.Clone()
}

// Send applies ev to the flow and persists the resulting snapshot.
// The actor only moves to the new snapshot once it has been stored;
// on any error the actor keeps its previous snapshot.
func (a *Actor) Send(ctx context.Context, ev workflow.Event) (workflow.Snapshot, error) {
	e := a.engine
	logger := ctxlog.Logger(ctx, e.logger).With(
		logkeys.SessionID, a.sessionID,
		logkeys.FlowID, a.id,
		logkeys.State, a.snapshot.State,
	)
	if ev != nil {
		logger = logger.With(logkeys.Event, ev.Name())
	}

	next, err := e.machine.Transition(a.snapshot, ev)
	if err != nil {
		e.metrics.reject(ev, a.snapshot.State)
		return a.Snapshot(), logAndError(err, logger, "transition")
	}

	if _, ok := ev.(workflow.SubmitReview); ok && e.hook != nil {
		if err = e.hook(ctx, a.id, a.Snapshot()); err != nil {
			return a.Snapshot(), logAndError(err, logger, "final submit hook")
		}
	}

	if err = e.storage.StoreSnapshot(ctx, a.sessionID, a.id, &next); err != nil {
		return a.Snapshot(), logAndError(err, logger, "storing snapshot")
	}

	e.metrics.transition(ev, a.snapshot.State, next.State)
	logger.Debug(
		logkeys.Message, fmt.Sprintf("transitioned to %s", next.State),
	)
	a.snapshot = next
	return a.Snapshot(), nil
}
