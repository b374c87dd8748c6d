// Package engine implements the NanoIntake workflow engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/micromdm/nanointake/engine/storage"
	"github.com/micromdm/nanointake/log/logkeys"
	"github.com/micromdm/nanointake/utils/uuid"
	"github.com/micromdm/nanointake/workflow"

	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
)

var ErrInvalidFlowID = errors.New("invalid flow id")

var flowIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidFlowID reports whether id is a well-formed flow ID.
func ValidFlowID(id string) bool {
	return flowIDRe.MatchString(id)
}

// FinalSubmitHook is called with the review snapshot when a flow is
// finally submitted. An error aborts the submission.
type FinalSubmitHook func(ctx context.Context, flowID string, s workflow.Snapshot) error

// Engine creates and loads workflow actors backed by flow storage.
type Engine struct {
	storage storage.FlowStorage
	machine *workflow.Machine
	hook    FinalSubmitHook
	metrics *Metrics

	logger log.Logger
	ider   uuid.IDer
}

// Options configure the engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithIDer sets the flow ID generator.
func WithIDer(ider uuid.IDer) Option {
	return func(e *Engine) {
		e.ider = ider
	}
}

// WithMachine uses m rather than the default workflow definition.
func WithMachine(m *workflow.Machine) Option {
	return func(e *Engine) {
		e.machine = m
	}
}

// WithFinalSubmitHook sets the hook called on review submission.
func WithFinalSubmitHook(hook FinalSubmitHook) Option {
	return func(e *Engine) {
		e.hook = hook
	}
}

// WithMetrics turns on transition metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates a new NanoIntake engine with default configurations.
func New(storage storage.FlowStorage, opts ...Option) *Engine {
	engine := &Engine{
		storage: storage,
		machine: workflow.Default,
		logger:  log.NopLogger,
		ider:    uuid.NewUUID(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Machine returns the workflow definition used by the engine.
func (e *Engine) Machine() *workflow.Machine {
	return e.machine
}

// NewFlowID generates a new opaque flow ID.
func (e *Engine) NewFlowID() string {
	return e.ider.ID()
}

func logAndError(err error, logger log.Logger, msg string) error {
	logger.Info(
		logkeys.Message, msg,
		logkeys.Error, err,
	)
	return fmt.Errorf("%s: %w", msg, err)
}

// CreateActor starts a new flow at the initial state with an empty context.
// The initial snapshot is persisted before returning so the flow can be
// loaded by subsequent requests.
func (e *Engine) CreateActor(ctx context.Context, sessionID, flowID string) (*Actor, error) {
	if !ValidFlowID(flowID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFlowID, flowID)
	}
	logger := ctxlog.Logger(ctx, e.logger).With(
		logkeys.SessionID, sessionID,
		logkeys.FlowID, flowID,
	)
	a := e.newActor(sessionID, flowID, workflow.NewSnapshot())
	if err := e.storage.StoreSnapshot(ctx, sessionID, flowID, &a.snapshot); err != nil {
		return nil, logAndError(err, logger, "storing initial snapshot")
	}
	logger.Debug(
		logkeys.Message, "created flow",
		logkeys.State, a.snapshot.State,
	)
	return a, nil
}

// checkTarget makes sure target is a state a flow may be resumed at.
func (e *Engine) checkTarget(target workflow.State) error {
	if !target.Valid() || target.Terminal() {
		return workflow.NewError(
			workflow.CodeInvalidTargetState,
			fmt.Errorf("%w: %q", workflow.ErrInvalidTargetState, target),
		)
	}
	if _, ok := e.machine.Meta(target); !ok {
		return workflow.NewError(
			workflow.CodeMissingStateMeta,
			fmt.Errorf("%w: %s", workflow.ErrMissingStateMeta, target),
		)
	}
	return nil
}

// LoadActor resumes the flow flowID from storage.
// A nil actor and nil error are returned if the flow does not exist.
// If target is not empty the flow is resumed at target keeping its
// stored context. The moved snapshot is persisted.
func (e *Engine) LoadActor(ctx context.Context, sessionID, flowID string, target workflow.State) (*Actor, error) {
	if target != "" {
		if err := e.checkTarget(target); err != nil {
			return nil, err
		}
	}
	if !ValidFlowID(flowID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFlowID, flowID)
	}
	logger := ctxlog.Logger(ctx, e.logger).With(
		logkeys.SessionID, sessionID,
		logkeys.FlowID, flowID,
	)
	snap, err := e.storage.RetrieveSnapshot(ctx, sessionID, flowID)
	if err != nil {
		return nil, logAndError(err, logger, "retrieving snapshot")
	} else if snap == nil {
		return nil, nil
	}
	a := e.newActor(sessionID, flowID, *snap)
	if target == "" || target == snap.State {
		return a, nil
	}
	a.snapshot.State = target
	if err = e.storage.StoreSnapshot(ctx, sessionID, flowID, &a.snapshot); err != nil {
		return nil, logAndError(err, logger, "storing target snapshot")
	}
	logger.Debug(
		logkeys.Message, "resumed flow at target",
		"from", snap.State,
		logkeys.State, target,
	)
	return a, nil
}
