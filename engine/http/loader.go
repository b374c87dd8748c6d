package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/micromdm/nanointake/engine"
	"github.com/micromdm/nanointake/http/lang"
	"github.com/micromdm/nanointake/log/logkeys"
	"github.com/micromdm/nanointake/workflow"

	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
)

var (
	// ErrNoFlowID is the redirect reason for a missing or malformed flow ID.
	ErrNoFlowID = errors.New("no flow id")

	// ErrNoActor is the redirect reason for a flow ID unknown to the session.
	ErrNoActor = errors.New("no flow for id")
)

// DefaultStartRoute is the route template of the workflow entry page.
const DefaultStartRoute = "/:lang/apply/start"

// ActorLoader loads flows from storage.
type ActorLoader interface {
	LoadActor(ctx context.Context, sessionID, flowID string, target workflow.State) (*engine.Actor, error)
}

// Result is the outcome of loading a flow for a request.
// Either Actor or RedirectTo is set.
type Result struct {
	FlowID string
	Actor  *engine.Actor

	// RedirectTo is the location the caller should redirect to
	// instead of handling the request. Reason says why.
	RedirectTo string
	Reason     error
}

// Redirect reports whether the caller must redirect.
func (r *Result) Redirect() bool {
	return r.RedirectTo != ""
}

// Loader guards pages with the flow they belong to.
type Loader struct {
	loader   ActorLoader
	fallback string
	logger   log.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the loader logger.
func WithLoaderLogger(logger log.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithDefaultFallback sets the route template redirected to when no flow can be loaded.
func WithDefaultFallback(route string) LoaderOption {
	return func(l *Loader) {
		l.fallback = route
	}
}

// NewLoader creates a new loader that loads flows using loader.
func NewLoader(loader ActorLoader, opts ...LoaderOption) *Loader {
	l := &Loader{
		loader:   loader,
		fallback: DefaultStartRoute,
		logger:   log.NopLogger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type loadConfig struct {
	target   workflow.State
	fallback string
}

// LoadOption configures a single load.
type LoadOption func(*loadConfig)

// WithTargetState resumes the flow at s rather than its stored state.
func WithTargetState(s workflow.State) LoadOption {
	return func(c *loadConfig) {
		c.target = s
	}
}

// WithFallback overrides the redirect route template for a single load.
func WithFallback(route string) LoadOption {
	return func(c *loadConfig) {
		c.fallback = route
	}
}

// fallbackLocation expands route for r.
// The default language is used when none was resolved so that the
// redirect itself never fails.
func fallbackLocation(r *http.Request, route string) string {
	if _, ok := lang.FromContext(r.Context()); !ok {
		r = r.WithContext(lang.NewContext(r.Context(), lang.Default()))
	}
	loc, err := expandRoute(r, route)
	if err != nil {
		return "/"
	}
	return loc
}

// LoadOrRedirect loads the flow named by the request's flow ID query
// parameter from session sessionID. A missing or malformed flow ID and a
// flow unknown to the session are not errors: the returned result then
// names a fallback location to redirect to. Errors are only returned for
// storage failures and invalid target states.
func (l *Loader) LoadOrRedirect(r *http.Request, sessionID string, opts ...LoadOption) (*Result, error) {
	c := &loadConfig{fallback: l.fallback}
	for _, opt := range opts {
		opt(c)
	}
	logger := ctxlog.Logger(r.Context(), l.logger)

	redirect := func(flowID string, reason error) (*Result, error) {
		res := &Result{
			FlowID:     flowID,
			RedirectTo: fallbackLocation(r, c.fallback),
			Reason:     reason,
		}
		logger.Debug(
			logkeys.Message, "redirecting to fallback",
			logkeys.FlowID, flowID,
			"reason", reason,
			"location", res.RedirectTo,
		)
		return res, nil
	}

	flowID := r.URL.Query().Get(FlowIDParam)
	if !engine.ValidFlowID(flowID) {
		return redirect(flowID, ErrNoFlowID)
	}

	a, err := l.loader.LoadActor(r.Context(), sessionID, flowID, c.target)
	if err != nil {
		return nil, err
	} else if a == nil {
		return redirect(flowID, ErrNoActor)
	}
	return &Result{FlowID: flowID, Actor: a}, nil
}
