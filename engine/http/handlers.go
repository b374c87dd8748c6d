// Package http contains HTTP handlers that work with the NanoIntake engine.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/micromdm/nanointake/engine"
	"github.com/micromdm/nanointake/http/api"
	"github.com/micromdm/nanointake/http/session"
	"github.com/micromdm/nanointake/log/logkeys"
	"github.com/micromdm/nanointake/subsystem/section"
	"github.com/micromdm/nanointake/workflow"

	"github.com/alexedwards/flow"
	"github.com/micromdm/nanolib/log"
	"github.com/micromdm/nanolib/log/ctxlog"
)

var (
	ErrNoSession     = errors.New("no session")
	ErrUnknownAction = errors.New("unknown action")
)

// Form actions for page submissions.
const (
	ActionNext   = "next"
	ActionBack   = "back"
	ActionCancel = "cancel"
	ActionExit   = "exit"
)

// FlowCreator starts new flows.
type FlowCreator interface {
	NewFlowID() string
	CreateActor(ctx context.Context, sessionID, flowID string) (*engine.Actor, error)
}

// statusCode maps application errors to HTTP status codes.
func statusCode(err error) int {
	switch workflow.CodeOf(err) {
	case workflow.CodeUnknownSection, workflow.CodeInvalidTargetState:
		return http.StatusBadRequest
	case workflow.CodeUndefinedTransition, workflow.CodeTerminalState:
		return http.StatusConflict
	}
	if errors.Is(err, ErrUnknownAction) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func handleError(w http.ResponseWriter, logger log.Logger, msg string, err error) {
	logger.Info(logkeys.Message, msg, logkeys.Error, err)
	api.JSONError(w, err, statusCode(err))
}

// redirectToState redirects to the location of a's current state.
func redirectToState(w http.ResponseWriter, r *http.Request, logger log.Logger, prefix string, a *engine.Actor, code int) {
	loc, err := ResolveLocation(a, r)
	if err != nil {
		handleError(w, logger, "resolving location", err)
		return
	}
	http.Redirect(w, r, prefix+loc, code)
}

// pageView is the JSON representation of a flow page.
type pageView struct {
	FlowID  string                   `json:"flow_id"`
	State   workflow.State           `json:"state"`
	Section workflow.Section         `json:"section,omitempty"`
	Record  interface{}              `json:"record,omitempty"`
	Draft   *workflow.Draft          `json:"draft,omitempty"`
	Context *workflow.MachineContext `json:"context,omitempty"`
}

func newPageView(a *engine.Actor) *pageView {
	v := &pageView{FlowID: a.ID(), State: a.State()}
	c := a.Context()
	if sec, ok := workflow.SectionForState(v.State); ok {
		v.Section = sec
		v.Record = c.Record(sec)
		v.Draft = c.Draft(sec)
	} else {
		// review and exited pages show everything collected
		v.Context = &c
	}
	return v
}

func writeView(w http.ResponseWriter, logger log.Logger, a *engine.Actor) {
	if err := api.JSONResponse(w, newPageView(a)); err != nil {
		logger.Info(logkeys.Message, "encoding json response", logkeys.Error, err)
	}
}

// load is the common prologue of the flow page handlers.
// A nil result means the response has already been written.
func load(w http.ResponseWriter, r *http.Request, logger log.Logger, l *Loader, opts ...LoadOption) *Result {
	sessionID := session.FromContext(r.Context())
	if sessionID == "" {
		handleError(w, logger, "loading flow", ErrNoSession)
		return nil
	}
	res, err := l.LoadOrRedirect(r, sessionID, opts...)
	if err != nil {
		handleError(w, logger, "loading flow", err)
		return nil
	}
	if res.Redirect() {
		http.Redirect(w, r, res.RedirectTo, http.StatusSeeOther)
		return nil
	}
	return res
}

// StartHandler creates a HandlerFunc that starts a new flow and
// redirects to its first page.
func StartHandler(c FlowCreator, prefix string, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		sessionID := session.FromContext(r.Context())
		if sessionID == "" {
			handleError(w, logger, "starting flow", ErrNoSession)
			return
		}
		flowID := c.NewFlowID()
		logger = logger.With(logkeys.FlowID, flowID)
		a, err := c.CreateActor(r.Context(), sessionID, flowID)
		if err != nil {
			handleError(w, logger, "starting flow", err)
			return
		}
		logger.Debug(logkeys.Message, "started flow")
		redirectToState(w, r, logger, prefix, a, http.StatusFound)
	}
}

// PageHandler creates a HandlerFunc that shows the page of state.
// The flow is moved to state keeping its context.
func PageHandler(l *Loader, state workflow.State, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger).With(logkeys.State, state)
		res := load(w, r, logger, l, WithTargetState(state))
		if res == nil {
			return
		}
		writeView(w, logger.With(logkeys.FlowID, res.FlowID), res.Actor)
	}
}

// formEvent converts a page form submission in state into an event.
// Failed validation produces a draft of the submitted values.
func formEvent(state workflow.State, values url.Values) (workflow.Event, error) {
	switch action := values.Get("action"); action {
	case "", ActionNext:
		if state == workflow.StateReview {
			return workflow.SubmitReview{}, nil
		}
		sec, ok := workflow.SectionForState(state)
		if !ok {
			return nil, fmt.Errorf("%w: %s in state %s", ErrUnknownAction, ActionNext, state)
		}
		ev, errs := section.Validate(sec, values)
		if errs != nil {
			return workflow.SetFormData{
				Section: sec,
				Draft: workflow.Draft{
					Values: section.DraftValues(values),
					Errors: errs,
				},
			}, nil
		}
		return ev, nil
	case ActionBack:
		return workflow.Prev{}, nil
	case ActionCancel:
		return workflow.Cancel{}, nil
	case ActionExit:
		return workflow.Exit{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// SubmitHandler creates a HandlerFunc that handles the form posted to
// the page of state and redirects to the resulting state's page.
// Invalid input redirects back to the same page with a draft.
func SubmitHandler(l *Loader, state workflow.State, prefix string, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger).With(logkeys.State, state)
		res := load(w, r, logger, l, WithTargetState(state))
		if res == nil {
			return
		}
		logger = logger.With(logkeys.FlowID, res.FlowID)
		if err := r.ParseForm(); err != nil {
			logger.Info(logkeys.Message, "parsing form", logkeys.Error, err)
			api.JSONError(w, err, http.StatusBadRequest)
			return
		}
		ev, err := formEvent(state, r.PostForm)
		if err != nil {
			handleError(w, logger, "form event", err)
			return
		}
		if _, err = res.Actor.Send(r.Context(), ev); err != nil {
			handleError(w, logger.With(logkeys.Event, ev.Name()), "sending event", err)
			return
		}
		redirectToState(w, r, logger, prefix, res.Actor, http.StatusSeeOther)
	}
}

// EditHandler creates a HandlerFunc that jumps a flow to the state
// collecting the section named in the path and redirects to its page.
func EditHandler(l *Loader, prefix string, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		name := flow.Param(r.Context(), "section")
		sec, err := workflow.SectionForName(name)
		if err != nil {
			handleError(w, logger.With(logkeys.Section, name), "edit section", err)
			return
		}
		res := load(w, r, logger, l, WithTargetState(sec.State()))
		if res == nil {
			return
		}
		redirectToState(w, r, logger, prefix, res.Actor, http.StatusFound)
	}
}

// ExitedHandler creates a HandlerFunc that shows an exited flow.
// Flows that have not exited are redirected to their current page.
func ExitedHandler(l *Loader, prefix string, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := ctxlog.Logger(r.Context(), logger)
		res := load(w, r, logger, l)
		if res == nil {
			return
		}
		if !res.Actor.State().Terminal() {
			redirectToState(w, r, logger, prefix, res.Actor, http.StatusFound)
			return
		}
		writeView(w, logger.With(logkeys.FlowID, res.FlowID), res.Actor)
	}
}
