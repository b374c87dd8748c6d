package http

import (
	"fmt"
	"net/http"

	"github.com/micromdm/nanointake/workflow"

	"github.com/micromdm/nanolib/log"
)

// EditRoute is the route template of the review page's edit links.
const EditRoute = "/:lang/apply/review/edit/:section"

type APIEngine interface {
	FlowCreator
	ActorLoader
	Machine() *workflow.Machine
}

// Mux can register HTTP handlers.
// Ostensibly this supports flow router.
type Mux interface {
	// Handle registers the handler for the given pattern.
	Handle(pattern string, handler http.Handler, methods ...string)
}

// HandleApply registers the intake page handlers into mux.
// Page paths are the state routes of the engine's workflow prepended
// with prefix. Session and language middleware are not present.
// They are assumed to be layered with mux (e.g. with its Use method).
// The logger is adorned with a "handler" key of the endpoint name.
func HandleApply(prefix string, mux Mux, logger log.Logger, e APIEngine) error {
	m := e.Machine()
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validating workflow: %w", err)
	}

	l := NewLoader(
		e,
		WithLoaderLogger(logger.With("handler", "loader")),
		WithDefaultFallback(prefix+DefaultStartRoute),
	)

	mux.Handle(
		prefix+DefaultStartRoute,
		StartHandler(e, prefix, logger.With("handler", "start")),
		"GET",
	)

	for _, s := range workflow.Chain() {
		meta, _ := m.Meta(s)
		mux.Handle(
			prefix+meta.Route,
			PageHandler(l, s, logger.With("handler", "page")),
			"GET",
		)
		mux.Handle(
			prefix+meta.Route,
			SubmitHandler(l, s, prefix, logger.With("handler", "submit")),
			"POST",
		)
	}

	meta, _ := m.Meta(workflow.StateExited)
	mux.Handle(
		prefix+meta.Route,
		ExitedHandler(l, prefix, logger.With("handler", "exited")),
		"GET",
	)

	mux.Handle(
		prefix+EditRoute,
		EditHandler(l, prefix, logger.With("handler", "edit")),
		"GET",
	)

	return nil
}
