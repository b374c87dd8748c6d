package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/micromdm/nanointake/http/lang"
	"github.com/micromdm/nanointake/workflow"

	"github.com/alexedwards/flow"
)

// FlowIDParam is the query parameter carrying the flow ID.
const FlowIDParam = "id"

var ErrMissingPathParam = errors.New("missing path parameter")

// Locatable is a flow whose current state can be navigated to.
type Locatable interface {
	ID() string
	State() workflow.State
	Meta() (workflow.StateMeta, bool)
}

func language(r *http.Request) (string, error) {
	l, ok := lang.FromContext(r.Context())
	if !ok {
		return "", workflow.NewError(
			workflow.CodeMissingLanguage,
			errors.New("display language not resolved for request"),
		)
	}
	return l, nil
}

// expandRoute substitutes the path parameters of route.
// The display language comes from the request context and all other
// parameters from the router. Parameter regular expressions
// (":name|^regex$") are dropped.
func expandRoute(r *http.Request, route string) (string, error) {
	segments := strings.Split(route, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name, _, _ := strings.Cut(seg[1:], "|")
		var v string
		if name == lang.Param {
			l, err := language(r)
			if err != nil {
				return "", err
			}
			v = l
		} else if v = flow.Param(r.Context(), name); v == "" {
			return "", fmt.Errorf("%w: %s", ErrMissingPathParam, name)
		}
		segments[i] = url.PathEscape(v)
	}
	return strings.Join(segments, "/"), nil
}

// ResolveLocation returns the location of a's current state for the
// display language and path parameters of r. The flow ID is kept as a
// query parameter. Errors indicate a broken workflow definition or
// routing configuration.
func ResolveLocation(a Locatable, r *http.Request) (string, error) {
	if _, err := language(r); err != nil {
		return "", err
	}
	meta, ok := a.Meta()
	if !ok {
		return "", workflow.NewError(
			workflow.CodeMissingStateMeta,
			fmt.Errorf("%w: %s", workflow.ErrMissingStateMeta, a.State()),
		)
	}
	loc, err := expandRoute(r, meta.Route)
	if err != nil {
		return "", err
	}
	return loc + "?" + url.Values{FlowIDParam: {a.ID()}}.Encode(), nil
}
