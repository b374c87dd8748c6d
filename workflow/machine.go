package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// StateMeta is static, per-state display and navigation metadata.
// It is never consulted for transition logic.
type StateMeta struct {
	// Route is the path template of the state's page. Segments starting
	// with a colon are path parameters; ":lang" is the display language.
	Route string
}

// DefaultMeta returns the navigation metadata for every state.
func DefaultMeta() map[State]StateMeta {
	meta := make(map[State]StateMeta)
	for _, s := range States() {
		meta[s] = StateMeta{Route: "/:lang/apply/" + string(s)}
	}
	return meta
}

// Machine is the static intake workflow definition.
type Machine struct {
	meta map[State]StateMeta
}

// NewMachine creates a new workflow machine using meta for state navigation.
func NewMachine(meta map[State]StateMeta) *Machine {
	m := &Machine{meta: make(map[State]StateMeta, len(meta))}
	for k, v := range meta {
		m.meta[k] = v
	}
	return m
}

// Default is the intake workflow with its default navigation metadata.
var Default = NewMachine(DefaultMeta())

// Meta returns the metadata for state s.
func (m *Machine) Meta(s State) (StateMeta, bool) {
	meta, ok := m.meta[s]
	return meta, ok
}

// Validate checks the definition for integrity problems.
func (m *Machine) Validate() error {
	var errs []error
	for _, s := range States() {
		meta, ok := m.meta[s]
		if !ok || meta.Route == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingStateMeta, s))
		} else if !strings.Contains(meta.Route, ":lang") {
			errs = append(errs, fmt.Errorf("route for %s missing :lang parameter: %s", s, meta.Route))
		}
	}
	for sec, s := range sectionStates {
		if s.index() < 0 {
			errs = append(errs, fmt.Errorf("section %s collected in non-chain state %s", sec, s))
		}
	}
	return errors.Join(errs...)
}

func undefined(s State, ev Event) error {
	return NewError(CodeUndefinedTransition, fmt.Errorf("%w: state %s: event %s", ErrUndefinedTransition, s, ev.Name()))
}

// advance moves next to the state following from.
func advance(next *Snapshot, from State) {
	i := from.index()
	if i+1 < len(chain) {
		next.State = chain[i+1]
	}
}

// submitted clears the draft of sec after its record was written.
func submitted(c *MachineContext, sec Section) {
	delete(c.FormData, sec)
	if len(c.FormData) == 0 {
		c.FormData = nil
	}
}

// Transition computes the snapshot that results from applying ev to s.
// The result depends only on s and ev; s is never modified.
func (m *Machine) Transition(s Snapshot, ev Event) (Snapshot, error) {
	if ev == nil {
		return s, errors.New("nil event")
	}
	if s.State.Terminal() {
		return s, NewError(CodeTerminalState, fmt.Errorf("%w: %s: event %s", ErrTerminalState, s.State, ev.Name()))
	}
	if !s.State.Valid() {
		return s, undefined(s.State, ev)
	}

	next := s.Clone()
	c := &next.Context

	// submit events are only accepted by the state that owns the section
	var want State

	switch e := ev.(type) {
	case Cancel:
		return NewSnapshot(), nil
	case Exit:
		next.State = StateExited
		return next, nil
	case SetFormData:
		if _, ok := sectionStates[e.Section]; !ok {
			return s, NewError(CodeUnknownSection, fmt.Errorf("%w: %q", ErrUnknownSection, e.Section))
		}
		if c.FormData == nil {
			c.FormData = make(map[Section]*Draft)
		}
		d := e.Draft.clone()
		if len(d.Values) == 0 {
			d.Values = nil
		}
		if len(d.Errors) == 0 {
			d.Errors = nil
		}
		c.FormData[e.Section] = d
		return next, nil
	case Prev:
		i := s.State.index()
		if i < 1 {
			return s, undefined(s.State, ev)
		}
		next.State = chain[i-1]
		return next, nil
	case SubmitReview:
		if s.State != StateReview {
			return s, undefined(s.State, ev)
		}
		next.State = InitialState
		return next, nil
	case SubmitPrivacyStatement:
		want = StatePrivacyStatement
		c.PrivacyStatement = &e.Data
	case SubmitRequestDetails:
		want = StateRequestDetails
		c.RequestDetails = &e.Data
	case SubmitPrimaryDocuments:
		want = StatePrimaryDocs
		c.PrimaryDocuments = &e.Data
	case SubmitSecondaryDocument:
		want = StateSecondaryDocs
		c.SecondaryDocument = &e.Data
	case SubmitCurrentNameInfo:
		want = StateNameInfo
		c.CurrentNameInfo = &e.Data
	case SubmitPersonalInformation:
		want = StatePersonalInfo
		c.PersonalInformation = &e.Data
	case SubmitBirthDetails:
		want = StateBirthInfo
		c.BirthDetails = &e.Data
	case SubmitParentDetails:
		want = StateParentInfo
		c.ParentDetails = &e.Data
	case SubmitPreviousSIN:
		want = StatePreviousSINInfo
		c.PreviousSIN = &e.Data
	case SubmitContactInformation:
		want = StateContactInfo
		c.ContactInformation = &e.Data
	default:
		return s, undefined(s.State, ev)
	}

	if s.State != want {
		return s, undefined(s.State, ev)
	}
	sec, _ := SectionForState(want)
	submitted(c, sec)
	advance(&next, want)

	// the event payload may share slices with the caller
	return next.Clone(), nil
}
