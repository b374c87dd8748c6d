package workflow

// State is a named state of the intake workflow.
type State string

const (
	StatePrivacyStatement State = "privacy-statement"
	StateRequestDetails   State = "request-details"
	StatePrimaryDocs      State = "primary-docs"
	StateSecondaryDocs    State = "secondary-docs"
	StateNameInfo         State = "name-info"
	StatePersonalInfo     State = "personal-info"
	StateBirthInfo        State = "birth-info"
	StateParentInfo       State = "parent-info"
	StatePreviousSINInfo  State = "previous-sin-info"
	StateContactInfo      State = "contact-info"
	StateReview           State = "review"

	// StateExited is terminal. No events are accepted once a flow has exited.
	StateExited State = "exited"
)

// InitialState is the state every new (or cancelled) flow starts in.
const InitialState = StatePrivacyStatement

// chain is the fixed order of the non-terminal states.
// Prev and Submit* events move along this chain.
var chain = []State{
	StatePrivacyStatement,
	StateRequestDetails,
	StatePrimaryDocs,
	StateSecondaryDocs,
	StateNameInfo,
	StatePersonalInfo,
	StateBirthInfo,
	StateParentInfo,
	StatePreviousSINInfo,
	StateContactInfo,
	StateReview,
}

// Chain returns a copy of the ordered non-terminal states.
func Chain() []State {
	return append([]State(nil), chain...)
}

// States returns every state, terminal state last.
func States() []State {
	return append(Chain(), StateExited)
}

func (s State) index() int {
	for i, v := range chain {
		if v == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a declared state.
func (s State) Valid() bool {
	return s == StateExited || s.index() >= 0
}

// Terminal reports whether s accepts no events.
func (s State) Terminal() bool {
	return s == StateExited
}

func (s State) String() string {
	return string(s)
}
