// Package logkeys defines some static logging keys for consistent structured logging output.
// Mostly exists as a mental aid when drafting log messages.
package logkeys

const (
	Message = "msg"
	Error   = "err"

	// the browser session a flow belongs to.
	SessionID = "session_id"

	// the opaque per-tab workflow instance ID.
	FlowID = "flow_id"

	State   = "state"
	Event   = "event"
	Section = "section"

	// a context-dependent numerical count/length of something
	GenericCount = "count"
)
