/*
Package workflow defines the intake workflow: its states, events, carried
context and transition table.

# States

The workflow is a linear chain of form pages (privacy statement, request
details, primary documents, ... contact information, review) plus a
terminal exited state. Every non-terminal state accepts the global Cancel,
Exit and SetFormData events. Each state also accepts Prev (except the
initial state) and exactly one Submit event carrying its section's
validated data. Submitting from review returns the flow to the initial
state.

# Context

MachineContext holds one optional record per section. A record is only
written by that section's Submit event and a successful submit removes any
draft for the section from FormData. Drafts are how a page redisplays what
was typed after a failed validation without touching the validated record.

# Snapshots

A Snapshot is the state name plus the context. Transition never modifies
its input: every event produces a new Snapshot. Snapshots are the only
thing persisted; anything that runs a flow is rebuilt from a Snapshot per
request.

# Meta

Each state has StateMeta describing where its page lives. Meta is used for
navigation only. Machine.Validate reports states without meta which would
otherwise only be discovered when a flow reaches them.
*/
package workflow
