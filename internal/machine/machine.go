// Package machine declares the health-assistant conversation graph: a fixed
// set of named states with guarded transitions, delayed transitions and
// invoked tasks, all parameterized by a typed mutable context.
package machine

import (
	"context"
	"time"

	"github.com/petsaude/iasys/pkg/domain"
)

// StateID names one state of the graph.
type StateID string

// GuardFunc decides whether a transition applies. Guards must be pure.
type GuardFunc func(c domain.Context, ev domain.Event) bool

// ActionFunc transforms the context. Actions must be pure: context in,
// context out, no side effects.
type ActionFunc func(c domain.Context, ev domain.Event) domain.Context

// Transition is one candidate edge. Within a list, guards are evaluated in
// declaration order and the first match wins; a nil Guard always matches.
// Guard ordering is a correctness contract: guard sets are not always
// mutually exclusive.
type Transition struct {
	Guard   GuardFunc
	Target  StateID
	Actions []ActionFunc
}

// Delayed is an `after` transition: armed on state entry, fired if the state
// is still active when the delay elapses, cancelled on any other exit.
type Delayed struct {
	Delay  time.Duration
	Target StateID
}

// TaskFunc executes an invoked task out-of-band. The returned string is the
// task output routed through OnDone; an error routes through OnError.
type TaskFunc func(ctx context.Context, input string) (string, error)

// Task wires an asynchronous invoked task into a state. At most one task is
// in flight per state. OnDone is a first-match-wins guarded list keyed on
// the task output (delivered as the event payload).
type Task struct {
	Name    string
	Input   func(c domain.Context) string
	OnDone  []Transition
	OnError []Transition
}

// State is one node of the graph. Entry appends zero or more assistant
// messages to the response buffer (never removes). A state with no handler
// for an incoming event ignores it: no transition, no action.
type State struct {
	ID    StateID
	Final bool

	Entry ActionFunc

	// Transitions are looked up by event type; each list is ordered.
	Transitions map[domain.EventType][]Transition

	// Always transitions are evaluated immediately after entry, before
	// yielding control. Lists must end with an unguarded fallback.
	Always []Transition

	After  *Delayed
	Invoke *Task
}

// Definition is the complete immutable graph plus the task implementations
// the interpreter runs on its behalf.
type Definition struct {
	Initial StateID
	States  map[StateID]*State
	Tasks   map[string]TaskFunc
}

// State returns the node for id, or nil when unknown.
func (d *Definition) State(id StateID) *State {
	return d.States[id]
}

// candidates returns the ordered transition list for an event in a state.
// Internal task events route through the invoke metadata.
func (s *State) candidates(evType domain.EventType) []Transition {
	switch evType {
	case domain.EventTaskDone:
		if s.Invoke != nil {
			return s.Invoke.OnDone
		}
		return nil
	case domain.EventTaskError:
		if s.Invoke != nil {
			return s.Invoke.OnError
		}
		return nil
	case domain.EventTimer:
		if s.After != nil {
			return []Transition{{Target: s.After.Target}}
		}
		return nil
	default:
		return s.Transitions[evType]
	}
}

// Select resolves the transition an event takes in this state, or false when
// the event is unhandled (the caller must treat that as a no-op).
func (s *State) Select(c domain.Context, ev domain.Event) (Transition, bool) {
	for _, tr := range s.candidates(ev.Type) {
		if tr.Guard == nil || tr.Guard(c, ev) {
			return tr, true
		}
	}
	return Transition{}, false
}

// SelectAlways resolves the `always` transition taken on entry, if any.
func (s *State) SelectAlways(c domain.Context, ev domain.Event) (Transition, bool) {
	for _, tr := range s.Always {
		if tr.Guard == nil || tr.Guard(c, ev) {
			return tr, true
		}
	}
	return Transition{}, false
}
