// Package demo supplies a minimal, JSON-friendly Signal implementation for
// cmd/simhttp to construct from request bodies. It exists purely so the
// HTTP front end has something concrete to drive; real callers of package
// actor are expected to define their own state and Signal types.
package demo

import (
	"github.com/BenedictAdamson/desim/actor"
)

// State is a JSON object treated as a flat bag of named values.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	cp := make(State, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// Message is a signal carrying a fixed propagation delay and a set of
// fields merged into the receiver's state on reception.
type Message struct {
	actor.SignalHeader[State]
	Delay  actor.Duration
	Fields map[string]any
}

// NewMessage constructs a Message sent at whenSent, addressed to receiver,
// over medium, with the given fixed propagation delay and fields.
func NewMessage(whenSent actor.Time, receiver *actor.Actor[State], medium *actor.Medium, delay actor.Duration, fields map[string]any) *Message {
	return &Message{
		SignalHeader: actor.NewSignalHeader[State](whenSent, nil, receiver, medium),
		Delay:        delay,
		Fields:       fields,
	}
}

func (m *Message) PropagationDelay(state *State) (actor.Duration, error) {
	return m.Delay, nil
}

func (m *Message) Receive(when actor.Time, state *State) (*actor.Event[State], error) {
	next := (*state).Clone()
	for k, v := range m.Fields {
		next[k] = v
	}
	return actor.NewEvent[State](m, when, &next, nil, nil)
}
