package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition  EventType = "transition"
	EventStateBuilt  EventType = "state_built"
	EventStateEvict  EventType = "state_evicted"
	EventUnhandled   EventType = "unhandled_input"
	EventOutputFired EventType = "output_fired"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Machine   string    `json:"machine,omitempty"`
}

// TransitionEvent describes one evaluated input.
type TransitionEvent struct {
	EventBase
	From  string `json:"from"`
	Input string `json:"input"`
	To    string `json:"to,omitempty"`
}

// StateEvent describes the construction or eviction of a resident state object.
type StateEvent struct {
	EventBase
	State string `json:"state"`
}

// LifecycleHooks defines callbacks for machine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnTransition   func(context.Context, *TransitionEvent)
	OnUnhandled    func(context.Context, *TransitionEvent)
	OnStateBuilt   func(context.Context, *StateEvent)
	OnStateEvicted func(context.Context, *StateEvent)
}

// NewBase stamps an event header.
func NewBase(t EventType, machine string) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t, Machine: machine}
}
