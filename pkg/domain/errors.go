package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in a store.
var ErrSessionNotFound = errors.New("session not found")

// ErrActorClosed is returned when an event is dispatched to an actor that has
// already been stopped (e.g. evicted by the registry).
var ErrActorClosed = errors.New("actor closed")

// ErrMachineDefinition is returned when an actor is created with a nil or
// incomplete machine definition.
var ErrMachineDefinition = errors.New("invalid machine definition")
