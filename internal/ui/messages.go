package ui

import "autoa/internal/eventbus"

// EventMsg wraps a bus event for delivery through the Bubble Tea program.
// main forwards every bus event it subscribes to as one of these.
type EventMsg struct {
	Event eventbus.DomainEvent
}

// tickMsg drives the periodic status refresh.
type tickMsg struct{}
