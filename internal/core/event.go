package core

import "github.com/vovakirdan/wirerelay-server/internal/store"

// EventKind is a notification the hub emits to connections.
type EventKind int

const (
	// EventMessage carries one durably appended message, fanned out to all
	// registered connections.
	EventMessage EventKind = iota
	// EventDeleted invalidates a removed message by id, fanned out to all
	// registered connections.
	EventDeleted
	// EventReplay privately delivers missed history to one freshly
	// registered connection. On the wire each record is rendered as an
	// ordinary message event.
	EventReplay
)

// Event describes what happened in the relay.
type Event struct {
	Kind EventKind

	// Message is set for EventMessage.
	Message *store.Message
	// Deleted is the removed message id, set for EventDeleted.
	Deleted int64
	// Messages is the ascending replay batch, set for EventReplay.
	Messages []*store.Message
}
