package core

// eventBufferSize bounds how many undelivered events a connection may hold
// before the hub starts dropping for that connection alone.
const eventBufferSize = 16

// Conn is a relay connection as seen by the core layer. It is created only
// after identity binding succeeds and is never mutated afterwards; a
// connection cannot change identity, it can only be closed.
type Conn struct {
	// ID identifies the connection in logs, not the user.
	ID string
	// Identity is the authenticated author name bound at handshake.
	Identity string
	// Resumed reports that the client's own recovery already replayed
	// anything missed, so the hub must not replay history.
	Resumed bool
	// Offset is the last message id the client has seen. Only meaningful
	// on fresh (non-resumed) handshakes; 0 requests the entire log.
	Offset int64

	// Events carries hub output to this connection's write loop. The hub
	// closes it on unregister.
	Events chan *Event
}

// NewConn constructs a bound connection. A negative offset is treated as 0.
func NewConn(id, identity string, resumed bool, offset int64) *Conn {
	if offset < 0 {
		offset = 0
	}
	return &Conn{
		ID:       id,
		Identity: identity,
		Resumed:  resumed,
		Offset:   offset,
		Events:   make(chan *Event, eventBufferSize),
	}
}

// trySend queues an event without blocking. Returns false when the
// connection's buffer is full and the event was dropped.
func (c *Conn) trySend(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
