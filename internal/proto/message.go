package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello  = "hello"
	InboundTypeMsg    = "msg"
	InboundTypeDelete = "delete"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameMessage = "message"
	EventNameDeleted = "deleted"
)

// HelloData is the client handshake: the credential token, whether the
// client's own transport recovery already resumed the session, and the last
// message id the client has seen (fresh handshakes only; 0 or absent asks
// for the full log).
type HelloData struct {
	Token    string `json:"token,omitempty"`
	Resumed  bool   `json:"resumed,omitempty"`
	LastID   int64  `json:"last_id,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// MsgData is a relay message from the client.
type MsgData struct {
	Text string `json:"text"`
}

// DeleteData asks to delete a message by id. The id travels as a string.
type DeleteData struct {
	ID string `json:"id"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage carries one relayed message. Replayed history uses this same
// shape.
type EventMessage struct {
	ID   int64  `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// EventDeleted invalidates a deleted message.
type EventDeleted struct {
	ID int64 `json:"id"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
