package core

// commandKind describes a hub operation.
type commandKind int

const (
	// cmdRegister adds a connection to the registry and replays missed
	// history when the handshake was not resumed.
	cmdRegister commandKind = iota
	// cmdUnregister removes a connection and closes its event channel.
	cmdUnregister
	// cmdPublish appends a message and fans it out.
	cmdPublish
	// cmdDelete removes a message after an authorship check and fans out
	// the invalidation.
	cmdDelete
)

// command is the envelope submitted to the hub's dispatch loop. The loop
// executes commands strictly in arrival order, which is what makes broadcast
// order equal append order.
type command struct {
	kind    commandKind
	conn    *Conn
	content string // cmdPublish
	id      int64  // cmdDelete
}
