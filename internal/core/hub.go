package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/wirerelay-server/internal/metrics"
	"github.com/vovakirdan/wirerelay-server/internal/store"
)

// commandQueueSize bounds the hub inbox. Submitters block briefly when the
// loop falls behind; they never block after the loop has stopped.
const commandQueueSize = 64

// Hub owns every relay state transition: registration with history replay,
// durable publish with fan-out, and ownership-gated deletion. All operations
// funnel through one dispatch loop, so the broadcast order every connection
// observes equals the append order, and concurrent deletes of the same id
// resolve deterministically.
type Hub struct {
	messages store.MessageLog
	registry *Registry
	logger   *zerolog.Logger
	metrics  *metrics.Metrics

	commands chan command
	stopped  chan struct{}
}

// NewHub constructs a hub over the given message log. A nil logger disables
// hub logging; a nil metrics value disables instrumentation.
func NewHub(messages store.MessageLog, logger *zerolog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		messages: messages,
		registry: NewRegistry(),
		logger:   logger,
		metrics:  m,
		commands: make(chan command, commandQueueSize),
		stopped:  make(chan struct{}),
	}
}

// Run executes hub commands in arrival order until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			h.dispatch(ctx, cmd)
		}
	}
}

// Register adds a bound connection to the registry. For fresh (non-resumed)
// handshakes the hub replays all messages newer than the connection's
// declared offset, privately, before any later broadcast reaches it.
func (h *Hub) Register(conn *Conn) {
	h.submit(command{kind: cmdRegister, conn: conn})
}

// Unregister removes a connection and closes its event channel.
func (h *Hub) Unregister(conn *Conn) {
	h.submit(command{kind: cmdUnregister, conn: conn})
}

// Publish appends content under the connection's bound identity and fans the
// stored record out to every registered connection, including the sender.
func (h *Hub) Publish(conn *Conn, content string) {
	h.submit(command{kind: cmdPublish, conn: conn, content: content})
}

// Delete removes the message with the given id if the connection's identity
// authored it, then broadcasts an invalidation.
func (h *Hub) Delete(conn *Conn, id int64) {
	h.submit(command{kind: cmdDelete, conn: conn, id: id})
}

func (h *Hub) submit(cmd command) {
	select {
	case h.commands <- cmd:
	case <-h.stopped:
	}
}

func (h *Hub) dispatch(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdRegister:
		h.handleRegister(ctx, cmd.conn)
	case cmdUnregister:
		h.handleUnregister(cmd.conn)
	case cmdPublish:
		h.handlePublish(ctx, cmd.conn, cmd.content)
	case cmdDelete:
		h.handleDelete(ctx, cmd.conn, cmd.id)
	}
}

func (h *Hub) handleRegister(ctx context.Context, conn *Conn) {
	if !h.registry.Add(conn) {
		return
	}
	h.metrics.ConnOpened()
	h.logger.Info().
		Str("conn_id", conn.ID).
		Str("user", conn.Identity).
		Bool("resumed", conn.Resumed).
		Int64("offset", conn.Offset).
		Msg("connection registered")

	// A resumed connection's own transport recovery already redelivered
	// anything missed; replaying again would duplicate.
	if conn.Resumed {
		return
	}

	msgs, err := h.messages.FindAfter(ctx, conn.Offset)
	if err != nil {
		h.metrics.StorageError()
		h.logger.Error().Err(err).Str("conn_id", conn.ID).Msg("history replay failed")
		return
	}
	if len(msgs) == 0 {
		return
	}
	if !conn.trySend(&Event{Kind: EventReplay, Messages: msgs}) {
		h.metrics.EventsDropped(1)
		h.logger.Warn().Str("conn_id", conn.ID).Msg("replay dropped, connection buffer full")
		return
	}
	h.metrics.MessagesReplayed(len(msgs))
}

func (h *Hub) handleUnregister(conn *Conn) {
	if !h.registry.Remove(conn) {
		return
	}
	close(conn.Events)
	h.metrics.ConnClosed()
	h.logger.Info().
		Str("conn_id", conn.ID).
		Str("user", conn.Identity).
		Msg("connection unregistered")
}

func (h *Hub) handlePublish(ctx context.Context, conn *Conn, content string) {
	if content == "" {
		h.logger.Debug().Str("conn_id", conn.ID).Msg("empty message ignored")
		return
	}

	msg, err := h.messages.Append(ctx, content, conn.Identity)
	if err != nil {
		// Fail fast: the message is dropped, never queued for retry.
		h.metrics.StorageError()
		h.logger.Error().Err(err).Str("conn_id", conn.ID).Msg("append failed, message dropped")
		return
	}
	h.metrics.MessagePublished()

	dropped := h.registry.Broadcast(&Event{Kind: EventMessage, Message: msg})
	h.metrics.EventsDropped(dropped)
	if dropped > 0 {
		h.logger.Warn().Int("dropped", dropped).Int64("id", msg.ID).Msg("broadcast skipped slow connections")
	}
}

func (h *Hub) handleDelete(ctx context.Context, conn *Conn, id int64) {
	msg, err := h.messages.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.logger.Debug().Int64("id", id).Msg("delete of absent message ignored")
			return
		}
		h.metrics.StorageError()
		h.logger.Error().Err(err).Int64("id", id).Msg("delete lookup failed")
		return
	}

	// Authorship is the only grant. The requester gets no reply either
	// way, so a non-owner cannot even confirm the message exists.
	if msg.Author != conn.Identity {
		h.logger.Warn().
			Str("user", conn.Identity).
			Str("author", msg.Author).
			Int64("id", id).
			Msg("delete rejected, requester is not the author")
		return
	}

	if err := h.messages.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.logger.Debug().Int64("id", id).Msg("message already deleted")
			return
		}
		h.metrics.StorageError()
		h.logger.Error().Err(err).Int64("id", id).Msg("delete failed")
		return
	}
	h.metrics.MessageDeleted()

	dropped := h.registry.Broadcast(&Event{Kind: EventDeleted, Deleted: id})
	h.metrics.EventsDropped(dropped)
}
