package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/wirerelay-server/internal/config"
	"github.com/vovakirdan/wirerelay-server/internal/core"
	"github.com/vovakirdan/wirerelay-server/internal/metrics"
	"github.com/vovakirdan/wirerelay-server/internal/proto"
)

// WSHandler upgrades HTTP connections, runs the hello handshake, and bridges
// bound connections to the hub.
type WSHandler struct {
	hub     *core.Hub
	binder  *core.Binder
	metrics *metrics.Metrics
	relay   config.Relay
	log     *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, binder *core.Binder, m *metrics.Metrics, relay config.Relay, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, binder: binder, metrics: m, relay: relay, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer ws.Close(websocket.StatusInternalError, "internal error")

	// The handshake must finish before anything downstream sees the
	// connection. A rejection is terminal for this attempt.
	conn, protoErr, err := h.handshake(ctx, ws)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws handshake aborted")
		return
	}
	if protoErr != nil {
		h.metrics.HandshakeFailed(protoErr.Code)
		h.log.Warn().Str("code", protoErr.Code).Msg("ws handshake rejected")
		_ = wsjson.Write(ctx, ws, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr})
		ws.Close(websocket.StatusPolicyViolation, protoErr.Code)
		return
	}

	h.hub.Register(conn)
	defer h.hub.Unregister(conn)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, ws, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, ws, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("ws connection closed with error")
		}
	}

	ws.Close(status, reason)
}

// handshake reads the first frame, which must be a hello, and binds an
// identity to the connection. A non-nil proto.Error means the attempt was
// rejected and which code to tell the client; a non-nil error means the
// transport failed before any verdict.
func (h *WSHandler) handshake(ctx context.Context, ws *websocket.Conn) (*core.Conn, *proto.Error, error) {
	var inbound proto.Inbound
	if err := wsjson.Read(ctx, ws, &inbound); err != nil {
		return nil, nil, err
	}

	if inbound.Type != proto.InboundTypeHello {
		// No hello means no credential material was presented.
		return nil, &proto.Error{Code: core.ErrCodeMissingCredential, Msg: "hello handshake required"}, nil
	}

	// An absent data object is a hello with no token; the binder decides
	// what that means.
	var hello proto.HelloData
	if len(inbound.Data) > 0 {
		if err := json.Unmarshal(inbound.Data, &hello); err != nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed hello payload"}, nil
		}
	}

	if hello.Protocol > proto.ProtocolVersion {
		return nil, &proto.Error{Code: core.ErrCodeUnsupportedVersion, Msg: "protocol version not supported"}, nil
	}

	identity, err := h.binder.Bind(hello.Token)
	if err != nil {
		code := core.ErrCodeInvalidCredential
		if errors.Is(err, core.ErrMissingCredential) {
			code = core.ErrCodeMissingCredential
		}
		return nil, &proto.Error{Code: code, Msg: "credential rejected"}, nil
	}

	return core.NewConn(uuid.NewString(), identity, hello.Resumed, hello.LastID), nil, nil
}

func (h *WSHandler) readLoop(ctx context.Context, ws *websocket.Conn, conn *core.Conn) error {
	var limiter *rate.Limiter
	if h.relay.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.relay.RateLimit), h.relay.RateBurst)
	}

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, ws, &inbound); err != nil {
			return err
		}

		switch inbound.Type {
		case proto.InboundTypeHello:
			// Identity is bound exactly once.
			if err := h.writeError(ctx, ws, core.ErrCodeBadRequest, "already bound"); err != nil {
				return err
			}

		case proto.InboundTypeMsg:
			var msg proto.MsgData
			if len(inbound.Data) > 0 {
				if err := json.Unmarshal(inbound.Data, &msg); err != nil {
					if err := h.writeError(ctx, ws, core.ErrCodeBadRequest, "malformed msg payload"); err != nil {
						return err
					}
					continue
				}
			}
			if limiter != nil && !limiter.Allow() {
				if err := h.writeError(ctx, ws, core.ErrCodeRateLimited, "message rate exceeded"); err != nil {
					return err
				}
				continue
			}
			h.hub.Publish(conn, msg.Text)

		case proto.InboundTypeDelete:
			var del proto.DeleteData
			if len(inbound.Data) > 0 {
				if err := json.Unmarshal(inbound.Data, &del); err != nil {
					if err := h.writeError(ctx, ws, core.ErrCodeBadRequest, "malformed delete payload"); err != nil {
						return err
					}
					continue
				}
			}
			id, err := strconv.ParseInt(del.ID, 10, 64)
			if err != nil {
				if err := h.writeError(ctx, ws, core.ErrCodeBadRequest, "delete id must be numeric"); err != nil {
					return err
				}
				continue
			}
			h.hub.Delete(conn, id)

		default:
			if err := h.writeError(ctx, ws, core.ErrCodeInvalidMessage, "unknown message type"); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, ws *websocket.Conn, conn *core.Conn) error {
	for {
		select {
		case event, ok := <-conn.Events:
			if !ok {
				return nil
			}
			for _, outbound := range outboundsFromEvent(event) {
				if err := wsjson.Write(ctx, ws, outbound); err != nil {
					h.log.Error().Err(err).Str("conn_id", conn.ID).Msg("write ws event")
					return err
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeError(ctx context.Context, ws *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, ws, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	})
}
