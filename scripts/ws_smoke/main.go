package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirerelay-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "credential token (mint one with `wirerelay-server token`)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	lastID := flag.Int64("last-id", 0, "last message id already seen (0 replays everything)")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msgType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: data}); err != nil {
			return fmt.Errorf("send %s: %w", msgType, err)
		}
		return nil
	}

	if err := send(proto.InboundTypeHello, proto.HelloData{
		Token:    *token,
		LastID:   *lastID,
		Protocol: proto.ProtocolVersion,
	}); err != nil {
		return err
	}

	if err := send(proto.InboundTypeMsg, proto.MsgData{Text: *text}); err != nil {
		return err
	}

	// Replay arrives first, then the live echo of our own message.
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if outbound.Error != nil {
			return fmt.Errorf("server error: %s (%s)", outbound.Error.Code, outbound.Error.Msg)
		}

		switch outbound.Event {
		case proto.EventNameMessage:
			var evt proto.EventMessage
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("message: id=%d user=%s text=%q ts=%d\n", evt.ID, evt.User, evt.Text, evt.TS)
			if evt.Text == *text {
				return nil
			}
		case proto.EventNameDeleted:
			var evt proto.EventDeleted
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal deleted: %w", err)
			}
			fmt.Printf("deleted: id=%d\n", evt.ID)
		default:
			fmt.Printf("event=%s data=%s\n", outbound.Event, string(outbound.Data))
		}
	}
}
