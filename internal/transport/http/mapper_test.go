package http

import (
	"testing"
	"time"

	"github.com/vovakirdan/wirerelay-server/internal/core"
	"github.com/vovakirdan/wirerelay-server/internal/proto"
	"github.com/vovakirdan/wirerelay-server/internal/store"
)

func TestOutboundsFromMessageEvent(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := &core.Event{
		Kind:    core.EventMessage,
		Message: &store.Message{ID: 7, Author: "alice", Content: "hi", CreatedAt: ts},
	}

	outbounds := outboundsFromEvent(event)
	if len(outbounds) != 1 {
		t.Fatalf("got %d frames, want 1", len(outbounds))
	}
	out := outbounds[0]
	if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventNameMessage {
		t.Fatalf("frame = %+v, want a message event", out)
	}
	data, ok := out.Data.(proto.EventMessage)
	if !ok {
		t.Fatalf("data has type %T, want proto.EventMessage", out.Data)
	}
	if data.ID != 7 || data.User != "alice" || data.Text != "hi" || data.TS != ts.Unix() {
		t.Fatalf("data = %+v", data)
	}
}

func TestOutboundsFromDeletedEvent(t *testing.T) {
	outbounds := outboundsFromEvent(&core.Event{Kind: core.EventDeleted, Deleted: 42})
	if len(outbounds) != 1 {
		t.Fatalf("got %d frames, want 1", len(outbounds))
	}
	out := outbounds[0]
	if out.Event != proto.EventNameDeleted {
		t.Fatalf("event = %q, want deleted", out.Event)
	}
	if data := out.Data.(proto.EventDeleted); data.ID != 42 {
		t.Fatalf("deleted id = %d, want 42", data.ID)
	}
}

func TestOutboundsFromReplayExpandsPerRecord(t *testing.T) {
	event := &core.Event{
		Kind: core.EventReplay,
		Messages: []*store.Message{
			{ID: 1, Author: "alice", Content: "one"},
			{ID: 2, Author: "bob", Content: "two"},
			{ID: 3, Author: "alice", Content: "three"},
		},
	}

	outbounds := outboundsFromEvent(event)
	if len(outbounds) != 3 {
		t.Fatalf("got %d frames, want 3", len(outbounds))
	}
	for i, out := range outbounds {
		if out.Type != proto.OutboundTypeEvent || out.Event != proto.EventNameMessage {
			t.Fatalf("frame %d = %+v, want a message event", i, out)
		}
		data := out.Data.(proto.EventMessage)
		if data.ID != int64(i+1) {
			t.Fatalf("frame %d has id %d, want %d", i, data.ID, i+1)
		}
	}
}
