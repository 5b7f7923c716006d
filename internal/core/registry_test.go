package core

import "testing"

func TestRegistryAddRemove(t *testing.T) {
	reg := NewRegistry()
	conn := NewConn("a", "alice", false, 0)

	if !reg.Add(conn) {
		t.Fatal("expected first add to succeed")
	}
	if reg.Add(conn) {
		t.Fatal("expected duplicate add to report false")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 connection, got %d", reg.Len())
	}

	if !reg.Remove(conn) {
		t.Fatal("expected remove to succeed")
	}
	if reg.Remove(conn) {
		t.Fatal("expected second remove to report false")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}

func TestRegistryBroadcastSkipsFullBuffers(t *testing.T) {
	reg := NewRegistry()

	healthy := NewConn("a", "alice", false, 0)
	stuck := NewConn("b", "bob", false, 0)
	reg.Add(healthy)
	reg.Add(stuck)

	// Fill the stuck connection's buffer so the next send must drop.
	for i := 0; i < eventBufferSize; i++ {
		stuck.Events <- &Event{Kind: EventMessage}
	}

	ev := &Event{Kind: EventDeleted, Deleted: 7}
	if dropped := reg.Broadcast(ev); dropped != 1 {
		t.Fatalf("expected 1 dropped delivery, got %d", dropped)
	}

	select {
	case got := <-healthy.Events:
		if got.Kind != EventDeleted || got.Deleted != 7 {
			t.Fatalf("unexpected event: %+v", got)
		}
	default:
		t.Fatal("healthy connection did not receive the event")
	}
}

func TestBroadcastToEmptyRegistry(t *testing.T) {
	reg := NewRegistry()
	if dropped := reg.Broadcast(&Event{Kind: EventMessage}); dropped != 0 {
		t.Fatalf("expected no drops, got %d", dropped)
	}
}
