package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/vovakirdan/wirerelay-server/internal/store/memory"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(memory.New(), nil, nil)
	go hub.Run(ctx)

	sender := NewConn("sender", "sender", false, 0)
	hub.Register(sender)

	conns := make([]*Conn, 0, recipients)
	for i := range recipients {
		c := NewConn(fmt.Sprintf("c%d", i), "client", false, 0)
		hub.Register(c)
		conns = append(conns, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := conns[0]
	for _, c := range conns[1:] {
		go func(cl *Conn) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.Publish(sender, "payload")
		<-target.Events
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
