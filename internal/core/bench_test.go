package core

import (
	"context"
	"fmt"
	"testing"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

func benchmarkRoomSend(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(b)
	hub := env.hub

	// Every connection is drained from the start so join broadcasts never
	// hit the push timeout. Messages reaching the first recipient are forwarded.
	got := make(chan struct{}, 1)
	discard := func(c *Client, forward bool) {
		go func() {
			for {
				select {
				case ev := <-c.Events:
					if forward && ev.Kind == EventRoomMessage {
						got <- struct{}{}
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	sender := NewClient("sender", "u:0", "")
	discard(sender, false)
	hub.Connect(ctx, sender)
	if err := hub.Join(ctx, sender, pune); err != nil {
		b.Fatal(err)
	}

	for i := range recipients {
		c := NewClient(presence.ConnID(fmt.Sprintf("c%d", i)), presence.Identity(fmt.Sprintf("u:%d", i+1)), "")
		discard(c, i == 0)
		hub.Connect(ctx, c)
		if err := hub.Join(ctx, c, pune); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := hub.Pipeline().Send(ctx, pune, sender.Identity, sender.Label, sender.ID, "payload"); err != nil {
			b.Fatal(err)
		}
		<-got
	}
}

func BenchmarkRoomSend_10(b *testing.B)  { benchmarkRoomSend(b, 10) }
func BenchmarkRoomSend_100(b *testing.B) { benchmarkRoomSend(b, 100) }
