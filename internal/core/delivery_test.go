package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

func TestSendReplaysToOfflineMemberBeforeHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// u:7 becomes a member, then drops offline.
	u7 := env.connect(t, "c7", "u:7")
	env.join(t, u7, pune)
	env.hub.Disconnect(ctx, u7)

	u42 := env.connect(t, "c42", "u:42")
	env.join(t, u42, pune)
	drain(u42.Events)

	hello := env.send(t, u42, pune, "hello")
	require.Equal(t, []presence.Identity{"u:42"}, hello.DeliveredTo)
	require.Equal(t, []presence.Identity{"u:7"}, hello.PendingFor)

	echo := mustEvent(t, u42.Events, EventRoomMessage)
	require.Equal(t, hello.ID, echo.Message.ID)

	u7 = env.connect(t, "c7b", "u:7")
	env.join(t, u7, pune)

	events := drain(u7.Events)
	msgs := ofKind(events, EventRoomMessage)
	require.Len(t, msgs, 1, "hello must arrive once, via replay, not again as history")
	require.Equal(t, "hello", msgs[0].Message.Text)
	require.True(t, msgs[0].Replayed)
	require.Equal(t, EventJoinAcknowledged, events[len(events)-1].Kind)

	stored, err := env.db.GetMessage(ctx, hello.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []presence.Identity{"u:42", "u:7"}, stored.DeliveredTo)
	require.Empty(t, stored.PendingFor)
}

func TestSendToEmptyRoomOnlyEchoes(t *testing.T) {
	env := newTestEnv(t)

	anon := env.connect(t, "c1", presence.Anonymous("Anon-331"))
	env.join(t, anon, pune)
	drain(anon.Events)

	msg := env.send(t, anon, pune, "anyone?")
	require.Equal(t, []presence.Identity{"a:Anon-331"}, msg.DeliveredTo)
	require.Empty(t, msg.PendingFor)

	echo := mustEvent(t, anon.Events, EventRoomMessage)
	require.Equal(t, "anyone?", echo.Message.Text)
}

func TestSendWhitespaceIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.connect(t, "c1", "u:1")
	env.join(t, alice, pune)
	drain(alice.Events)

	msg, err := env.hub.Pipeline().Send(ctx, pune, alice.Identity, alice.Label, alice.ID, " \n\t ")
	require.NoError(t, err)
	require.Nil(t, msg)
	require.Empty(t, drain(alice.Events))
}

func TestFanOutExcludesNonMembers(t *testing.T) {
	env := newTestEnv(t)
	books := presence.CommunityRoom("pune", "books")

	alice := env.connect(t, "c1", "u:1")
	bob := env.connect(t, "c2", "u:2")
	env.join(t, alice, pune)
	env.join(t, bob, books)
	drain(bob.Events)

	msg := env.send(t, alice, pune, "only pune")
	require.Equal(t, []presence.Identity{"u:1"}, msg.DeliveredTo)
	require.Empty(t, msg.PendingFor)
	require.Empty(t, ofKind(drain(bob.Events), EventRoomMessage))
}

func TestSendDeliversToRepresentativeConnection(t *testing.T) {
	env := newTestEnv(t)

	alice := env.connect(t, "c-alice", "u:1")
	tabB := env.connect(t, "c7-b", "u:7")
	tabA := env.connect(t, "c7-a", "u:7")
	env.join(t, alice, pune)
	env.join(t, tabB, pune)
	env.join(t, tabA, pune)
	drain(tabA.Events)
	drain(tabB.Events)

	env.send(t, alice, pune, "once per identity")

	require.Len(t, ofKind(drain(tabA.Events), EventRoomMessage), 1)
	require.Empty(t, ofKind(drain(tabB.Events), EventRoomMessage))
}

func TestSendSelfEchoGoesToOrigin(t *testing.T) {
	env := newTestEnv(t)

	tab1 := env.connect(t, "c1", "u:1")
	tab2 := env.connect(t, "c2", "u:1")
	env.join(t, tab1, pune)
	env.join(t, tab2, pune)
	drain(tab1.Events)

	env.send(t, tab2, pune, "mine")

	require.Len(t, ofKind(drain(tab2.Events), EventRoomMessage), 1)
	require.Empty(t, ofKind(drain(tab1.Events), EventRoomMessage))
}

func TestPushFailureQueuesRecipientAsPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.connect(t, "c1", "u:1")
	bob := env.connect(t, "c2", "u:2")
	carol := env.connect(t, "c3", "u:3")
	for _, c := range []*Client{alice, bob, carol} {
		env.join(t, c, pune)
	}

	env.hub.SetPusher(&failingPusher{
		next:   env.hub.Connections(),
		fail:   map[presence.ConnID]bool{"c2": true},
		budget: -1,
	})

	msg := env.send(t, alice, pune, "partial")
	require.ElementsMatch(t, []presence.Identity{"u:1", "u:3"}, msg.DeliveredTo)
	require.Equal(t, []presence.Identity{"u:2"}, msg.PendingFor)

	stored, err := env.db.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, []presence.Identity{"u:2"}, stored.PendingFor)

	pending, err := env.db.PendingMessages(ctx, pune, "u:2", env.clock)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, msg.ID, pending[0].ID)
}

func TestReplayStopsOnFirstPushFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u7 := env.connect(t, "c7", "u:7")
	env.join(t, u7, pune)
	env.hub.Disconnect(ctx, u7)

	u42 := env.connect(t, "c42", "u:42")
	env.join(t, u42, pune)
	for _, body := range []string{"one", "two", "three"} {
		env.send(t, u42, pune, body)
	}

	u7 = env.connect(t, "c7b", "u:7")
	env.hub.SetPusher(&failingPusher{next: env.hub.Connections(), budget: 1})

	stats, err := env.hub.Pipeline().Replay(ctx, pune, "u:7", u7.ID)
	require.ErrorIs(t, err, ErrPushTimeout)
	require.Equal(t, 1, stats.Pending)

	pending, err := env.db.PendingMessages(ctx, pune, "u:7", env.clock)
	require.NoError(t, err)
	require.Len(t, pending, 2, "unpushed messages stay pending")
	require.Equal(t, "two", pending[0].Body)
}

func TestReplayOrderIsNonDecreasing(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.HistoryLimit = 3 })
	ctx := context.Background()

	u42 := env.connect(t, "c42", "u:42")
	env.join(t, u42, pune)
	env.send(t, u42, pune, "before u7")

	u7 := env.connect(t, "c7", "u:7")
	env.join(t, u7, pune)
	env.hub.Disconnect(ctx, u7)

	env.send(t, u42, pune, "p1")
	env.send(t, u42, pune, "p2")
	env.tick(time.Minute)

	u7 = env.connect(t, "c7b", "u:7")
	env.join(t, u7, pune)

	var last time.Time
	var bodies []string
	for _, ev := range ofKind(drain(u7.Events), EventRoomMessage) {
		require.False(t, ev.Message.CreatedAt.Before(last), "replay went back in time")
		last = ev.Message.CreatedAt
		bodies = append(bodies, ev.Message.Text)
	}
	require.Equal(t, []string{"p1", "p2"}, bodies)
}

func TestHistoryIsBoundedToNewest(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.HistoryLimit = 2 })

	u42 := env.connect(t, "c42", "u:42")
	env.join(t, u42, pune)
	for _, body := range []string{"a", "b", "c"} {
		env.send(t, u42, pune, body)
	}

	// Older than the history window.
	env.tick(25 * time.Hour)
	env.send(t, u42, pune, "d")
	env.send(t, u42, pune, "e")
	env.send(t, u42, pune, "f")

	newcomer := env.connect(t, "c9", "u:9")
	env.join(t, newcomer, pune)

	var bodies []string
	for _, ev := range ofKind(drain(newcomer.Events), EventRoomMessage) {
		bodies = append(bodies, ev.Message.Text)
	}
	require.Equal(t, []string{"e", "f"}, bodies)
}

func TestSendDegradesWhenPresenceStoreIsDown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.connect(t, "c1", "u:1")
	bob := env.connect(t, "c2", "u:2")
	env.join(t, alice, pune)
	env.join(t, bob, pune)
	drain(alice.Events)
	drain(bob.Events)

	env.sets.down.Store(true)
	msg := env.send(t, alice, pune, "degraded")
	env.sets.down.Store(false)

	require.Equal(t, []presence.Identity{"u:1"}, msg.DeliveredTo)
	require.Equal(t, []presence.Identity{"u:2"}, msg.PendingFor)
	require.Len(t, ofKind(drain(alice.Events), EventRoomMessage), 1, "sender still gets the echo")
	require.Empty(t, ofKind(drain(bob.Events), EventRoomMessage))

	// Bob catches up on his next join.
	env.join(t, bob, pune)
	msgs := ofKind(drain(bob.Events), EventRoomMessage)
	require.NotEmpty(t, msgs)
	require.Equal(t, "degraded", msgs[0].Message.Text)

	stored, err := env.db.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.Empty(t, stored.PendingFor)
}

func TestSlowModeLimitsSenders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.connect(t, "c1", "u:1")
	env.join(t, alice, pune)
	_, err := env.db.ToggleSlowMode(ctx, pune)
	require.NoError(t, err)

	env.send(t, alice, pune, "first")

	_, err = env.hub.Pipeline().Send(ctx, pune, alice.Identity, alice.Label, alice.ID, "second")
	require.ErrorIs(t, err, ErrSlowMode)
}
