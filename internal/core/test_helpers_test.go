package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/ratelimit"
	"github.com/vovakirdan/wirechat-presence/internal/setstore"
	"github.com/vovakirdan/wirechat-presence/internal/setstore/memory"
	"github.com/vovakirdan/wirechat-presence/internal/store"
	"github.com/vovakirdan/wirechat-presence/internal/store/sqlite"
)

const pune = presence.RoomKey("general:pune")

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain returns every event currently buffered on ch.
func drain(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func ofKind(events []*Event, kind EventKind) []*Event {
	var out []*Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func noticeTexts(events []*Event) []string {
	var out []string
	for _, ev := range ofKind(events, EventSystemNotice) {
		out = append(out, ev.Text)
	}
	return out
}

// staticRoles is an Authorizer backed by a fixed map.
type staticRoles map[presence.Identity]store.Role

func (r staticRoles) RoleOf(_ context.Context, id presence.Identity) (store.Role, error) {
	if role, ok := r[id]; ok {
		return role, nil
	}
	return store.RoleUser, nil
}

// flakySets fails every call while down is set. delay is added to every
// write and count, like a network round trip.
type flakySets struct {
	setstore.Store
	down  atomic.Bool
	delay time.Duration
}

func (f *flakySets) AddToSet(ctx context.Context, key, member string) (bool, error) {
	time.Sleep(f.delay)
	if f.down.Load() {
		return false, setstore.ErrUnavailable
	}
	return f.Store.AddToSet(ctx, key, member)
}

func (f *flakySets) RemoveFromSet(ctx context.Context, key, member string) (bool, error) {
	if f.down.Load() {
		return false, setstore.ErrUnavailable
	}
	return f.Store.RemoveFromSet(ctx, key, member)
}

func (f *flakySets) MembersOf(ctx context.Context, key string) ([]string, error) {
	if f.down.Load() {
		return nil, setstore.ErrUnavailable
	}
	return f.Store.MembersOf(ctx, key)
}

func (f *flakySets) Cardinality(ctx context.Context, key string) (int, error) {
	time.Sleep(f.delay)
	if f.down.Load() {
		return 0, setstore.ErrUnavailable
	}
	return f.Store.Cardinality(ctx, key)
}

func (f *flakySets) Held(ctx context.Context, key string) (bool, error) {
	if f.down.Load() {
		return false, setstore.ErrUnavailable
	}
	return f.Store.Held(ctx, key)
}

// failingPusher fails pushes to selected connections, or every push after
// budget successful ones when budget is non-negative.
type failingPusher struct {
	next   Pusher
	mu     sync.Mutex
	fail   map[presence.ConnID]bool
	budget int
}

func (p *failingPusher) Push(ctx context.Context, conn presence.ConnID, ev *Event) error {
	p.mu.Lock()
	if p.fail[conn] {
		p.mu.Unlock()
		return ErrConnectionGone
	}
	if p.budget == 0 {
		p.mu.Unlock()
		return ErrPushTimeout
	}
	if p.budget > 0 {
		p.budget--
	}
	p.mu.Unlock()
	return p.next.Push(ctx, conn, ev)
}

type testEnv struct {
	hub   *Hub
	sets  *flakySets
	db    *sqlite.SQLiteStore
	roles staticRoles
	clock time.Time
}

func newTestEnv(t testing.TB, tweak ...func(*Options)) *testEnv {
	t.Helper()

	db, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	opts := DefaultOptions()
	opts.PushTimeout = 50 * time.Millisecond
	for _, fn := range tweak {
		fn(&opts)
	}

	env := &testEnv{
		sets:  &flakySets{Store: memory.New()},
		db:    db,
		roles: staticRoles{},
		clock: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	env.hub = NewHub(Deps{
		Sets:     env.sets,
		Messages: db,
		Rooms:    db,
		Reports:  db,
		Auth:     env.roles,
		Limiter:  ratelimit.NewMemory(),
	}, opts)
	env.hub.now = func() time.Time { return env.clock }
	return env
}

// tick advances the hub clock.
func (e *testEnv) tick(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func (e *testEnv) connect(t *testing.T, conn presence.ConnID, id presence.Identity) *Client {
	t.Helper()
	c := NewClient(conn, id, "")
	e.hub.Connect(context.Background(), c)
	return c
}

func (e *testEnv) join(t *testing.T, c *Client, room presence.RoomKey) {
	t.Helper()
	require.NoError(t, e.hub.Join(context.Background(), c, room))
}

func (e *testEnv) send(t *testing.T, c *Client, room presence.RoomKey, body string) *store.Message {
	t.Helper()
	e.tick(time.Second)
	msg, err := e.hub.Pipeline().Send(context.Background(), room, c.Identity, c.Label, c.ID, body)
	require.NoError(t, err)
	return msg
}
