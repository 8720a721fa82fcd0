package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/setstore/memory"
)

func TestInstancesLiveness(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	inst := NewInstances(memory.New(), time.Hour)

	alive, err := inst.Alive(ctx, "a1")
	req.NoError(err)
	req.False(alive, "never beaten")

	req.NoError(inst.Beat(ctx, "a1"))
	alive, err = inst.Alive(ctx, "a1")
	req.NoError(err)
	req.True(alive)

	alive, err = inst.Alive(ctx, "")
	req.NoError(err)
	req.True(alive, "unprefixed connections are not judged")
}

func TestInstancesUnavailable(t *testing.T) {
	inst := NewInstances(&failingStore{Store: memory.New(), failAll: true}, time.Hour)
	_, err := inst.Alive(context.Background(), "a1")
	require.ErrorIs(t, err, errUnavailable)
}

func TestDirectoryPrune(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	d := NewDirectory(memory.New())

	req.NoError(d.Attach(ctx, "u:42", "dead.1"))
	req.NoError(d.Attach(ctx, "u:42", "live.1"))

	pruned, err := d.Prune(ctx, "u:42", func(c ConnID) bool { return c == "dead.1" })
	req.NoError(err)
	req.Equal([]ConnID{"dead.1"}, pruned)

	conns, err := d.ConnectionsOf(ctx, "u:42")
	req.NoError(err)
	req.Equal([]ConnID{"live.1"}, conns)
}
