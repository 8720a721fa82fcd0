package core

import (
	"context"
	"sync"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

// Pusher delivers an event to exactly one connection.
type Pusher interface {
	Push(ctx context.Context, conn presence.ConnID, ev *Event) error
}

// Connections is the registry of connections served by this process.
type Connections struct {
	mu      sync.RWMutex
	clients map[presence.ConnID]*Client
	timeout time.Duration
}

// NewConnections builds a registry whose pushes wait at most timeout on a full buffer.
func NewConnections(timeout time.Duration) *Connections {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Connections{
		clients: make(map[presence.ConnID]*Client),
		timeout: timeout,
	}
}

// Register makes c reachable by Push.
func (r *Connections) Register(c *Client) {
	r.mu.Lock()
	r.clients[c.ID] = c
	r.mu.Unlock()
}

// Unregister removes the connection and wakes any push blocked on it.
func (r *Connections) Unregister(id presence.ConnID) {
	r.mu.Lock()
	c, ok := r.clients[id]
	delete(r.clients, id)
	r.mu.Unlock()
	if ok {
		c.close()
	}
}

// Get returns the registered client, if any.
func (r *Connections) Get(id presence.ConnID) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// Len reports the number of registered connections.
func (r *Connections) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Push enqueues ev on the connection's buffer.
func (r *Connections) Push(ctx context.Context, id presence.ConnID, ev *Event) error {
	c, ok := r.Get(id)
	if !ok {
		return ErrConnectionGone
	}

	select {
	case c.Events <- ev:
		return nil
	default:
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()
	select {
	case c.Events <- ev:
		return nil
	case <-c.done:
		return ErrConnectionGone
	case <-timer.C:
		return ErrPushTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
