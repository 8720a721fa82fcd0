package core

import (
	"sync"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

const clientEventBuffer = 64

// Client is one live connection as seen by the core layer.
type Client struct {
	ID       presence.ConnID
	Identity presence.Identity
	Label    string
	Events   chan *Event

	done     chan struct{}
	doneOnce sync.Once
}

// NewClient constructs a client with an initialized event buffer.
func NewClient(id presence.ConnID, identity presence.Identity, label string) *Client {
	if label == "" {
		label = string(identity)
	}
	return &Client{
		ID:       id,
		Identity: identity,
		Label:    label,
		Events:   make(chan *Event, clientEventBuffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the client has been unregistered.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.doneOnce.Do(func() { close(c.done) })
}
