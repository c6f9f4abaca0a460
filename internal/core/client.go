package core

// Client is one live connection as seen by the core layer. The transport
// feeds parsed commands into Commands and drains Events back to the wire.
// Session state (identity, viewed channel, subscriptions) lives in the
// Registry, not here.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
	}
}
