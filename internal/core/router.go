package core

// Router fans events out to the subset of live connections matching a
// channel scope. It never mutates registry state; stale entries are the
// registry's close handler's problem.
type Router struct {
	registry *Registry
}

// NewRouter constructs a router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Send delivers an event to a single connection.
func (r *Router) Send(c *Client, event *Event) {
	deliver(c, event)
}

// Broadcast delivers an event to every connection viewing or subscribed
// to the channel.
func (r *Router) Broadcast(channelID int64, event *Event) {
	r.registry.ForEachInChannel(channelID, func(c *Client) {
		deliver(c, event)
	})
}

// BroadcastViewing delivers an event to every connection currently
// viewing the channel.
func (r *Router) BroadcastViewing(channelID int64, event *Event) {
	r.registry.ForEachViewing(channelID, func(c *Client) {
		deliver(c, event)
	})
}

// BroadcastViewingExcept is BroadcastViewing minus one connection,
// typically the one that triggered the event.
func (r *Router) BroadcastViewingExcept(channelID int64, event *Event, except *Client) {
	r.registry.ForEachViewing(channelID, func(c *Client) {
		if c != except {
			deliver(c, event)
		}
	})
}

func deliver(c *Client, event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer or closing transport.
	}
}
