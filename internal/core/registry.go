package core

import (
	"sort"
	"sync"
)

// session is the registry-owned state of one connection.
type session struct {
	seq      uint64
	userID   int64
	username string
	viewed   int64 // 0 while no channel is viewed
	subs     map[int64]struct{}
}

// Registry is the in-memory table of live connections and their session
// state. It owns no durable state; validation of channel existence and
// permissions is the hub's job. All methods are safe for concurrent use,
// though in practice the hub's run loop serializes every mutation.
type Registry struct {
	mu      sync.RWMutex
	nextSeq uint64
	conns   map[*Client]*session
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[*Client]*session)}
}

// Register adds a connection with no identity and no channel.
// Registering the same connection twice is a no-op.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c]; ok {
		return
	}
	r.nextSeq++
	r.conns[c] = &session{
		seq:  r.nextSeq,
		subs: make(map[int64]struct{}),
	}
}

// Unregister removes a connection. Idempotent: removing an unknown
// connection is a no-op. Returns true if the connection was present.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c]; !ok {
		return false
	}
	delete(r.conns, c)
	return true
}

// Registered reports whether the connection is currently known.
func (r *Registry) Registered(c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[c]
	return ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// SetIdentity binds the connection to a user. A connection logs in at
// most once; a second call returns ErrAlreadyIdentified.
func (r *Registry) SetIdentity(c *Client, userID int64, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.conns[c]
	if !ok {
		return ErrNotRegistered
	}
	if s.userID != 0 {
		return ErrAlreadyIdentified
	}
	s.userID = userID
	s.username = username
	return nil
}

// Identity returns the user bound to the connection, if any.
func (r *Registry) Identity(c *Client) (userID int64, username string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, found := r.conns[c]
	if !found || s.userID == 0 {
		return 0, "", false
	}
	return s.userID, s.username, true
}

// SetViewedChannel sets the channel whose history and roster the
// connection currently renders.
func (r *Registry) SetViewedChannel(c *Client, channelID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.conns[c]; ok {
		s.viewed = channelID
	}
}

// ClearViewedChannel resets the connection to viewing no channel.
func (r *Registry) ClearViewedChannel(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.conns[c]; ok {
		s.viewed = 0
	}
}

// ViewedChannel returns the connection's viewed channel, if set.
func (r *Registry) ViewedChannel(c *Client) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.conns[c]
	if !ok || s.viewed == 0 {
		return 0, false
	}
	return s.viewed, true
}

// AddSubscription opts the connection in to new-message events for the
// channel. No validation of channel existence.
func (r *Registry) AddSubscription(c *Client, channelID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.conns[c]; ok {
		s.subs[channelID] = struct{}{}
	}
}

// RemoveSubscription drops the connection's subscription to the channel.
func (r *Registry) RemoveSubscription(c *Client, channelID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.conns[c]; ok {
		delete(s.subs, channelID)
	}
}

// ForEachViewing calls fn for every connection whose viewed channel is
// channelID, in registration order. The member set is re-evaluated on
// every call, never cached.
func (r *Registry) ForEachViewing(channelID int64, fn func(*Client)) {
	for _, c := range r.snapshot(channelID, false) {
		fn(c)
	}
}

// ForEachInChannel calls fn for every connection viewing channelID or
// holding a subscription to it, in registration order.
func (r *Registry) ForEachInChannel(channelID int64, fn func(*Client)) {
	for _, c := range r.snapshot(channelID, true) {
		fn(c)
	}
}

// snapshot collects matching connections sorted by registration seq.
// fn runs outside the lock so handlers may touch the registry freely.
func (r *Registry) snapshot(channelID int64, includeSubscribers bool) []*Client {
	type entry struct {
		client *Client
		seq    uint64
	}

	r.mu.RLock()
	entries := make([]entry, 0, len(r.conns))
	for c, s := range r.conns {
		if s.viewed == channelID {
			entries = append(entries, entry{c, s.seq})
			continue
		}
		if includeSubscribers {
			if _, ok := s.subs[channelID]; ok {
				entries = append(entries, entry{c, s.seq})
			}
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	clients := make([]*Client, len(entries))
	for i, e := range entries {
		clients[i] = e.client
	}
	return clients
}
