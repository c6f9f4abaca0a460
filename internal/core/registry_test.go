package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	c := NewClient("c1")

	r.Register(c)
	assert.True(t, r.Registered(c))
	assert.Equal(t, 1, r.Len())

	// Double registration is a no-op.
	r.Register(c)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Unregister(c))
	assert.False(t, r.Registered(c))

	// Unregister is idempotent.
	assert.False(t, r.Unregister(c))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryIdentitySetOnce(t *testing.T) {
	r := NewRegistry()
	c := NewClient("c1")
	r.Register(c)

	_, _, ok := r.Identity(c)
	assert.False(t, ok)

	require.NoError(t, r.SetIdentity(c, 7, "alice"))

	userID, username, ok := r.Identity(c)
	require.True(t, ok)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, "alice", username)

	err := r.SetIdentity(c, 8, "bob")
	assert.ErrorIs(t, err, ErrAlreadyIdentified)

	// Identity is immutable after the failed second attempt.
	userID, username, _ = r.Identity(c)
	assert.Equal(t, int64(7), userID)
	assert.Equal(t, "alice", username)
}

func TestRegistrySetIdentityUnknownConnection(t *testing.T) {
	r := NewRegistry()
	c := NewClient("ghost")

	err := r.SetIdentity(c, 1, "alice")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestRegistryViewedChannel(t *testing.T) {
	r := NewRegistry()
	c := NewClient("c1")
	r.Register(c)

	_, ok := r.ViewedChannel(c)
	assert.False(t, ok)

	r.SetViewedChannel(c, 42)
	viewed, ok := r.ViewedChannel(c)
	require.True(t, ok)
	assert.Equal(t, int64(42), viewed)

	r.ClearViewedChannel(c)
	_, ok = r.ViewedChannel(c)
	assert.False(t, ok)
}

func TestRegistryIterationScopes(t *testing.T) {
	r := NewRegistry()

	viewer := NewClient("viewer")
	subscriber := NewClient("subscriber")
	bystander := NewClient("bystander")
	for _, c := range []*Client{viewer, subscriber, bystander} {
		r.Register(c)
	}

	r.SetViewedChannel(viewer, 1)
	r.SetViewedChannel(subscriber, 2)
	r.AddSubscription(subscriber, 1)
	r.SetViewedChannel(bystander, 3)

	collect := func(fn func(int64, func(*Client))) []string {
		var ids []string
		fn(1, func(c *Client) { ids = append(ids, c.ID) })
		return ids
	}

	assert.Equal(t, []string{"viewer"}, collect(r.ForEachViewing))
	assert.Equal(t, []string{"viewer", "subscriber"}, collect(r.ForEachInChannel))

	r.RemoveSubscription(subscriber, 1)
	assert.Equal(t, []string{"viewer"}, collect(r.ForEachInChannel))
}

func TestRegistryIterationOrderIsRegistrationOrder(t *testing.T) {
	r := NewRegistry()

	first := NewClient("first")
	second := NewClient("second")
	third := NewClient("third")
	for _, c := range []*Client{first, second, third} {
		r.Register(c)
		r.SetViewedChannel(c, 9)
	}

	var order []string
	r.ForEachInChannel(9, func(c *Client) { order = append(order, c.ID) })
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRegistryIterationIsSnapshotPerCall(t *testing.T) {
	r := NewRegistry()

	a := NewClient("a")
	b := NewClient("b")
	r.Register(a)
	r.Register(b)
	r.SetViewedChannel(a, 1)
	r.SetViewedChannel(b, 1)

	// Removing a connection mid-iteration does not affect the current
	// pass, and the next call re-evaluates the member set.
	var firstPass int
	r.ForEachInChannel(1, func(c *Client) {
		firstPass++
		r.Unregister(b)
	})
	assert.Equal(t, 2, firstPass)

	var secondPass int
	r.ForEachInChannel(1, func(c *Client) { secondPass++ })
	assert.Equal(t, 1, secondPass)
}
