package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channelcast/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO users (username, avatar) VALUES
				('alice', 'https://example.com/a.png'),
				('bob', ''),
				('charlie', ''),
				('under_score', '')
		`)
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return st
}

func TestGetUserByUsername(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "https://example.com/a.png", user.Avatar)
	assert.NotZero(t, user.ID)

	_, err = st.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetUsersByID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	charlie, err := st.GetUserByUsername(ctx, "charlie")
	require.NoError(t, err)

	users, err := st.GetUsersByID(ctx, []int64{charlie.ID, alice.ID})
	require.NoError(t, err)
	require.Len(t, users, 2)
	// Ordered by id regardless of input order.
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "charlie", users[1].Username)

	// Unknown ids are simply absent from the result.
	users, err = st.GetUsersByID(ctx, []int64{alice.ID, 9999})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	users, err = st.GetUsersByID(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSearchUsers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	users, err := st.SearchUsers(ctx, "li")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "charlie", users[1].Username)

	// Case-insensitive.
	users, err = st.SearchUsers(ctx, "ALICE")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)

	// LIKE wildcards in the query are literal characters.
	users, err = st.SearchUsers(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = st.SearchUsers(ctx, "_score")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "under_score", users[0].Username)

	users, err = st.SearchUsers(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestCreateAndGetChannel(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	bob, err := st.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	channel, err := st.CreateChannel(ctx, "general", alice.ID, []int64{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, "general", channel.Name)
	assert.Equal(t, alice.ID, channel.OwnerID)
	assert.NotZero(t, channel.ID)

	byID, err := st.GetChannelByID(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, channel.Name, byID.Name)

	byName, err := st.GetChannelByName(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, channel.ID, byName.ID)

	_, err = st.GetChannelByID(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetChannelByName(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	participants, err := st.ListParticipants(ctx, channel.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, participants)
}

func TestParticipants(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	bob, err := st.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	channel, err := st.CreateChannel(ctx, "dev", alice.ID, []int64{alice.ID})
	require.NoError(t, err)

	require.NoError(t, st.AddParticipant(ctx, channel.ID, bob.ID))
	// Adding twice is a no-op.
	require.NoError(t, st.AddParticipant(ctx, channel.ID, bob.ID))

	participants, err := st.ListParticipants(ctx, channel.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, participants)

	require.NoError(t, st.RemoveParticipant(ctx, channel.ID, bob.ID))
	// Removing an absent participant is a no-op too.
	require.NoError(t, st.RemoveParticipant(ctx, channel.ID, bob.ID))

	participants, err = st.ListParticipants(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{alice.ID}, participants)
}

func TestMessages(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	channel, err := st.CreateChannel(ctx, "dev", alice.ID, []int64{alice.ID})
	require.NoError(t, err)

	first, err := st.AppendMessage(ctx, channel.ID, alice.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, "alice", first.AuthorName)
	assert.Equal(t, "https://example.com/a.png", first.AuthorAvatar)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := st.AppendMessage(ctx, channel.ID, alice.ID, "second")
	require.NoError(t, err)
	third, err := st.AppendMessage(ctx, channel.ID, alice.ID, "third")
	require.NoError(t, err)

	// Newest first.
	messages, err := st.ListMessages(ctx, channel.ID, 10, nil)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "third", messages[0].Body)
	assert.Equal(t, "second", messages[1].Body)
	assert.Equal(t, "first", messages[2].Body)

	messages, err = st.ListMessages(ctx, channel.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, third.ID, messages[0].ID)

	// Cursor excludes the given id and everything after it.
	messages, err = st.ListMessages(ctx, channel.ID, 10, &second.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, first.ID, messages[0].ID)

	messages, err = st.ListMessages(ctx, 9999, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSeed(t *testing.T) {
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	inserted, err := st.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, inserted)

	user, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, user.Avatar)

	// Second run is a no-op against a populated table.
	inserted, err = st.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestSeedSkipsNonEmptyTable(t *testing.T) {
	st := newTestStore(t)

	inserted, err := st.Seed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
