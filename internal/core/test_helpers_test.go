package core

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"channelcast/internal/store"
	"channelcast/internal/store/sqlite"
)

// newTestStore creates an in-memory SQLite store seeded with a few users.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO users (username, avatar) VALUES
				('alice', ''),
				('bob', ''),
				('charlie', '')
		`)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

// startHub runs a hub over a fresh seeded store for the test's lifetime.
func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(newTestStore(t), nil, 0)
	go hub.Run(ctx)
	return hub
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("events channel closed while waiting for kind %v", kind)
			}
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

// expectNoEvent asserts that no event of the given kind arrives within a
// short window. Other kinds are drained and ignored.
func expectNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event: %+v", ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// login drives a full login, drains the three-event login sequence and
// returns the user id and default channel id from LOGIN_SUCCESS.
func login(t *testing.T, c *Client, username string) (userID int64, channelID int64) {
	t.Helper()

	c.Commands <- &Command{Kind: CommandLogin, Username: username}
	ev := mustEvent(t, c.Events, EventLoginSuccess)
	if ev.User == nil {
		t.Fatalf("login success without user: %+v", ev)
	}
	mustEvent(t, c.Events, EventChannelHistory)
	mustEvent(t, c.Events, EventChannelUsers)
	return ev.User.ID, ev.ChannelID
}
