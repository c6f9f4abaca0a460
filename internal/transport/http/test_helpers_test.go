package http

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"channelcast/internal/config"
	"channelcast/internal/core"
	"channelcast/internal/store"
	"channelcast/internal/store/sqlite"
)

// newTestStore creates an in-memory SQLite store seeded with a few users.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(`
			INSERT INTO users (username, avatar) VALUES
				('alice', 'https://example.com/a.png'),
				('bob', ''),
				('charlie', '')
		`)
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return st
}

// newTestServer spins up the full HTTP surface (WebSocket endpoint plus
// REST API) over a fresh store with a running hub.
func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	st := newTestStore(t)
	logger := zerolog.Nop()

	hub := core.NewHub(st, &logger, 0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := NewServer(hub, st, config.Default(), &logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}
