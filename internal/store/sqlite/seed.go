package sqlite

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed_users.json
var seedUsersJSON []byte

type seedUser struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Seed imports the bundled user fixtures if the users table is empty.
// Login is a plain username lookup, so a fresh database needs at least
// these accounts to be usable.
func (s *SQLiteStore) Seed(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	var users []seedUser
	if err := json.Unmarshal(seedUsersJSON, &users); err != nil {
		return 0, fmt.Errorf("decode seed users: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range users {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, avatar)
			VALUES (?, ?)
		`, u.Username, u.Avatar); err != nil {
			return 0, fmt.Errorf("insert seed user %q: %w", u.Username, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return len(users), nil
}
