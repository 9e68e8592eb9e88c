// Package prefs persists small per-user preferences in the local database:
// the tables page theme and the conversation a user had open last.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leisambientais/leischat/internal/db"
)

// Well-known keys.
const (
	KeyTheme            = "theme"
	KeyLastConversation = "last_conversation"
)

// Anonymous is the scope used when no user is logged in.
const Anonymous = "anonymous"

// Store reads and writes preferences.
type Store struct {
	db *db.DB
}

// NewStore creates a preferences store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func scopeOf(user string) string {
	if user == "" {
		return Anonymous
	}
	return user
}

// Get returns the value of key for user. ok is false when unset.
func (s *Store) Get(ctx context.Context, user, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE scope = ? AND key = ?`,
		scopeOf(user), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %s: %w", key, err)
	}
	return value, true, nil
}

// GetDefault returns the value of key, or def when unset or unreadable.
func (s *Store) GetDefault(ctx context.Context, user, key, def string) string {
	v, ok, err := s.Get(ctx, user, key)
	if err != nil || !ok {
		return def
	}
	return v
}

// Set stores value under key for user.
func (s *Store) Set(ctx context.Context, user, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scopeOf(user), key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving preference %s: %w", key, err)
	}
	return nil
}

// Delete removes key for user.
func (s *Store) Delete(ctx context.Context, user, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM preferences WHERE scope = ? AND key = ?`,
		scopeOf(user), key,
	)
	if err != nil {
		return fmt.Errorf("deleting preference %s: %w", key, err)
	}
	return nil
}

// All returns every preference of user.
func (s *Store) All(ctx context.Context, user string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM preferences WHERE scope = ? ORDER BY key`,
		scopeOf(user),
	)
	if err != nil {
		return nil, fmt.Errorf("listing preferences: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning preference: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
