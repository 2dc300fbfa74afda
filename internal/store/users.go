package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/nightcity/redsheet/internal/redsheet"
)

// CreateUser inserts u with its password hash. A taken email yields
// ErrDuplicate.
func (s *DocStore) CreateUser(ctx context.Context, u redsheet.User, passwordHash string) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, data) VALUES (?, ?, ?, jsonb(?))`,
		u.ID, u.Email, passwordHash, string(data),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *DocStore) GetUser(ctx context.Context, id string) (redsheet.User, error) {
	var u redsheet.User
	err := s.get(ctx, "users", id, &u)
	return u, err
}

// UserCredentials returns the user registered under email with their
// password hash.
func (s *DocStore) UserCredentials(ctx context.Context, email string) (redsheet.User, string, error) {
	var (
		u    redsheet.User
		data string
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data), password_hash FROM users WHERE email = ?`, email,
	).Scan(&data, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, "", ErrNotFound
	}
	if err != nil {
		return u, "", err
	}
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return u, "", err
	}
	return u, hash, nil
}

// SetRefreshHash stores the digest of the user's active refresh token. An
// empty hash revokes it.
func (s *DocStore) SetRefreshHash(ctx context.Context, userID, hash string) error {
	var v any
	if hash != "" {
		v = hash
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET refresh_hash = ? WHERE id = ?`, v, userID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UserByRefreshHash finds the user whose active refresh token hashes to hash.
func (s *DocStore) UserByRefreshHash(ctx context.Context, hash string) (redsheet.User, error) {
	return scanDoc[redsheet.User](s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM users WHERE refresh_hash = ?`, hash,
	))
}
