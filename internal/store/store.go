// Package store persists users, characters and campaigns as JSONB documents
// in libSQL. Relative mutations are single conditional UPDATE statements so
// concurrent requests never overwrite each other.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConditionFailed means the row exists but the guard of a conditional
	// update did not hold.
	ErrConditionFailed = errors.New("condition failed")
	ErrDuplicate       = errors.New("duplicate")
)

// DocStore stores one document per row with the fields it is queried by
// promoted to plain columns.
type DocStore struct {
	db *sql.DB
}

func New(db *sql.DB) *DocStore {
	return &DocStore{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// scanDoc decodes a single json(data) column.
func scanDoc[T any](row *sql.Row) (T, error) {
	var doc T
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return doc, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}

// queryDocs runs a query selecting json(data) and decodes every row.
func queryDocs[T any](ctx context.Context, q queryer, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var doc T
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *DocStore) get(ctx context.Context, table, id string, dest any) error {
	var data string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT json(data) FROM %s WHERE id = ?`, table), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (s *DocStore) exists(ctx context.Context, table, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE id = ?`, table), id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// missOrFailed classifies a conditional update that touched no row.
func (s *DocStore) missOrFailed(ctx context.Context, table, id string) error {
	ok, err := s.exists(ctx, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return ErrConditionFailed
}

// conditional runs an UPDATE ... RETURNING json(data) and maps a miss to
// ErrNotFound or ErrConditionFailed.
func conditional[T any](ctx context.Context, s *DocStore, table, id, query string, args ...any) (T, error) {
	doc, err := scanDoc[T](s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, ErrNotFound) {
		return doc, s.missOrFailed(ctx, table, id)
	}
	return doc, err
}

var fieldKey = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// setClauses renders "'<prefix>.<key>', json(?)" pairs for jsonb_set in a
// stable key order, returning the JSON-encoded values as arguments.
func setClauses(prefix string, fields map[string]any) (string, []any, error) {
	keys := slices.Sorted(maps.Keys(fields))
	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		if !fieldKey.MatchString(k) {
			return "", nil, fmt.Errorf("invalid field name %q", k)
		}
		v, err := json.Marshal(fields[k])
		if err != nil {
			return "", nil, fmt.Errorf("encoding %s: %w", k, err)
		}
		parts = append(parts, fmt.Sprintf("'%s.%s', json(?)", prefix, k))
		args = append(args, string(v))
	}
	return strings.Join(parts, ", "), args, nil
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
