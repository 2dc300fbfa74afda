package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/nightcity/redsheet/internal/redsheet"
)

func (s *DocStore) CreateCharacter(ctx context.Context, c redsheet.Character) error {
	c.Normalize()
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO characters (id, user_id, updated_at, data) VALUES (?, ?, ?, jsonb(?))`,
		c.ID, c.UserID, c.UpdatedAt.UnixNano(), string(data),
	)
	return err
}

func (s *DocStore) GetCharacter(ctx context.Context, id string) (redsheet.Character, error) {
	var c redsheet.Character
	err := s.get(ctx, "characters", id, &c)
	return c, err
}

// ListCharactersByUser returns the user's characters, most recently updated
// first.
func (s *DocStore) ListCharactersByUser(ctx context.Context, userID string) ([]redsheet.Character, error) {
	return queryDocs[redsheet.Character](ctx, s.db,
		`SELECT json(data) FROM characters WHERE user_id = ? ORDER BY updated_at DESC`, userID,
	)
}

// ListCharactersByIDs returns the characters with the given ids in the order
// the ids are listed. Unknown ids are skipped.
func (s *DocStore) ListCharactersByIDs(ctx context.Context, ids []string) ([]redsheet.Character, error) {
	if len(ids) == 0 {
		return []redsheet.Character{}, nil
	}
	list, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	return queryDocs[redsheet.Character](ctx, s.db,
		`SELECT json(c.data) FROM json_each(?) AS ids
		 JOIN characters AS c ON c.id = ids.value
		 ORDER BY ids.key`, string(list),
	)
}

// ModifyCharacter loads a character, applies fn, and saves it in a
// transaction. Nothing is written when fn returns an error.
func (s *DocStore) ModifyCharacter(ctx context.Context, id string, fn func(*redsheet.Character) error) (redsheet.Character, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return redsheet.Character{}, err
	}
	defer tx.Rollback()

	c, err := scanDoc[redsheet.Character](tx.QueryRowContext(ctx,
		`SELECT json(data) FROM characters WHERE id = ?`, id,
	))
	if err != nil {
		return redsheet.Character{}, err
	}

	if err := fn(&c); err != nil {
		return redsheet.Character{}, err
	}
	c.Normalize()

	data, err := json.Marshal(c)
	if err != nil {
		return redsheet.Character{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE characters SET user_id = ?, updated_at = ?, data = jsonb(?) WHERE id = ?`,
		c.UserID, c.UpdatedAt.UnixNano(), string(data), id,
	); err != nil {
		return redsheet.Character{}, err
	}

	if err := tx.Commit(); err != nil {
		return redsheet.Character{}, err
	}
	return c, nil
}

// DeleteCharacter removes the character and unlinks it from every campaign.
func (s *DocStore) DeleteCharacter(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET data = jsonb_set(data, '$.characterIds', json((
			SELECT json_group_array(value) FROM json_each(campaigns.data, '$.characterIds') WHERE value != ?
		 )))
		 WHERE EXISTS (SELECT 1 FROM json_each(campaigns.data, '$.characterIds') WHERE value = ?)`,
		id, id,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// DamageCharacter subtracts amount from current hit points, flooring at 0.
func (s *DocStore) DamageCharacter(ctx context.Context, id string, amount int, now time.Time) (redsheet.Character, error) {
	return conditional[redsheet.Character](ctx, s, "characters", id,
		`UPDATE characters SET updated_at = ?, data = jsonb_set(data,
			'$.currentHitPoints', max(0, json_extract(data, '$.currentHitPoints') - ?),
			'$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		now.UnixNano(), amount, stamp(now), id,
	)
}

// HealCharacter adds amount to current hit points, capped at maxHP.
func (s *DocStore) HealCharacter(ctx context.Context, id string, amount, maxHP int, now time.Time) (redsheet.Character, error) {
	return conditional[redsheet.Character](ctx, s, "characters", id,
		`UPDATE characters SET updated_at = ?, data = jsonb_set(data,
			'$.currentHitPoints', min(?, json_extract(data, '$.currentHitPoints') + ?),
			'$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		now.UnixNano(), maxHP, amount, stamp(now), id,
	)
}

// SpendLuck decrements the luck pool only while it holds at least amount.
// A pool that is too small yields ErrConditionFailed.
func (s *DocStore) SpendLuck(ctx context.Context, id string, amount int, now time.Time) (redsheet.Character, error) {
	return conditional[redsheet.Character](ctx, s, "characters", id,
		`UPDATE characters SET updated_at = ?, data = jsonb_set(data,
			'$.currentLuck', json_extract(data, '$.currentLuck') - ?,
			'$.updatedAt', ?)
		 WHERE id = ? AND json_extract(data, '$.currentLuck') >= ?
		 RETURNING json(data)`,
		now.UnixNano(), amount, stamp(now), id, amount,
	)
}

// RestoreLuck resets the luck pool to the LUCK stat.
func (s *DocStore) RestoreLuck(ctx context.Context, id string, now time.Time) (redsheet.Character, error) {
	return conditional[redsheet.Character](ctx, s, "characters", id,
		`UPDATE characters SET updated_at = ?, data = jsonb_set(data,
			'$.currentLuck', json_extract(data, '$.stats.luck'),
			'$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		now.UnixNano(), stamp(now), id,
	)
}

// CharacterOwner returns the user id owning the character.
func (s *DocStore) CharacterOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM characters WHERE id = ?`, id,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return owner, err
}
