package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nightcity/redsheet/internal/redsheet"
)

func (s *DocStore) CreateCampaign(ctx context.Context, c redsheet.Campaign) error {
	c.Normalize()
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	var code, expires any
	if c.InviteCode != nil && c.InviteCodeExpiry != nil {
		code, expires = *c.InviteCode, c.InviteCodeExpiry.UnixNano()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, game_master_id, invite_code, invite_expires_at, updated_at, data)
		 VALUES (?, ?, ?, ?, ?, jsonb(?))`,
		c.ID, c.GameMasterID, code, expires, c.UpdatedAt.UnixNano(), string(data),
	)
	return err
}

func (s *DocStore) GetCampaign(ctx context.Context, id string) (redsheet.Campaign, error) {
	var c redsheet.Campaign
	err := s.get(ctx, "campaigns", id, &c)
	return c, err
}

// ListCampaignsForUser returns campaigns the user runs or plays in, most
// recently updated first.
func (s *DocStore) ListCampaignsForUser(ctx context.Context, userID string) ([]redsheet.Campaign, error) {
	return queryDocs[redsheet.Campaign](ctx, s.db,
		`SELECT json(data) FROM campaigns
		 WHERE game_master_id = ?
		    OR EXISTS (SELECT 1 FROM json_each(campaigns.data, '$.playerIds') WHERE value = ?)
		 ORDER BY updated_at DESC`,
		userID, userID,
	)
}

// CampaignByInvite finds the campaign holding code while it is unexpired.
func (s *DocStore) CampaignByInvite(ctx context.Context, code string, now time.Time) (redsheet.Campaign, error) {
	return scanDoc[redsheet.Campaign](s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM campaigns
		 WHERE invite_code = ? AND invite_expires_at > ?
		 ORDER BY invite_expires_at DESC LIMIT 1`,
		code, now.UnixNano(),
	))
}

// PatchCampaign overwrites the given top-level fields only.
func (s *DocStore) PatchCampaign(ctx context.Context, id string, fields map[string]any, now time.Time) (redsheet.Campaign, error) {
	if len(fields) == 0 {
		return s.GetCampaign(ctx, id)
	}
	clauses, values, err := setClauses("$", fields)
	if err != nil {
		return redsheet.Campaign{}, err
	}
	args := append([]any{now.UnixNano()}, values...)
	args = append(args, stamp(now), id)
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		fmt.Sprintf(`UPDATE campaigns SET updated_at = ?, data = jsonb_set(data, %s, '$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`, clauses),
		args...,
	)
}

func (s *DocStore) DeleteCampaign(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetInviteCode replaces any outstanding invite with code.
func (s *DocStore) SetInviteCode(ctx context.Context, id, code string, expiry, now time.Time) (redsheet.Campaign, error) {
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		`UPDATE campaigns SET invite_code = ?, invite_expires_at = ?, updated_at = ?,
			data = jsonb_set(data, '$.inviteCode', ?, '$.inviteCodeExpiry', ?, '$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		code, expiry.UnixNano(), now.UnixNano(), code, stamp(expiry), stamp(now), id,
	)
}

// ConsumeInvite adds userID to the players and clears the invite in one
// statement. It holds only while code is still the campaign's unexpired
// invite and userID is neither the game master nor a player; otherwise
// ErrConditionFailed.
func (s *DocStore) ConsumeInvite(ctx context.Context, id, code, userID string, now time.Time) (redsheet.Campaign, error) {
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		`UPDATE campaigns SET invite_code = NULL, invite_expires_at = NULL, updated_at = ?,
			data = jsonb_set(
				jsonb_insert(jsonb_remove(data, '$.inviteCode', '$.inviteCodeExpiry'), '$.playerIds[#]', ?),
				'$.updatedAt', ?)
		 WHERE id = ? AND invite_code = ? AND invite_expires_at > ? AND game_master_id != ?
		   AND NOT EXISTS (SELECT 1 FROM json_each(campaigns.data, '$.playerIds') WHERE value = ?)
		 RETURNING json(data)`,
		now.UnixNano(), userID, stamp(now), id, code, now.UnixNano(), userID, userID,
	)
}

// RemovePlayer drops userID from the players together with every linked
// character that user owns according to the characters table.
func (s *DocStore) RemovePlayer(ctx context.Context, id, userID string, now time.Time) (redsheet.Campaign, error) {
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		`UPDATE campaigns SET updated_at = ?, data = jsonb_set(data,
			'$.playerIds', json((
				SELECT json_group_array(value) FROM json_each(campaigns.data, '$.playerIds')
				WHERE value != ?)),
			'$.characterIds', json((
				SELECT json_group_array(value) FROM json_each(campaigns.data, '$.characterIds')
				WHERE value NOT IN (SELECT id FROM characters WHERE user_id = ?))),
			'$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		now.UnixNano(), userID, userID, stamp(now), id,
	)
}

// LinkCharacter appends characterID while it is not yet linked and userID is
// still a participant; otherwise ErrConditionFailed.
func (s *DocStore) LinkCharacter(ctx context.Context, id, characterID, userID string, now time.Time) (redsheet.Campaign, error) {
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		`UPDATE campaigns SET updated_at = ?, data = jsonb_set(
			jsonb_insert(data, '$.characterIds[#]', ?), '$.updatedAt', ?)
		 WHERE id = ?
		   AND NOT EXISTS (SELECT 1 FROM json_each(campaigns.data, '$.characterIds') WHERE value = ?)
		   AND (game_master_id = ?
		        OR EXISTS (SELECT 1 FROM json_each(campaigns.data, '$.playerIds') WHERE value = ?))
		 RETURNING json(data)`,
		now.UnixNano(), characterID, stamp(now), id, characterID, userID, userID,
	)
}

// UnlinkCharacter removes characterID if present.
func (s *DocStore) UnlinkCharacter(ctx context.Context, id, characterID string, now time.Time) (redsheet.Campaign, error) {
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		`UPDATE campaigns SET updated_at = ?, data = jsonb_set(data,
			'$.characterIds', json((
				SELECT json_group_array(value) FROM json_each(campaigns.data, '$.characterIds')
				WHERE value != ?)),
			'$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		now.UnixNano(), characterID, stamp(now), id,
	)
}
