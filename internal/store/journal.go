package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nightcity/redsheet/internal/redsheet"
)

// positional updates race with deletes shifting the array; retry a few times
// before reporting a conflict.
const journalUpdateAttempts = 3

// AddJournalEntry appends e to the campaign journal.
func (s *DocStore) AddJournalEntry(ctx context.Context, id string, e redsheet.JournalEntry, now time.Time) (redsheet.Campaign, error) {
	if e.Tags == nil {
		e.Tags = []string{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return redsheet.Campaign{}, err
	}
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		`UPDATE campaigns SET updated_at = ?, data = jsonb_set(
			jsonb_insert(data, '$.journalEntries[#]', json(?)), '$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		now.UnixNano(), string(data), stamp(now), id,
	)
}

// UpdateJournalEntry overwrites the given fields of one entry in place. A
// missing campaign or entry yields ErrNotFound.
func (s *DocStore) UpdateJournalEntry(ctx context.Context, id, entryID string, fields map[string]any, now time.Time) (redsheet.Campaign, error) {
	for range journalUpdateAttempts {
		idx, err := s.journalIndex(ctx, id, entryID)
		if err != nil {
			return redsheet.Campaign{}, err
		}
		prefix := fmt.Sprintf("$.journalEntries[%d]", idx)
		clauses, values, err := setClauses(prefix, fields)
		if err != nil {
			return redsheet.Campaign{}, err
		}
		args := append([]any{now.UnixNano()}, values...)
		args = append(args, stamp(now), id, entryID)

		c, err := conditional[redsheet.Campaign](ctx, s, "campaigns", id,
			fmt.Sprintf(`UPDATE campaigns SET updated_at = ?, data = jsonb_set(data, %s, '$.updatedAt', ?)
			 WHERE id = ? AND json_extract(data, '%s.id') = ?
			 RETURNING json(data)`, clauses, prefix),
			args...,
		)
		if errors.Is(err, ErrConditionFailed) {
			continue
		}
		return c, err
	}
	return redsheet.Campaign{}, ErrConditionFailed
}

// DeleteJournalEntry removes the entry with entryID. Deleting an absent entry
// leaves the journal unchanged.
func (s *DocStore) DeleteJournalEntry(ctx context.Context, id, entryID string, now time.Time) (redsheet.Campaign, error) {
	return conditional[redsheet.Campaign](ctx, s, "campaigns", id,
		`UPDATE campaigns SET updated_at = ?, data = jsonb_set(data,
			'$.journalEntries', json((
				SELECT json_group_array(json(value)) FROM json_each(campaigns.data, '$.journalEntries')
				WHERE json_extract(value, '$.id') != ?)),
			'$.updatedAt', ?)
		 WHERE id = ?
		 RETURNING json(data)`,
		now.UnixNano(), entryID, stamp(now), id,
	)
}

func (s *DocStore) journalIndex(ctx context.Context, id, entryID string) (int, error) {
	var idx int
	err := s.db.QueryRowContext(ctx,
		`SELECT je.key FROM campaigns, json_each(campaigns.data, '$.journalEntries') AS je
		 WHERE campaigns.id = ? AND json_extract(je.value, '$.id') = ?`,
		id, entryID,
	).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return idx, err
}
