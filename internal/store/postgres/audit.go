package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/okrs/internal/domain"
)

type UpdateLogRepo struct {
	db DB
}

func NewUpdateLogRepo(db DB) *UpdateLogRepo {
	return &UpdateLogRepo{db: db}
}

// Append writes all entries in a single multi-row INSERT so a batch is
// stored entirely or not at all.
func (r *UpdateLogRepo) Append(ctx context.Context, entries []*domain.UpdateLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	q := psql.Insert("update_log").Columns(
		"id", "okr_id", "key_result_id", "user_id", "action",
		"field_changed", "old_value", "new_value", "logged_at",
	)
	for _, e := range entries {
		oldValue, err := jsonValue(e.OldValue)
		if err != nil {
			return fmt.Errorf("updateLogRepo.Append: old value of %s: %w", e.FieldChanged, err)
		}
		newValue, err := jsonValue(e.NewValue)
		if err != nil {
			return fmt.Errorf("updateLogRepo.Append: new value of %s: %w", e.FieldChanged, err)
		}
		q = q.Values(
			e.ID, e.OKRID, e.KeyResultID, e.UserID, e.Action,
			nilIfEmpty(e.FieldChanged), oldValue, newValue, e.Timestamp,
		)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("updateLogRepo.Append: build: %w", err)
	}

	if _, err := querierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return mapError("updateLogRepo.Append", err)
	}

	return nil
}

func (r *UpdateLogRepo) ListByObjective(ctx context.Context, okrID uuid.UUID) ([]*domain.UpdateLogEntry, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx,
		`SELECT seq, id, okr_id, key_result_id, user_id, action, field_changed, old_value, new_value, logged_at
		 FROM update_log WHERE okr_id = $1
		 ORDER BY logged_at DESC, seq DESC`,
		okrID,
	)
	if err != nil {
		return nil, mapError("updateLogRepo.ListByObjective", err)
	}
	defer rows.Close()

	return scanUpdateLogEntries(rows, "updateLogRepo.ListByObjective")
}

func scanUpdateLogEntries(rows pgx.Rows, caller string) ([]*domain.UpdateLogEntry, error) {
	entries := []*domain.UpdateLogEntry{}
	for rows.Next() {
		var e domain.UpdateLogEntry
		var field *string
		var oldValue, newValue []byte

		if err := rows.Scan(
			&e.Seq, &e.ID, &e.OKRID, &e.KeyResultID, &e.UserID, &e.Action,
			&field, &oldValue, &newValue, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		e.FieldChanged = derefStr(field)

		if len(oldValue) > 0 {
			if err := json.Unmarshal(oldValue, &e.OldValue); err != nil {
				return nil, fmt.Errorf("%s: unmarshal old value: %w", caller, err)
			}
		}
		if len(newValue) > 0 {
			if err := json.Unmarshal(newValue, &e.NewValue); err != nil {
				return nil, fmt.Errorf("%s: unmarshal new value: %w", caller, err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}

// jsonValue encodes v for a JSONB column. nil stays SQL NULL.
func jsonValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
