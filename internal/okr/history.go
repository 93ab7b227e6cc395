package okr

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/gosuda/okrs/internal/domain"
)

const (
	userBatchCapacity = 100
	userBatchWait     = 2 * time.Millisecond
)

// HistoryEntry is an update log entry with its actor resolved. UserID is
// null when the actor no longer exists.
type HistoryEntry struct {
	ID           uuid.UUID           `json:"id"`
	OKRID        uuid.UUID           `json:"okrId"`
	KeyResultID  *uuid.UUID          `json:"keyResultId"`
	UserID       *domain.UserRef     `json:"userId"`
	Action       domain.UpdateAction `json:"action"`
	FieldChanged string              `json:"fieldChanged,omitempty"`
	OldValue     any                 `json:"oldValue"`
	NewValue     any                 `json:"newValue"`
	Timestamp    time.Time           `json:"timestamp"`
}

// History returns the update log of objective okrID newest first. It does
// not require the objective to still exist.
func (s *Service) History(ctx context.Context, okrID uuid.UUID) ([]*HistoryEntry, error) {
	entries, err := s.store.UpdateLogs().ListByObjective(ctx, okrID)
	if err != nil {
		return nil, fmt.Errorf("okr.History: %w", err)
	}

	loader := newUserLoader(s.store.Users())
	thunks := make([]dataloader.Thunk[*domain.User], len(entries))
	for i, e := range entries {
		thunks[i] = loader.Load(ctx, e.UserID)
	}

	out := make([]*HistoryEntry, len(entries))
	for i, e := range entries {
		u, err := thunks[i]()
		if err != nil {
			return nil, fmt.Errorf("okr.History: load actor: %w", err)
		}
		var actor *domain.UserRef
		if u != nil {
			actor = u.Ref()
		}
		out[i] = &HistoryEntry{
			ID:           e.ID,
			OKRID:        e.OKRID,
			KeyResultID:  e.KeyResultID,
			UserID:       actor,
			Action:       e.Action,
			FieldChanged: e.FieldChanged,
			OldValue:     e.OldValue,
			NewValue:     e.NewValue,
			Timestamp:    e.Timestamp,
		}
	}

	return out, nil
}

// newUserLoader batches actor lookups into GetByIDs calls. Loaders cache
// per instance, so one is created per History call.
func newUserLoader(users domain.UserRepository) *dataloader.Loader[uuid.UUID, *domain.User] {
	batch := func(ctx context.Context, keys []uuid.UUID) []*dataloader.Result[*domain.User] {
		found, err := users.GetByIDs(ctx, keys)
		if err != nil {
			results := make([]*dataloader.Result[*domain.User], len(keys))
			for i := range results {
				results[i] = &dataloader.Result[*domain.User]{Error: err}
			}
			return results
		}

		byID := make(map[uuid.UUID]*domain.User, len(found))
		for _, u := range found {
			byID[u.ID] = u
		}

		results := make([]*dataloader.Result[*domain.User], len(keys))
		for i, key := range keys {
			results[i] = &dataloader.Result[*domain.User]{Data: byID[key]}
		}
		return results
	}

	return dataloader.NewBatchedLoader(
		batch,
		dataloader.WithWait[uuid.UUID, *domain.User](userBatchWait),
		dataloader.WithBatchCapacity[uuid.UUID, *domain.User](userBatchCapacity),
	)
}
