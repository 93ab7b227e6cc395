package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type UpdateAction string

const (
	ActionCreate         UpdateAction = "create"
	ActionUpdate         UpdateAction = "update"
	ActionDelete         UpdateAction = "delete"
	ActionProgressUpdate UpdateAction = "progress_update"
)

// UpdateLogEntry is one immutable change record for an objective.
// OldValue and NewValue hold any JSON value; whole key results are stored
// as their serialized JSON text.
type UpdateLogEntry struct {
	ID           uuid.UUID    `json:"id"`
	Seq          int64        `json:"-"` // assigned by the store, breaks timestamp ties
	OKRID        uuid.UUID    `json:"okrId"`
	KeyResultID  *uuid.UUID   `json:"keyResultId"`
	UserID       uuid.UUID    `json:"userId"`
	Action       UpdateAction `json:"action"`
	FieldChanged string       `json:"fieldChanged,omitempty"`
	OldValue     any          `json:"oldValue"`
	NewValue     any          `json:"newValue"`
	Timestamp    time.Time    `json:"timestamp"`
}

type UpdateLogRepository interface {
	// Append inserts all entries as one statement. An empty slice is a no-op.
	Append(ctx context.Context, entries []*UpdateLogEntry) error
	// ListByObjective returns entries newest first. Entries outlive their objective.
	ListByObjective(ctx context.Context, okrID uuid.UUID) ([]*UpdateLogEntry, error)
}
