package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TxManager runs fn inside one database transaction. Repositories called
// with the ctx passed to fn participate in that transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type ObjectiveEventType string

const (
	EventObjectiveCreated ObjectiveEventType = "objective.created"
	EventObjectiveUpdated ObjectiveEventType = "objective.updated"
	EventObjectiveDeleted ObjectiveEventType = "objective.deleted"
)

// ObjectiveEvent is published after a committed change to an objective.
type ObjectiveEvent struct {
	Type        ObjectiveEventType `json:"type"`
	ObjectiveID uuid.UUID          `json:"objectiveId"`
	ActorID     uuid.UUID          `json:"actorId"`
	Scope       Scope              `json:"objectiveType"`
	Version     int                `json:"version"`
	Changes     int                `json:"changes"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

type EventPublisher interface {
	PublishObjectiveEvent(ctx context.Context, ev ObjectiveEvent) error
}
