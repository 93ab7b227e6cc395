// Package okr implements the objective lifecycle: role-gated creation,
// field-level diffing of updates with an audit trail, deletion, and the
// composed read views.
package okr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/okrs/internal/domain"
)

// Store is the repository accessor set the service depends on.
// *postgres.Store satisfies this interface.
type Store interface {
	Objectives() domain.ObjectiveRepository
	UpdateLogs() domain.UpdateLogRepository
	Users() domain.UserRepository
	Teams() domain.TeamRepository
	Departments() domain.DepartmentRepository
	Organizations() domain.OrganizationRepository
}

// Service coordinates objective writes and reads. Every write runs the
// objective change and its update log entries in one transaction.
type Service struct {
	store       Store
	tx          domain.TxManager
	orgResolver OrganizationResolver
	events      domain.EventPublisher
	permissions ScopeTable
	now         func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithScopeTable replaces DefaultScopeTable.
func WithScopeTable(t ScopeTable) Option {
	return func(s *Service) { s.permissions = t }
}

// NewService creates a Service. events may be nil, in which case committed
// changes are not announced.
func NewService(store Store, tx domain.TxManager, orgResolver OrganizationResolver, events domain.EventPublisher, opts ...Option) *Service {
	s := &Service{
		store:       store,
		tx:          tx,
		orgResolver: orgResolver,
		events:      events,
		permissions: DefaultScopeTable,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update applies p to objective id on behalf of callerID and persists the
// result together with its update log entries. A no-op patch writes nothing
// and returns the stored objective.
func (s *Service) Update(ctx context.Context, id, callerID uuid.UUID, p Patch) (*domain.Objective, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("okr.Update: %w", err)
	}

	stored, err := s.store.Objectives().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("okr.Update: %w", err)
	}

	if p.Version != nil && *p.Version != stored.Version {
		return nil, fmt.Errorf("okr.Update: version %d is stale, current is %d: %w", *p.Version, stored.Version, domain.ErrConflict)
	}

	next, entries, err := Apply(stored, caller.ID, p, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("okr.Update: %w", err)
	}
	if len(entries) == 0 {
		return stored, nil
	}
	next.Version = stored.Version + 1

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Objectives().Update(ctx, next, stored.Version); err != nil {
			return err
		}
		return s.store.UpdateLogs().Append(ctx, entries)
	})
	if err != nil {
		return nil, fmt.Errorf("okr.Update: %w", err)
	}

	s.publish(ctx, domain.ObjectiveEvent{
		Type:        domain.EventObjectiveUpdated,
		ObjectiveID: next.ID,
		ActorID:     caller.ID,
		Scope:       next.ObjectiveType,
		Version:     next.Version,
		Changes:     len(entries),
		OccurredAt:  next.UpdatedAt,
	})

	return next, nil
}

// Delete removes objective id and records a delete entry. Prior entries of
// the objective are kept.
func (s *Service) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return fmt.Errorf("okr.Delete: %w", err)
	}

	stored, err := s.store.Objectives().GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("okr.Delete: %w", err)
	}

	now := s.now().UTC()
	entry := &domain.UpdateLogEntry{
		ID:        uuid.New(),
		OKRID:     stored.ID,
		UserID:    caller.ID,
		Action:    domain.ActionDelete,
		Timestamp: now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Objectives().Delete(ctx, stored.ID); err != nil {
			return err
		}
		return s.store.UpdateLogs().Append(ctx, []*domain.UpdateLogEntry{entry})
	})
	if err != nil {
		return fmt.Errorf("okr.Delete: %w", err)
	}

	s.publish(ctx, domain.ObjectiveEvent{
		Type:        domain.EventObjectiveDeleted,
		ObjectiveID: stored.ID,
		ActorID:     caller.ID,
		Scope:       stored.ObjectiveType,
		Version:     stored.Version,
		Changes:     1,
		OccurredAt:  now,
	})

	return nil
}

// resolveCaller maps the session user id to a stored user. A missing or
// unknown id is ErrUnauthorized; store failures pass through.
func (s *Service) resolveCaller(ctx context.Context, callerID uuid.UUID) (*domain.User, error) {
	if callerID == uuid.Nil {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.store.Users().GetByID(ctx, callerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// publish announces a committed change. Delivery is best effort: the change
// is already durable, so a failure is only logged.
func (s *Service) publish(ctx context.Context, ev domain.ObjectiveEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishObjectiveEvent(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("objective_id", ev.ObjectiveID.String()).
			Str("event", string(ev.Type)).
			Msg("okr: failed to publish objective event")
	}
}
