package okr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/okrs/internal/domain"
)

// listLimit caps scope listings.
const listLimit = 500

// ObjectiveView is an objective with its relation ids replaced by display
// references. A reference that no longer resolves is null.
type ObjectiveView struct {
	ID             uuid.UUID              `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	OwnerID        *domain.UserRef        `json:"ownerId"`
	ObjectiveType  domain.Scope           `json:"objectiveType"`
	MemberID       *domain.UserRef        `json:"memberId"`
	TeamID         *domain.NamedRef       `json:"teamId"`
	DepartmentID   *domain.NamedRef       `json:"departmentId"`
	OrganizationID *domain.NamedRef       `json:"organizationId"`
	Status         domain.ObjectiveStatus `json:"status"`
	Progress       int                    `json:"progress"`
	KeyResults     []domain.KeyResult     `json:"keyResults"`
	Tags           []string               `json:"tags"`
	StartDate      *time.Time             `json:"startDate,omitempty"`
	DueDate        *time.Time             `json:"dueDate,omitempty"`
	Version        int                    `json:"version"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// Get returns objective id with owner, member, team, department and
// organization resolved concurrently.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ObjectiveView, error) {
	o, err := s.store.Objectives().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("okr.Get: %w", err)
	}

	view := &ObjectiveView{
		ID:            o.ID,
		Title:         o.Title,
		Description:   o.Description,
		ObjectiveType: o.ObjectiveType,
		Status:        o.Status,
		Progress:      o.Progress,
		KeyResults:    o.KeyResults,
		Tags:          tagsValue(o.Tags),
		StartDate:     o.StartDate,
		DueDate:       o.DueDate,
		Version:       o.Version,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if view.KeyResults == nil {
		view.KeyResults = []domain.KeyResult{}
	}

	g, gctx := errgroup.WithContext(ctx)

	ownerID := o.OwnerID
	g.Go(func() error {
		ref, err := s.userRef(gctx, &ownerID)
		view.OwnerID = ref
		return err
	})
	g.Go(func() error {
		ref, err := s.userRef(gctx, o.MemberID)
		view.MemberID = ref
		return err
	})
	g.Go(func() error {
		ref, err := lookupNamed(gctx, o.TeamID, func(ctx context.Context, id uuid.UUID) (string, error) {
			t, err := s.store.Teams().GetByID(ctx, id)
			if err != nil {
				return "", err
			}
			return t.Name, nil
		})
		view.TeamID = ref
		return err
	})
	g.Go(func() error {
		ref, err := lookupNamed(gctx, o.DepartmentID, func(ctx context.Context, id uuid.UUID) (string, error) {
			d, err := s.store.Departments().GetByID(ctx, id)
			if err != nil {
				return "", err
			}
			return d.Name, nil
		})
		view.DepartmentID = ref
		return err
	})
	g.Go(func() error {
		ref, err := lookupNamed(gctx, o.OrganizationID, func(ctx context.Context, id uuid.UUID) (string, error) {
			org, err := s.store.Organizations().GetByID(ctx, id)
			if err != nil {
				return "", err
			}
			return org.Name, nil
		})
		view.OrganizationID = ref
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("okr.Get: %w", err)
	}

	return view, nil
}

// List returns objectives of the filter's scope, newest first. An empty
// scope defaults to individual.
func (s *Service) List(ctx context.Context, f domain.ObjectiveFilter) ([]*domain.Objective, error) {
	if f.Scope == "" {
		f.Scope = domain.ScopeIndividual
	}
	if !f.Scope.Valid() {
		return nil, fmt.Errorf("okr.List: %w", &domain.FieldError{Field: "type", Reason: "unknown objective type " + string(f.Scope)})
	}
	if f.Limit <= 0 || f.Limit > listLimit {
		f.Limit = listLimit
	}

	objectives, err := s.store.Objectives().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("okr.List: %w", err)
	}
	return objectives, nil
}

func (s *Service) userRef(ctx context.Context, id *uuid.UUID) (*domain.UserRef, error) {
	if id == nil {
		return nil, nil
	}
	u, err := s.store.Users().GetByID(ctx, *id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u.Ref(), nil
}

func lookupNamed(ctx context.Context, id *uuid.UUID, name func(context.Context, uuid.UUID) (string, error)) (*domain.NamedRef, error) {
	if id == nil {
		return nil, nil
	}
	n, err := name(ctx, *id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.NamedRef{ID: *id, Name: n}, nil
}
