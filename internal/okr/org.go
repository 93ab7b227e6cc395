package okr

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
)

// OrganizationResolver yields the organization new objectives and units
// are attached to.
type OrganizationResolver interface {
	Resolve(ctx context.Context) (*domain.Organization, error)
}

// FirstOrganization resolves to the earliest-created organization.
type FirstOrganization struct {
	repo domain.OrganizationRepository
}

func NewFirstOrganization(repo domain.OrganizationRepository) *FirstOrganization {
	return &FirstOrganization{repo: repo}
}

func (r *FirstOrganization) Resolve(ctx context.Context) (*domain.Organization, error) {
	org, err := r.repo.First(ctx)
	if err != nil {
		return nil, fmt.Errorf("okr.FirstOrganization.Resolve: %w", err)
	}
	return org, nil
}

// FixedOrganization resolves to a configured organization id.
type FixedOrganization struct {
	repo domain.OrganizationRepository
	id   uuid.UUID
}

func NewFixedOrganization(repo domain.OrganizationRepository, id uuid.UUID) *FixedOrganization {
	return &FixedOrganization{repo: repo, id: id}
}

func (r *FixedOrganization) Resolve(ctx context.Context) (*domain.Organization, error) {
	org, err := r.repo.GetByID(ctx, r.id)
	if err != nil {
		return nil, fmt.Errorf("okr.FixedOrganization.Resolve: %w", err)
	}
	return org, nil
}

// NewOrganizationResolver picks FixedOrganization when id is set and
// FirstOrganization otherwise.
func NewOrganizationResolver(repo domain.OrganizationRepository, id uuid.UUID) OrganizationResolver {
	if id != uuid.Nil {
		return NewFixedOrganization(repo, id)
	}
	return NewFirstOrganization(repo)
}
