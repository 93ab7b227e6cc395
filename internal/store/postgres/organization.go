package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/okrs/internal/domain"
)

const organizationColumns = `id, name, description, admins, created_at, updated_at`

type OrganizationRepo struct {
	db DB
}

func NewOrganizationRepo(db DB) *OrganizationRepo {
	return &OrganizationRepo{db: db}
}

func (r *OrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	admins := o.Admins
	if admins == nil {
		admins = []uuid.UUID{}
	}

	_, err := querierFromCtx(ctx, r.db).Exec(ctx,
		`INSERT INTO organizations (id, name, description, admins, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.Name, o.Description, admins, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return mapError("organizationRepo.Create", err)
	}

	return nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	o, err := scanOrganization(querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, mapError("organizationRepo.GetByID", err)
	}

	return o, nil
}

func (r *OrganizationRepo) First(ctx context.Context) (*domain.Organization, error) {
	o, err := scanOrganization(querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT `+organizationColumns+` FROM organizations ORDER BY created_at, id LIMIT 1`,
	))
	if err != nil {
		return nil, mapError("organizationRepo.First", err)
	}

	return o, nil
}

func (r *OrganizationRepo) List(ctx context.Context) ([]*domain.Organization, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx,
		`SELECT `+organizationColumns+` FROM organizations ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, mapError("organizationRepo.List", err)
	}
	defer rows.Close()

	orgs := []*domain.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("organizationRepo.List: scan: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("organizationRepo.List: rows: %w", err)
	}

	return orgs, nil
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var o domain.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Description, &o.Admins, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if o.Admins == nil {
		o.Admins = []uuid.UUID{}
	}
	return &o, nil
}
