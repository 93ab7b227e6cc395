package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/okrs/internal/domain"
)

const departmentColumns = `id, organization_id, name, description, head_id, budget, location,
	established_date, mission, vision, status, created_at, updated_at`

type DepartmentRepo struct {
	db DB
}

func NewDepartmentRepo(db DB) *DepartmentRepo {
	return &DepartmentRepo{db: db}
}

func (r *DepartmentRepo) Create(ctx context.Context, d *domain.Department) error {
	_, err := querierFromCtx(ctx, r.db).Exec(ctx,
		`INSERT INTO departments (`+departmentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.OrganizationID, d.Name, d.Description, d.HeadID, d.Budget, d.Location,
		d.EstablishedDate, d.Mission, d.Vision, d.Status, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return mapError("departmentRepo.Create", err)
	}

	return nil
}

func (r *DepartmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	d, err := scanDepartment(querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT `+departmentColumns+` FROM departments WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, mapError("departmentRepo.GetByID", err)
	}

	return d, nil
}

func (r *DepartmentRepo) List(ctx context.Context) ([]*domain.Department, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx,
		`SELECT `+departmentColumns+` FROM departments ORDER BY name, id`,
	)
	if err != nil {
		return nil, mapError("departmentRepo.List", err)
	}
	defer rows.Close()

	departments := []*domain.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("departmentRepo.List: scan: %w", err)
		}
		departments = append(departments, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("departmentRepo.List: rows: %w", err)
	}

	return departments, nil
}

func (r *DepartmentRepo) Update(ctx context.Context, d *domain.Department) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx,
		`UPDATE departments SET
		     name = $1, description = $2, head_id = $3, budget = $4, location = $5,
		     established_date = $6, mission = $7, vision = $8, status = $9, updated_at = $10
		 WHERE id = $11`,
		d.Name, d.Description, d.HeadID, d.Budget, d.Location,
		d.EstablishedDate, d.Mission, d.Vision, d.Status, d.UpdatedAt,
		d.ID,
	)
	if err != nil {
		return mapError("departmentRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("departmentRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *DepartmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return mapError("departmentRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("departmentRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var d domain.Department
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Name, &d.Description, &d.HeadID, &d.Budget, &d.Location,
		&d.EstablishedDate, &d.Mission, &d.Vision, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
