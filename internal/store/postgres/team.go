package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/okrs/internal/domain"
)

//nolint:gochecknoglobals // column list shared by reads
var teamColumns = []string{
	"id", "organization_id", "department_id", "name", "description",
	"lead_id", "member_ids", "goals", "status", "created_at", "updated_at",
}

type TeamRepo struct {
	db DB
}

func NewTeamRepo(db DB) *TeamRepo {
	return &TeamRepo{db: db}
}

func (r *TeamRepo) Create(ctx context.Context, t *domain.Team) error {
	members := t.MemberIDs
	if members == nil {
		members = []uuid.UUID{}
	}
	goals := t.Goals
	if goals == nil {
		goals = []string{}
	}

	query, args, err := psql.Insert("teams").
		Columns(teamColumns...).
		Values(t.ID, t.OrganizationID, t.DepartmentID, t.Name, t.Description,
			t.LeadID, members, goals, t.Status, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("teamRepo.Create: build: %w", err)
	}

	if _, err := querierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return mapError("teamRepo.Create", err)
	}

	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	query, args, err := psql.Select(teamColumns...).
		From("teams").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("teamRepo.GetByID: build: %w", err)
	}

	t, err := scanTeam(querierFromCtx(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError("teamRepo.GetByID", err)
	}

	return t, nil
}

func (r *TeamRepo) List(ctx context.Context, departmentID *uuid.UUID) ([]*domain.Team, error) {
	q := psql.Select(teamColumns...).From("teams")
	if departmentID != nil {
		q = q.Where(squirrel.Eq{"department_id": *departmentID})
	}

	query, args, err := q.OrderBy("name", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("teamRepo.List: build: %w", err)
	}

	rows, err := querierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("teamRepo.List", err)
	}
	defer rows.Close()

	teams := []*domain.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("teamRepo.List: scan: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("teamRepo.List: rows: %w", err)
	}

	return teams, nil
}

func (r *TeamRepo) Update(ctx context.Context, t *domain.Team) error {
	members := t.MemberIDs
	if members == nil {
		members = []uuid.UUID{}
	}
	goals := t.Goals
	if goals == nil {
		goals = []string{}
	}

	query, args, err := psql.Update("teams").
		SetMap(map[string]any{
			"department_id": t.DepartmentID,
			"name":          t.Name,
			"description":   t.Description,
			"lead_id":       t.LeadID,
			"member_ids":    members,
			"goals":         goals,
			"status":        t.Status,
			"updated_at":    t.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("teamRepo.Update: build: %w", err)
	}

	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return mapError("teamRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("teamRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete("teams").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("teamRepo.Delete: build: %w", err)
	}

	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return mapError("teamRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("teamRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var t domain.Team
	err := row.Scan(&t.ID, &t.OrganizationID, &t.DepartmentID, &t.Name, &t.Description,
		&t.LeadID, &t.MemberIDs, &t.Goals, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.MemberIDs == nil {
		t.MemberIDs = []uuid.UUID{}
	}
	if t.Goals == nil {
		t.Goals = []string{}
	}
	return &t, nil
}
