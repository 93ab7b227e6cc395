package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/okrs/internal/domain"
)

//nolint:gochecknoglobals // statement builder
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

//nolint:gochecknoglobals // column list shared by reads
var objectiveColumns = []string{
	"id", "title", "description", "owner_id", "objective_type",
	"member_id", "team_id", "department_id", "organization_id",
	"status", "progress", "key_results", "tags", "start_date", "due_date",
	"version", "created_at", "updated_at",
}

type ObjectiveRepo struct {
	db DB
}

func NewObjectiveRepo(db DB) *ObjectiveRepo {
	return &ObjectiveRepo{db: db}
}

func (r *ObjectiveRepo) Create(ctx context.Context, o *domain.Objective) error {
	keyResults, err := marshalKeyResults(o.KeyResults)
	if err != nil {
		return fmt.Errorf("objectiveRepo.Create: %w", err)
	}

	_, err = querierFromCtx(ctx, r.db).Exec(ctx,
		`INSERT INTO objectives (id, title, description, owner_id, objective_type,
		     member_id, team_id, department_id, organization_id,
		     status, progress, key_results, tags, start_date, due_date,
		     version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		o.ID, o.Title, o.Description, o.OwnerID, o.ObjectiveType,
		o.MemberID, o.TeamID, o.DepartmentID, o.OrganizationID,
		o.Status, o.Progress, keyResults, tagsOrEmpty(o.Tags), o.StartDate, o.DueDate,
		o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return mapError("objectiveRepo.Create", err)
	}

	return nil
}

func (r *ObjectiveRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Objective, error) {
	query, args, err := psql.Select(objectiveColumns...).
		From("objectives").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("objectiveRepo.GetByID: build: %w", err)
	}

	o, err := scanObjective(querierFromCtx(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError("objectiveRepo.GetByID", err)
	}

	return o, nil
}

// Update writes every mutable column of o guarded by the version check.
// Zero affected rows means another writer got there first.
func (r *ObjectiveRepo) Update(ctx context.Context, o *domain.Objective, expectedVersion int) error {
	keyResults, err := marshalKeyResults(o.KeyResults)
	if err != nil {
		return fmt.Errorf("objectiveRepo.Update: %w", err)
	}

	tag, err := querierFromCtx(ctx, r.db).Exec(ctx,
		`UPDATE objectives SET
		     title = $1, description = $2, owner_id = $3, objective_type = $4,
		     member_id = $5, team_id = $6, department_id = $7, organization_id = $8,
		     status = $9, progress = $10, key_results = $11, tags = $12,
		     start_date = $13, due_date = $14, version = $15, updated_at = $16
		 WHERE id = $17 AND version = $18`,
		o.Title, o.Description, o.OwnerID, o.ObjectiveType,
		o.MemberID, o.TeamID, o.DepartmentID, o.OrganizationID,
		o.Status, o.Progress, keyResults, tagsOrEmpty(o.Tags),
		o.StartDate, o.DueDate, o.Version, o.UpdatedAt,
		o.ID, expectedVersion,
	)
	if err != nil {
		return mapError("objectiveRepo.Update", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("objectiveRepo.Update: version %d: %w", expectedVersion, domain.ErrConflict)
	}

	return nil
}

func (r *ObjectiveRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := querierFromCtx(ctx, r.db).Exec(ctx, `DELETE FROM objectives WHERE id = $1`, id)
	if err != nil {
		return mapError("objectiveRepo.Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("objectiveRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

// List returns objectives of f.Scope, newest first, narrowed by the
// optional filters.
func (r *ObjectiveRepo) List(ctx context.Context, f domain.ObjectiveFilter) ([]*domain.Objective, error) {
	q := psql.Select(objectiveColumns...).
		From("objectives").
		Where(squirrel.Eq{"objective_type": f.Scope})

	if f.Status != nil {
		q = q.Where(squirrel.Eq{"status": *f.Status})
	}
	if f.OwnerID != nil {
		q = q.Where(squirrel.Eq{"owner_id": *f.OwnerID})
	}
	if f.MemberID != nil {
		q = q.Where(squirrel.Eq{"member_id": *f.MemberID})
	}
	if f.TeamID != nil {
		q = q.Where(squirrel.Eq{"team_id": *f.TeamID})
	}
	if f.DepartmentID != nil {
		q = q.Where(squirrel.Eq{"department_id": *f.DepartmentID})
	}

	q = q.OrderBy("created_at DESC", "id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("objectiveRepo.List: build: %w", err)
	}

	rows, err := querierFromCtx(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("objectiveRepo.List", err)
	}
	defer rows.Close()

	objectives := []*domain.Objective{}
	for rows.Next() {
		o, err := scanObjective(rows)
		if err != nil {
			return nil, fmt.Errorf("objectiveRepo.List: scan: %w", err)
		}
		objectives = append(objectives, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("objectiveRepo.List: rows: %w", err)
	}

	return objectives, nil
}

func scanObjective(row pgx.Row) (*domain.Objective, error) {
	var o domain.Objective
	var keyResults []byte

	err := row.Scan(
		&o.ID, &o.Title, &o.Description, &o.OwnerID, &o.ObjectiveType,
		&o.MemberID, &o.TeamID, &o.DepartmentID, &o.OrganizationID,
		&o.Status, &o.Progress, &keyResults, &o.Tags, &o.StartDate, &o.DueDate,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(keyResults) > 0 {
		if err := json.Unmarshal(keyResults, &o.KeyResults); err != nil {
			return nil, fmt.Errorf("unmarshal key results: %w", err)
		}
	}
	if o.KeyResults == nil {
		o.KeyResults = []domain.KeyResult{}
	}
	o.Tags = tagsOrEmpty(o.Tags)

	return &o, nil
}

func marshalKeyResults(krs []domain.KeyResult) ([]byte, error) {
	if krs == nil {
		krs = []domain.KeyResult{}
	}
	b, err := json.Marshal(krs)
	if err != nil {
		return nil, fmt.Errorf("marshal key results: %w", err)
	}
	return b, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
