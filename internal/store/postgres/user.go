package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/okrs/internal/domain"
)

const userColumns = `id, name, email, role, organization_id, department_id, team_id, avatar_url, created_at, updated_at`

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

// --- Users ---

// UpsertByEmail keys users on email. On conflict only the profile fields
// coming from the identity provider are refreshed.
func (r *UserRepo) UpsertByEmail(ctx context.Context, u *domain.User) (*domain.User, error) {
	stored, err := scanUser(querierFromCtx(ctx, r.db).QueryRow(ctx,
		`INSERT INTO users (id, name, email, role, organization_id, department_id, team_id, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (email) DO UPDATE SET
		     name = EXCLUDED.name,
		     avatar_url = COALESCE(EXCLUDED.avatar_url, users.avatar_url),
		     updated_at = EXCLUDED.updated_at
		 RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.Role,
		u.OrganizationID, u.DepartmentID, u.TeamID, nilIfEmpty(u.AvatarURL),
		u.CreatedAt, u.UpdatedAt,
	))
	if err != nil {
		return nil, mapError("userRepo.UpsertByEmail", err)
	}

	return stored, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(querierFromCtx(ctx, r.db).QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, mapError("userRepo.GetByID", err)
	}

	return u, nil
}

// GetByIDs returns the users that exist among ids, in no particular order.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	rows, err := querierFromCtx(ctx, r.db).Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, mapError("userRepo.GetByIDs", err)
	}
	defer rows.Close()

	return scanUsers(rows, "userRepo.GetByIDs")
}

func (r *UserRepo) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := querierFromCtx(ctx, r.db).Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT 500`,
	)
	if err != nil {
		return nil, mapError("userRepo.List", err)
	}
	defer rows.Close()

	return scanUsers(rows, "userRepo.List")
}

// --- Provider tokens ---

func (r *UserRepo) SaveProviderToken(ctx context.Context, t *domain.ProviderToken) error {
	_, err := querierFromCtx(ctx, r.db).Exec(ctx,
		`INSERT INTO provider_tokens (user_id, provider, provider_id, access_token, refresh_token, expires_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, provider) DO UPDATE SET
		     provider_id = EXCLUDED.provider_id,
		     access_token = EXCLUDED.access_token,
		     refresh_token = COALESCE(EXCLUDED.refresh_token, provider_tokens.refresh_token),
		     expires_at = EXCLUDED.expires_at,
		     updated_at = EXCLUDED.updated_at`,
		t.UserID, t.Provider, t.ProviderID, t.AccessToken, nilIfEmpty(t.RefreshToken), t.ExpiresAt, t.UpdatedAt,
	)
	if err != nil {
		return mapError("userRepo.SaveProviderToken", err)
	}

	return nil
}

// --- Helpers ---

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var avatarURL *string

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role,
		&u.OrganizationID, &u.DepartmentID, &u.TeamID, &avatarURL,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.AvatarURL = derefStr(avatarURL)

	return &u, nil
}

func scanUsers(rows pgx.Rows, caller string) ([]*domain.User, error) {
	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return users, nil
}
