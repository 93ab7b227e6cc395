package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDeptManager Role = "dept-manager"
	RoleTeamManager Role = "team-manager"
	RoleMember      Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeptManager, RoleTeamManager, RoleMember:
		return true
	default:
		return false
	}
}

type User struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           Role       `json:"role"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
	DepartmentID   *uuid.UUID `json:"departmentId,omitempty"`
	TeamID         *uuid.UUID `json:"teamId,omitempty"`
	AvatarURL      string     `json:"avatarUrl,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserRef is the display projection of a user embedded in composed views.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ProviderToken holds the identity provider's tokens for a user.
// AccessToken and RefreshToken are ciphertext.
type ProviderToken struct {
	UserID       uuid.UUID
	Provider     string // "google", "github"
	ProviderID   string
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	UpdatedAt    time.Time
}

type UserRepository interface {
	// UpsertByEmail inserts u or, when the email exists, refreshes name and
	// avatar while keeping the stored role. Returns the stored user.
	UpsertByEmail(ctx context.Context, u *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	List(ctx context.Context) ([]*User, error)

	SaveProviderToken(ctx context.Context, t *ProviderToken) error
}
