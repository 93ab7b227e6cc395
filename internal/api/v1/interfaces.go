package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/auth"
	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Organizations() domain.OrganizationRepository
	Departments() domain.DepartmentRepository
	Teams() domain.TeamRepository
}

// ObjectiveService abstracts the objective lifecycle for handler testing.
// *okr.Service satisfies this interface.
type ObjectiveService interface {
	Create(ctx context.Context, callerID uuid.UUID, in okr.CreateInput) (*domain.Objective, error)
	Get(ctx context.Context, id uuid.UUID) (*okr.ObjectiveView, error)
	List(ctx context.Context, f domain.ObjectiveFilter) ([]*domain.Objective, error)
	Update(ctx context.Context, id, callerID uuid.UUID, p okr.Patch) (*domain.Objective, error)
	Delete(ctx context.Context, id, callerID uuid.UUID) error
	History(ctx context.Context, okrID uuid.UUID) ([]*okr.HistoryEntry, error)
}

// AuthService abstracts sign-in operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Providers() []string
	AuthorizationURL(provider string) (authURL, state string, err error)
	SignIn(ctx context.Context, provider, code, state string) (*auth.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}
