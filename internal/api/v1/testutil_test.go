package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/auth"
	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
	"github.com/gosuda/okrs/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers, injecting the authenticated user for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID, role domain.Role) context.Context {
	return middleware.WithUser(context.Background(), userID, string(role))
}

func memberCtx(userID uuid.UUID) context.Context {
	return userCtx(userID, domain.RoleMember)
}

func adminCtx(userID uuid.UUID) context.Context {
	return userCtx(userID, domain.RoleAdmin)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users         domain.UserRepository
	organizations domain.OrganizationRepository
	departments   domain.DepartmentRepository
	teams         domain.TeamRepository
}

func (m *mockDataStore) Users() domain.UserRepository                 { return m.users }
func (m *mockDataStore) Organizations() domain.OrganizationRepository { return m.organizations }
func (m *mockDataStore) Departments() domain.DepartmentRepository     { return m.departments }
func (m *mockDataStore) Teams() domain.TeamRepository                 { return m.teams }

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	upsertByEmailFunc     func(ctx context.Context, u *domain.User) (*domain.User, error)
	getByIDFunc           func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByIDsFunc          func(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
	listFunc              func(ctx context.Context) ([]*domain.User, error)
	saveProviderTokenFunc func(ctx context.Context, t *domain.ProviderToken) error
}

func (m *mockUserRepo) UpsertByEmail(ctx context.Context, u *domain.User) (*domain.User, error) {
	return m.upsertByEmailFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	return m.getByIDsFunc(ctx, ids)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserRepo) SaveProviderToken(ctx context.Context, t *domain.ProviderToken) error {
	return m.saveProviderTokenFunc(ctx, t)
}

type mockOrganizationRepo struct {
	createFunc  func(ctx context.Context, o *domain.Organization) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	firstFunc   func(ctx context.Context) (*domain.Organization, error)
	listFunc    func(ctx context.Context) ([]*domain.Organization, error)
}

func (m *mockOrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	return m.createFunc(ctx, o)
}

func (m *mockOrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrganizationRepo) First(ctx context.Context) (*domain.Organization, error) {
	return m.firstFunc(ctx)
}

func (m *mockOrganizationRepo) List(ctx context.Context) ([]*domain.Organization, error) {
	return m.listFunc(ctx)
}

type mockDepartmentRepo struct {
	createFunc  func(ctx context.Context, d *domain.Department) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Department, error)
	listFunc    func(ctx context.Context) ([]*domain.Department, error)
	updateFunc  func(ctx context.Context, d *domain.Department) error
	deleteFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockDepartmentRepo) Create(ctx context.Context, d *domain.Department) error {
	return m.createFunc(ctx, d)
}

func (m *mockDepartmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockDepartmentRepo) List(ctx context.Context) ([]*domain.Department, error) {
	return m.listFunc(ctx)
}

func (m *mockDepartmentRepo) Update(ctx context.Context, d *domain.Department) error {
	return m.updateFunc(ctx, d)
}

func (m *mockDepartmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

type mockTeamRepo struct {
	createFunc  func(ctx context.Context, t *domain.Team) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	listFunc    func(ctx context.Context, departmentID *uuid.UUID) ([]*domain.Team, error)
	updateFunc  func(ctx context.Context, t *domain.Team) error
	deleteFunc  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTeamRepo) Create(ctx context.Context, t *domain.Team) error {
	return m.createFunc(ctx, t)
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTeamRepo) List(ctx context.Context, departmentID *uuid.UUID) ([]*domain.Team, error) {
	return m.listFunc(ctx, departmentID)
}

func (m *mockTeamRepo) Update(ctx context.Context, t *domain.Team) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Organization resolver
// ---------------------------------------------------------------------------

type staticOrg struct {
	org *domain.Organization
	err error
}

func (s staticOrg) Resolve(_ context.Context) (*domain.Organization, error) {
	return s.org, s.err
}

// ---------------------------------------------------------------------------
// Mock ObjectiveService
// ---------------------------------------------------------------------------

type mockObjectiveService struct {
	createFunc  func(ctx context.Context, callerID uuid.UUID, in okr.CreateInput) (*domain.Objective, error)
	getFunc     func(ctx context.Context, id uuid.UUID) (*okr.ObjectiveView, error)
	listFunc    func(ctx context.Context, f domain.ObjectiveFilter) ([]*domain.Objective, error)
	updateFunc  func(ctx context.Context, id, callerID uuid.UUID, p okr.Patch) (*domain.Objective, error)
	deleteFunc  func(ctx context.Context, id, callerID uuid.UUID) error
	historyFunc func(ctx context.Context, okrID uuid.UUID) ([]*okr.HistoryEntry, error)
}

func (m *mockObjectiveService) Create(ctx context.Context, callerID uuid.UUID, in okr.CreateInput) (*domain.Objective, error) {
	return m.createFunc(ctx, callerID, in)
}

func (m *mockObjectiveService) Get(ctx context.Context, id uuid.UUID) (*okr.ObjectiveView, error) {
	return m.getFunc(ctx, id)
}

func (m *mockObjectiveService) List(ctx context.Context, f domain.ObjectiveFilter) ([]*domain.Objective, error) {
	return m.listFunc(ctx, f)
}

func (m *mockObjectiveService) Update(ctx context.Context, id, callerID uuid.UUID, p okr.Patch) (*domain.Objective, error) {
	return m.updateFunc(ctx, id, callerID, p)
}

func (m *mockObjectiveService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	return m.deleteFunc(ctx, id, callerID)
}

func (m *mockObjectiveService) History(ctx context.Context, okrID uuid.UUID) ([]*okr.HistoryEntry, error) {
	return m.historyFunc(ctx, okrID)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	providersFunc        func() []string
	authorizationURLFunc func(provider string) (string, string, error)
	signInFunc           func(ctx context.Context, provider, code, state string) (*auth.Session, error)
	refreshTokenFunc     func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Providers() []string {
	return m.providersFunc()
}

func (m *mockAuthService) AuthorizationURL(provider string) (string, string, error) {
	return m.authorizationURLFunc(provider)
}

func (m *mockAuthService) SignIn(ctx context.Context, provider, code, state string) (*auth.Session, error) {
	return m.signInFunc(ctx, provider, code, state)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshTokenFunc(ctx, refreshToken)
}
