package okr_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
)

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

type mockStore struct {
	objectives    domain.ObjectiveRepository
	updateLogs    domain.UpdateLogRepository
	users         domain.UserRepository
	teams         domain.TeamRepository
	departments   domain.DepartmentRepository
	organizations domain.OrganizationRepository
}

func (m *mockStore) Objectives() domain.ObjectiveRepository       { return m.objectives }
func (m *mockStore) UpdateLogs() domain.UpdateLogRepository       { return m.updateLogs }
func (m *mockStore) Users() domain.UserRepository                 { return m.users }
func (m *mockStore) Teams() domain.TeamRepository                 { return m.teams }
func (m *mockStore) Departments() domain.DepartmentRepository     { return m.departments }
func (m *mockStore) Organizations() domain.OrganizationRepository { return m.organizations }

// ---------------------------------------------------------------------------
// TxManager
// ---------------------------------------------------------------------------

type txKey struct{}

// mockTx runs fn with a marked context so repositories can assert they were
// called inside the transaction.
type mockTx struct {
	calls int
	err   error
}

func (m *mockTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

type mockObjectiveRepo struct {
	createFunc  func(ctx context.Context, o *domain.Objective) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Objective, error)
	updateFunc  func(ctx context.Context, o *domain.Objective, expectedVersion int) error
	deleteFunc  func(ctx context.Context, id uuid.UUID) error
	listFunc    func(ctx context.Context, f domain.ObjectiveFilter) ([]*domain.Objective, error)
}

func (m *mockObjectiveRepo) Create(ctx context.Context, o *domain.Objective) error {
	return m.createFunc(ctx, o)
}

func (m *mockObjectiveRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Objective, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockObjectiveRepo) Update(ctx context.Context, o *domain.Objective, expectedVersion int) error {
	return m.updateFunc(ctx, o, expectedVersion)
}

func (m *mockObjectiveRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockObjectiveRepo) List(ctx context.Context, f domain.ObjectiveFilter) ([]*domain.Objective, error) {
	return m.listFunc(ctx, f)
}

type mockUpdateLogRepo struct {
	appendFunc          func(ctx context.Context, entries []*domain.UpdateLogEntry) error
	listByObjectiveFunc func(ctx context.Context, okrID uuid.UUID) ([]*domain.UpdateLogEntry, error)
}

func (m *mockUpdateLogRepo) Append(ctx context.Context, entries []*domain.UpdateLogEntry) error {
	return m.appendFunc(ctx, entries)
}

func (m *mockUpdateLogRepo) ListByObjective(ctx context.Context, okrID uuid.UUID) ([]*domain.UpdateLogEntry, error) {
	return m.listByObjectiveFunc(ctx, okrID)
}

type mockUserRepo struct {
	getByIDFunc  func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByIDsFunc func(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
}

func (m *mockUserRepo) UpsertByEmail(_ context.Context, _ *domain.User) (*domain.User, error) {
	panic("not implemented")
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	return m.getByIDsFunc(ctx, ids)
}

func (m *mockUserRepo) List(_ context.Context) ([]*domain.User, error) { panic("not implemented") }

func (m *mockUserRepo) SaveProviderToken(_ context.Context, _ *domain.ProviderToken) error {
	panic("not implemented")
}

// usersByID answers GetByID and GetByIDs from a fixed set.
func usersByID(users ...*domain.User) *mockUserRepo {
	byID := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &mockUserRepo{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			if u, ok := byID[id]; ok {
				return u, nil
			}
			return nil, domain.ErrNotFound
		},
		getByIDsFunc: func(_ context.Context, ids []uuid.UUID) ([]*domain.User, error) {
			var out []*domain.User
			for _, id := range ids {
				if u, ok := byID[id]; ok {
					out = append(out, u)
				}
			}
			return out, nil
		},
	}
}

type mockTeamRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Team, error)
}

func (m *mockTeamRepo) Create(_ context.Context, _ *domain.Team) error { panic("not implemented") }
func (m *mockTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockTeamRepo) List(_ context.Context, _ *uuid.UUID) ([]*domain.Team, error) {
	panic("not implemented")
}
func (m *mockTeamRepo) Update(_ context.Context, _ *domain.Team) error { panic("not implemented") }
func (m *mockTeamRepo) Delete(_ context.Context, _ uuid.UUID) error    { panic("not implemented") }

type mockDepartmentRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Department, error)
}

func (m *mockDepartmentRepo) Create(_ context.Context, _ *domain.Department) error {
	panic("not implemented")
}
func (m *mockDepartmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockDepartmentRepo) List(_ context.Context) ([]*domain.Department, error) {
	panic("not implemented")
}
func (m *mockDepartmentRepo) Update(_ context.Context, _ *domain.Department) error {
	panic("not implemented")
}
func (m *mockDepartmentRepo) Delete(_ context.Context, _ uuid.UUID) error { panic("not implemented") }

type mockOrganizationRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	firstFunc   func(ctx context.Context) (*domain.Organization, error)
}

func (m *mockOrganizationRepo) Create(_ context.Context, _ *domain.Organization) error {
	panic("not implemented")
}
func (m *mockOrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	return m.getByIDFunc(ctx, id)
}
func (m *mockOrganizationRepo) First(ctx context.Context) (*domain.Organization, error) {
	return m.firstFunc(ctx)
}
func (m *mockOrganizationRepo) List(_ context.Context) ([]*domain.Organization, error) {
	panic("not implemented")
}

// ---------------------------------------------------------------------------
// Organization resolver and event publisher
// ---------------------------------------------------------------------------

type staticOrg struct {
	org *domain.Organization
	err error
}

func (s staticOrg) Resolve(_ context.Context) (*domain.Organization, error) {
	return s.org, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ObjectiveEvent
	err    error
}

func (p *recordingPublisher) PublishObjectiveEvent(_ context.Context, ev domain.ObjectiveEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}
