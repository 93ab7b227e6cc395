package okr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
)

func newUser(role domain.Role) *domain.User {
	id := uuid.New()
	return &domain.User{ID: id, Name: "User " + id.String()[:8], Email: id.String()[:8] + "@example.com", Role: role}
}

func clock() time.Time { return testNow }

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestService_Update(t *testing.T) {
	t.Parallel()

	t.Run("persists objective and entries in one transaction", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(caller.ID)
		tx := &mockTx{}
		pub := &recordingPublisher{}

		var updated *domain.Objective
		var appended []*domain.UpdateLogEntry
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Objective, error) {
					assert.Equal(t, stored.ID, id)
					return stored.Clone(), nil
				},
				updateFunc: func(ctx context.Context, o *domain.Objective, expectedVersion int) error {
					assert.True(t, inTx(ctx), "objective write must run inside the transaction")
					assert.Equal(t, 3, expectedVersion)
					updated = o
					return nil
				},
			},
			updateLogs: &mockUpdateLogRepo{
				appendFunc: func(ctx context.Context, entries []*domain.UpdateLogEntry) error {
					assert.True(t, inTx(ctx), "log write must run inside the transaction")
					appended = entries
					return nil
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, pub, okr.WithClock(clock))

		got, err := svc.Update(context.Background(), stored.ID, caller.ID, okr.Patch{Title: okr.Some("New Title")})
		require.NoError(t, err)

		assert.Equal(t, 1, tx.calls)
		require.NotNil(t, updated)
		assert.Equal(t, "New Title", updated.Title)
		assert.Equal(t, 4, got.Version)
		assert.Equal(t, 50, got.Progress)
		require.Len(t, appended, 1)
		assert.Equal(t, "title", appended[0].FieldChanged)

		require.Len(t, pub.events, 1)
		assert.Equal(t, domain.EventObjectiveUpdated, pub.events[0].Type)
		assert.Equal(t, 1, pub.events[0].Changes)
		assert.Equal(t, 4, pub.events[0].Version)
	})

	t.Run("no-op writes nothing", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(caller.ID)
		tx := &mockTx{}
		pub := &recordingPublisher{}
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					return stored, nil
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, pub, okr.WithClock(clock))

		got, err := svc.Update(context.Background(), stored.ID, caller.ID, okr.Patch{Title: okr.Some("Old Title")})
		require.NoError(t, err)
		assert.Equal(t, stored, got)
		assert.Zero(t, tx.calls)
		assert.Empty(t, pub.events)
	})

	t.Run("unknown caller is unauthorized before any read", func(t *testing.T) {
		t.Parallel()

		tx := &mockTx{}
		store := &mockStore{
			users: usersByID(),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					t.Fatal("objective must not be loaded for an unknown caller")
					return nil, nil
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, nil)

		_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), okr.Patch{Title: okr.Some("x")})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
		assert.Zero(t, tx.calls)
	})

	t.Run("nil caller is unauthorized", func(t *testing.T) {
		t.Parallel()

		svc := okr.NewService(&mockStore{}, &mockTx{}, staticOrg{}, nil)
		_, err := svc.Update(context.Background(), uuid.New(), uuid.Nil, okr.Patch{})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("missing objective", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		tx := &mockTx{}
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, nil)

		_, err := svc.Update(context.Background(), uuid.New(), caller.ID, okr.Patch{Title: okr.Some("x")})
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Zero(t, tx.calls)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(caller.ID)
		tx := &mockTx{}
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					return stored, nil
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, nil)

		stale := 2
		_, err := svc.Update(context.Background(), stored.ID, caller.ID, okr.Patch{Version: &stale, Title: okr.Some("x")})
		require.ErrorIs(t, err, domain.ErrConflict)
		assert.Zero(t, tx.calls)
	})

	t.Run("concurrent writer surfaces as conflict", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(caller.ID)
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					return stored, nil
				},
				updateFunc: func(_ context.Context, _ *domain.Objective, _ int) error {
					return domain.ErrConflict
				},
			},
			updateLogs: &mockUpdateLogRepo{
				appendFunc: func(_ context.Context, _ []*domain.UpdateLogEntry) error {
					t.Fatal("entries must not be written after a failed objective write")
					return nil
				},
			},
		}
		svc := okr.NewService(store, &mockTx{}, staticOrg{}, nil)

		_, err := svc.Update(context.Background(), stored.ID, caller.ID, okr.Patch{Title: okr.Some("x")})
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("validation error writes nothing", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(caller.ID)
		tx := &mockTx{}
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					return stored, nil
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, nil)

		_, err := svc.Update(context.Background(), stored.ID, caller.ID, okr.Patch{Progress: okr.Some(140)})
		require.ErrorIs(t, err, domain.ErrValidation)
		assert.Zero(t, tx.calls)
	})

	t.Run("publish failure does not fail the update", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(caller.ID)
		pub := &recordingPublisher{err: errors.New("redis down")}
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					return stored, nil
				},
				updateFunc: func(_ context.Context, _ *domain.Objective, _ int) error { return nil },
			},
			updateLogs: &mockUpdateLogRepo{
				appendFunc: func(_ context.Context, _ []*domain.UpdateLogEntry) error { return nil },
			},
		}
		svc := okr.NewService(store, &mockTx{}, staticOrg{}, pub)

		got, err := svc.Update(context.Background(), stored.ID, caller.ID, okr.Patch{Progress: okr.Some(60)})
		require.NoError(t, err)
		assert.Equal(t, 60, got.Progress)
		assert.Len(t, pub.events, 1)
	})
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestService_Create(t *testing.T) {
	t.Parallel()

	org := &domain.Organization{ID: uuid.New(), Name: "Acme"}

	t.Run("member creates individual objective", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		member := uuid.New()
		tx := &mockTx{}
		pub := &recordingPublisher{}

		var created *domain.Objective
		var appended []*domain.UpdateLogEntry
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				createFunc: func(ctx context.Context, o *domain.Objective) error {
					assert.True(t, inTx(ctx))
					created = o
					return nil
				},
			},
			updateLogs: &mockUpdateLogRepo{
				appendFunc: func(ctx context.Context, entries []*domain.UpdateLogEntry) error {
					assert.True(t, inTx(ctx))
					appended = entries
					return nil
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{org: org}, pub, okr.WithClock(clock))

		got, err := svc.Create(context.Background(), caller.ID, okr.CreateInput{
			Title:         "Ship v2",
			ObjectiveType: domain.ScopeIndividual,
			MemberID:      &member,
			KeyResults: []okr.KeyResultPatch{
				{Title: okr.Some("Close 10 tickets"), Target: okr.Some(10.0)},
			},
		})
		require.NoError(t, err)

		require.NotNil(t, created)
		assert.Equal(t, caller.ID, got.OwnerID)
		assert.Equal(t, domain.StatusDraft, got.Status)
		require.NotNil(t, got.OrganizationID)
		assert.Equal(t, org.ID, *got.OrganizationID)
		assert.Equal(t, 1, got.Version)
		require.Len(t, got.KeyResults, 1)
		assert.NotEqual(t, uuid.Nil, got.KeyResults[0].ID)
		assert.Equal(t, []string{}, got.Tags)

		require.Len(t, appended, 1)
		assert.Equal(t, domain.ActionCreate, appended[0].Action)
		assert.Empty(t, appended[0].FieldChanged)
		assert.Equal(t, got.ID, appended[0].OKRID)
		assert.Equal(t, caller.ID, appended[0].UserID)
		assert.Equal(t, 1, tx.calls)

		require.Len(t, pub.events, 1)
		assert.Equal(t, domain.EventObjectiveCreated, pub.events[0].Type)
	})

	t.Run("role gating", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			role    domain.Role
			scope   domain.Scope
			allowed bool
		}{
			{domain.RoleMember, domain.ScopeIndividual, true},
			{domain.RoleMember, domain.ScopeTeam, false},
			{domain.RoleTeamManager, domain.ScopeTeam, true},
			{domain.RoleTeamManager, domain.ScopeDepartment, false},
			{domain.RoleDeptManager, domain.ScopeDepartment, true},
			{domain.RoleDeptManager, domain.ScopeOrganization, false},
			{domain.RoleAdmin, domain.ScopeOrganization, true},
			{domain.Role("guest"), domain.ScopeIndividual, false},
		}

		for _, tt := range tests {
			t.Run(string(tt.role)+"/"+string(tt.scope), func(t *testing.T) {
				t.Parallel()

				caller := newUser(tt.role)
				member := uuid.New()
				var created bool
				store := &mockStore{
					users: usersByID(caller),
					objectives: &mockObjectiveRepo{
						createFunc: func(_ context.Context, _ *domain.Objective) error {
							created = true
							return nil
						},
					},
					updateLogs: &mockUpdateLogRepo{
						appendFunc: func(_ context.Context, _ []*domain.UpdateLogEntry) error { return nil },
					},
				}
				tx := &mockTx{}
				svc := okr.NewService(store, tx, staticOrg{org: org}, nil)

				_, err := svc.Create(context.Background(), caller.ID, okr.CreateInput{
					Title:         "Goal",
					ObjectiveType: tt.scope,
					MemberID:      &member,
				})

				if tt.allowed {
					require.NoError(t, err)
					assert.True(t, created)
					return
				}
				require.ErrorIs(t, err, domain.ErrForbidden)
				var perr *okr.PermissionError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "role '"+string(tt.role)+"' cannot create objective type '"+string(tt.scope)+"'", perr.Error())
				assert.False(t, created)
				assert.Zero(t, tx.calls)
			})
		}
	})

	t.Run("individual without member", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleAdmin)
		tx := &mockTx{}
		svc := okr.NewService(&mockStore{users: usersByID(caller)}, tx, staticOrg{org: org}, nil)

		_, err := svc.Create(context.Background(), caller.ID, okr.CreateInput{Title: "Goal", ObjectiveType: domain.ScopeIndividual})
		require.ErrorIs(t, err, domain.ErrValidation)
		var fe *domain.FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "memberId", fe.Field)
		assert.Zero(t, tx.calls)
	})

	t.Run("unknown objective type", func(t *testing.T) {
		t.Parallel()

		for _, scope := range []domain.Scope{"", "company"} {
			caller := newUser(domain.RoleAdmin)
			tx := &mockTx{}
			svc := okr.NewService(&mockStore{users: usersByID(caller)}, tx, staticOrg{org: org}, nil)

			_, err := svc.Create(context.Background(), caller.ID, okr.CreateInput{Title: "Goal", ObjectiveType: scope})
			require.ErrorIs(t, err, domain.ErrValidation)
			require.NotErrorIs(t, err, domain.ErrForbidden)
			var fe *domain.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "objectiveType", fe.Field)
			assert.Zero(t, tx.calls)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleAdmin)
		svc := okr.NewService(&mockStore{users: usersByID(caller)}, &mockTx{}, staticOrg{org: org}, nil)

		_, err := svc.Create(context.Background(), caller.ID, okr.CreateInput{ObjectiveType: domain.ScopeTeam})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("no organization", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleAdmin)
		tx := &mockTx{}
		svc := okr.NewService(&mockStore{users: usersByID(caller)}, tx, staticOrg{err: domain.ErrNotFound}, nil)

		_, err := svc.Create(context.Background(), caller.ID, okr.CreateInput{Title: "Goal", ObjectiveType: domain.ScopeOrganization})
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Zero(t, tx.calls)
	})

	t.Run("unknown caller", func(t *testing.T) {
		t.Parallel()

		svc := okr.NewService(&mockStore{users: usersByID()}, &mockTx{}, staticOrg{org: org}, nil)
		_, err := svc.Create(context.Background(), uuid.New(), okr.CreateInput{Title: "Goal", ObjectiveType: domain.ScopeTeam})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("custom scope table", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				createFunc: func(_ context.Context, _ *domain.Objective) error { return nil },
			},
			updateLogs: &mockUpdateLogRepo{
				appendFunc: func(_ context.Context, _ []*domain.UpdateLogEntry) error { return nil },
			},
		}
		table := okr.ScopeTable{domain.RoleMember: {domain.ScopeTeam}}
		svc := okr.NewService(store, &mockTx{}, staticOrg{org: org}, nil, okr.WithScopeTable(table))

		_, err := svc.Create(context.Background(), caller.ID, okr.CreateInput{Title: "Goal", ObjectiveType: domain.ScopeTeam})
		require.NoError(t, err)
	})
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes and records entry", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(uuid.New())
		tx := &mockTx{}
		pub := &recordingPublisher{}

		var deleted uuid.UUID
		var appended []*domain.UpdateLogEntry
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) { return stored, nil },
				deleteFunc: func(ctx context.Context, id uuid.UUID) error {
					assert.True(t, inTx(ctx))
					deleted = id
					return nil
				},
			},
			updateLogs: &mockUpdateLogRepo{
				appendFunc: func(ctx context.Context, entries []*domain.UpdateLogEntry) error {
					assert.True(t, inTx(ctx))
					appended = entries
					return nil
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, pub, okr.WithClock(clock))

		require.NoError(t, svc.Delete(context.Background(), stored.ID, caller.ID))

		assert.Equal(t, stored.ID, deleted)
		require.Len(t, appended, 1)
		assert.Equal(t, domain.ActionDelete, appended[0].Action)
		assert.Empty(t, appended[0].FieldChanged)
		assert.Equal(t, caller.ID, appended[0].UserID)
		assert.Equal(t, stored.ID, appended[0].OKRID)
		assert.Equal(t, testNow, appended[0].Timestamp)
		require.Len(t, pub.events, 1)
		assert.Equal(t, domain.EventObjectiveDeleted, pub.events[0].Type)
	})

	t.Run("missing objective", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		tx := &mockTx{}
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) {
					return nil, domain.ErrNotFound
				},
			},
		}
		svc := okr.NewService(store, tx, staticOrg{}, nil)

		err := svc.Delete(context.Background(), uuid.New(), caller.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Zero(t, tx.calls)
	})

	t.Run("unknown caller", func(t *testing.T) {
		t.Parallel()

		svc := okr.NewService(&mockStore{users: usersByID()}, &mockTx{}, staticOrg{}, nil)
		err := svc.Delete(context.Background(), uuid.New(), uuid.New())
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("transaction failure propagates", func(t *testing.T) {
		t.Parallel()

		caller := newUser(domain.RoleMember)
		stored := baseObjective(caller.ID)
		boom := errors.New("connection reset")
		pub := &recordingPublisher{}
		store := &mockStore{
			users: usersByID(caller),
			objectives: &mockObjectiveRepo{
				getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Objective, error) { return stored, nil },
			},
		}
		svc := okr.NewService(store, &mockTx{err: boom}, staticOrg{}, pub)

		err := svc.Delete(context.Background(), stored.ID, caller.ID)
		require.ErrorIs(t, err, boom)
		assert.Empty(t, pub.events)
	})
}
