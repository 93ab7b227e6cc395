package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/okrs/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	tx            *TxManager
	objectives    *ObjectiveRepo
	updateLogs    *UpdateLogRepo
	users         *UserRepo
	organizations *OrganizationRepo
	departments   *DepartmentRepo
	teams         *TeamRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	s := NewWithDB(pool)
	s.pool = pool
	return s, nil
}

// NewWithDB builds a Store over an existing connection source such as a
// pgxmock pool. Close and Ping are no-ops on a Store built this way.
func NewWithDB(db DB) *Store {
	return &Store{
		tx:            NewTxManager(db),
		objectives:    NewObjectiveRepo(db),
		updateLogs:    NewUpdateLogRepo(db),
		users:         NewUserRepo(db),
		organizations: NewOrganizationRepo(db),
		departments:   NewDepartmentRepo(db),
		teams:         NewTeamRepo(db),
	}
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Tx returns the transaction manager shared by all repositories of s.
func (s *Store) Tx() *TxManager { return s.tx }

func (s *Store) Objectives() domain.ObjectiveRepository       { return s.objectives }
func (s *Store) UpdateLogs() domain.UpdateLogRepository       { return s.updateLogs }
func (s *Store) Users() domain.UserRepository                 { return s.users }
func (s *Store) Organizations() domain.OrganizationRepository { return s.organizations }
func (s *Store) Departments() domain.DepartmentRepository     { return s.departments }
func (s *Store) Teams() domain.TeamRepository                 { return s.teams }
