package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Admins      []uuid.UUID `json:"admins"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type DepartmentStatus string

const (
	DepartmentActive        DepartmentStatus = "Active"
	DepartmentInactive      DepartmentStatus = "Inactive"
	DepartmentPlanning      DepartmentStatus = "Planning"
	DepartmentRestructuring DepartmentStatus = "Restructuring"
)

func (s DepartmentStatus) Valid() bool {
	switch s {
	case DepartmentActive, DepartmentInactive, DepartmentPlanning, DepartmentRestructuring:
		return true
	default:
		return false
	}
}

type Department struct {
	ID              uuid.UUID        `json:"id"`
	OrganizationID  uuid.UUID        `json:"organizationId"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	HeadID          uuid.UUID        `json:"headId"`
	Budget          *float64         `json:"budget,omitempty"`
	Location        string           `json:"location"`
	EstablishedDate *time.Time       `json:"establishedDate,omitempty"`
	Mission         string           `json:"mission"`
	Vision          string           `json:"vision"`
	Status          DepartmentStatus `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

type TeamStatus string

const (
	TeamActive   TeamStatus = "Active"
	TeamInactive TeamStatus = "Inactive"
	TeamPlanning TeamStatus = "Planning"
)

func (s TeamStatus) Valid() bool {
	switch s {
	case TeamActive, TeamInactive, TeamPlanning:
		return true
	default:
		return false
	}
}

type Team struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organizationId"`
	DepartmentID   uuid.UUID   `json:"departmentId"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	LeadID         uuid.UUID   `json:"leadId"`
	MemberIDs      []uuid.UUID `json:"memberIds"`
	Goals          []string    `json:"goals"`
	Status         TeamStatus  `json:"status"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// NamedRef is the display projection of an organizational unit.
type NamedRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type OrganizationRepository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	// First returns the earliest-created organization, ErrNotFound if none exist.
	First(ctx context.Context) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
	// Update overwrites the mutable fields of d, ErrNotFound if it is gone.
	Update(ctx context.Context, d *Department) error
	// Delete removes the department and, through the schema, its teams.
	Delete(ctx context.Context, id uuid.UUID) error
}

type TeamRepository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	// List returns all teams, or only those of departmentID when it is non-nil.
	List(ctx context.Context, departmentID *uuid.UUID) ([]*Team, error)
	Update(ctx context.Context, t *Team) error
	Delete(ctx context.Context, id uuid.UUID) error
}
