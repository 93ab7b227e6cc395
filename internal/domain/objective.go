package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Scope is the organizational level an objective belongs to. It is stored in
// the objectiveType field.
type Scope string

const (
	ScopeIndividual   Scope = "individual"
	ScopeTeam         Scope = "team"
	ScopeDepartment   Scope = "department"
	ScopeOrganization Scope = "organization"
)

// Valid reports whether s is one of the four known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeIndividual, ScopeTeam, ScopeDepartment, ScopeOrganization:
		return true
	default:
		return false
	}
}

type ObjectiveStatus string

const (
	StatusDraft     ObjectiveStatus = "draft"
	StatusActive    ObjectiveStatus = "active"
	StatusCompleted ObjectiveStatus = "completed"
	StatusCancelled ObjectiveStatus = "cancelled"
)

func (s ObjectiveStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// KeyResult is a measurable sub-goal embedded in an objective. Key results
// have no identity outside their parent; ID is assigned when first appended.
type KeyResult struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Target      float64   `json:"target"`
	Current     float64   `json:"current"`
	Unit        string    `json:"unit"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Objective struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	OwnerID        uuid.UUID       `json:"ownerId"`
	ObjectiveType  Scope           `json:"objectiveType"`
	MemberID       *uuid.UUID      `json:"memberId,omitempty"`
	TeamID         *uuid.UUID      `json:"teamId,omitempty"`
	DepartmentID   *uuid.UUID      `json:"departmentId,omitempty"`
	OrganizationID *uuid.UUID      `json:"organizationId,omitempty"`
	Status         ObjectiveStatus `json:"status"`
	Progress       int             `json:"progress"`
	KeyResults     []KeyResult     `json:"keyResults"`
	Tags           []string        `json:"tags"`
	StartDate      *time.Time      `json:"startDate,omitempty"`
	DueDate        *time.Time      `json:"dueDate,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate the result without
// touching the original's slices or pointers.
func (o *Objective) Clone() *Objective {
	c := *o
	c.MemberID = cloneUUID(o.MemberID)
	c.TeamID = cloneUUID(o.TeamID)
	c.DepartmentID = cloneUUID(o.DepartmentID)
	c.OrganizationID = cloneUUID(o.OrganizationID)
	c.StartDate = cloneTime(o.StartDate)
	c.DueDate = cloneTime(o.DueDate)
	if o.KeyResults != nil {
		c.KeyResults = make([]KeyResult, len(o.KeyResults))
		copy(c.KeyResults, o.KeyResults)
	}
	if o.Tags != nil {
		c.Tags = make([]string, len(o.Tags))
		copy(c.Tags, o.Tags)
	}
	return &c
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ObjectiveFilter narrows a listing. Scope is always applied; nil fields are ignored.
type ObjectiveFilter struct {
	Scope        Scope
	Status       *ObjectiveStatus
	OwnerID      *uuid.UUID
	MemberID     *uuid.UUID
	TeamID       *uuid.UUID
	DepartmentID *uuid.UUID
	Limit        int
}

type ObjectiveRepository interface {
	Create(ctx context.Context, o *Objective) error
	GetByID(ctx context.Context, id uuid.UUID) (*Objective, error)
	// Update persists o, including its new Version, only if the stored
	// version still equals expectedVersion. A mismatch returns ErrConflict.
	Update(ctx context.Context, o *Objective, expectedVersion int) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ObjectiveFilter) ([]*Objective, error)
}
