package okr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
)

// CreateInput carries the fields of a new objective. The owner and the
// organization are never taken from the input.
type CreateInput struct {
	Title         string
	Description   string
	ObjectiveType domain.Scope
	MemberID      *uuid.UUID
	TeamID        *uuid.UUID
	DepartmentID  *uuid.UUID
	Status        domain.ObjectiveStatus // draft when empty
	Progress      int
	KeyResults    []KeyResultPatch
	Tags          []string
	StartDate     *time.Time
	DueDate       *time.Time
}

// Create builds a new objective owned by callerID after checking the
// caller's role against the scope table, and records a single create entry.
func (s *Service) Create(ctx context.Context, callerID uuid.UUID, in CreateInput) (*domain.Objective, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("okr.Create: %w", err)
	}

	if !in.ObjectiveType.Valid() {
		return nil, fmt.Errorf("okr.Create: %w", &domain.FieldError{Field: "objectiveType", Reason: "unknown objective type " + strconv.Quote(string(in.ObjectiveType))})
	}
	if !s.permissions.Allows(caller.Role, in.ObjectiveType) {
		return nil, fmt.Errorf("okr.Create: %w", &PermissionError{Role: caller.Role, Scope: in.ObjectiveType})
	}

	if err := validateCreate(in); err != nil {
		return nil, fmt.Errorf("okr.Create: %w", err)
	}

	org, err := s.orgResolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("okr.Create: resolve organization: %w", err)
	}

	now := s.now().UTC()
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}

	keyResults := make([]domain.KeyResult, 0, len(in.KeyResults))
	for _, kr := range in.KeyResults {
		built, err := NewKeyResult(kr, now)
		if err != nil {
			return nil, fmt.Errorf("okr.Create: %w", err)
		}
		keyResults = append(keyResults, built)
	}

	orgID := org.ID
	o := &domain.Objective{
		ID:             uuid.New(),
		Title:          in.Title,
		Description:    in.Description,
		OwnerID:        caller.ID,
		ObjectiveType:  in.ObjectiveType,
		MemberID:       copyRef(in.MemberID),
		TeamID:         copyRef(in.TeamID),
		DepartmentID:   copyRef(in.DepartmentID),
		OrganizationID: &orgID,
		Status:         status,
		Progress:       in.Progress,
		KeyResults:     keyResults,
		Tags:           append([]string{}, in.Tags...),
		StartDate:      TruncateDate(in.StartDate),
		DueDate:        TruncateDate(in.DueDate),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	entry := &domain.UpdateLogEntry{
		ID:        uuid.New(),
		OKRID:     o.ID,
		UserID:    caller.ID,
		Action:    domain.ActionCreate,
		Timestamp: now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Objectives().Create(ctx, o); err != nil {
			return err
		}
		return s.store.UpdateLogs().Append(ctx, []*domain.UpdateLogEntry{entry})
	})
	if err != nil {
		return nil, fmt.Errorf("okr.Create: %w", err)
	}

	s.publish(ctx, domain.ObjectiveEvent{
		Type:        domain.EventObjectiveCreated,
		ObjectiveID: o.ID,
		ActorID:     caller.ID,
		Scope:       o.ObjectiveType,
		Version:     o.Version,
		Changes:     1,
		OccurredAt:  now,
	})

	return o, nil
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &domain.FieldError{Field: "title", Reason: "is required"}
	}
	if in.ObjectiveType == domain.ScopeIndividual && (in.MemberID == nil || *in.MemberID == uuid.Nil) {
		return &domain.FieldError{Field: "memberId", Reason: "is required for individual objectives"}
	}
	if in.Status != "" && !in.Status.Valid() {
		return &domain.FieldError{Field: "status", Reason: "unknown status " + string(in.Status)}
	}
	if !validProgress(in.Progress) {
		return &domain.FieldError{Field: "progress", Reason: "must be between 0 and 100"}
	}
	for _, kr := range in.KeyResults {
		if kr.Progress.Set && !validProgress(kr.Progress.Value) {
			return &domain.FieldError{Field: "keyResults.progress", Reason: "must be between 0 and 100"}
		}
	}
	return nil
}
