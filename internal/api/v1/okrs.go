package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
)

type keyResultBody struct {
	Title       string  `json:"title" doc:"Key result title"`
	Description string  `json:"description,omitempty"`
	Target      float64 `json:"target,omitempty"`
	Current     float64 `json:"current,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	Progress    int     `json:"progress,omitempty" doc:"0-100"`
}

type CreateObjectiveInput struct {
	Body struct {
		_ struct{} `json:"-" additionalProperties:"true"`

		Title         string          `json:"title,omitempty" doc:"Objective title (required)"`
		Description   string          `json:"description,omitempty"`
		ObjectiveType string          `json:"objectiveType,omitempty" doc:"individual, team, department or organization"`
		MemberID      string          `json:"memberId,omitempty" doc:"Required for individual objectives"`
		TeamID        string          `json:"teamId,omitempty"`
		DepartmentID  string          `json:"departmentId,omitempty"`
		Status        string          `json:"status,omitempty" doc:"Defaults to draft"`
		Progress      int             `json:"progress,omitempty" doc:"0-100"`
		KeyResults    []keyResultBody `json:"keyResults,omitempty"`
		Tags          []string        `json:"tags,omitempty"`
		StartDate     string          `json:"startDate,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
		DueDate       string          `json:"dueDate,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
	}
}

type ObjectiveOutput struct {
	Body *domain.Objective
}

type ListObjectivesInput struct {
	Type         string `query:"type" doc:"Scope to list; defaults to individual"`
	Status       string `query:"status"`
	OwnerID      string `query:"ownerId"`
	MemberID     string `query:"memberId"`
	TeamID       string `query:"teamId"`
	DepartmentID string `query:"departmentId"`
}

type ListObjectivesOutput struct {
	Body []*domain.Objective
}

type ObjectiveIDInput struct {
	ID string `path:"id" doc:"Objective ID"`
}

type GetObjectiveOutput struct {
	Body *okr.ObjectiveView
}

type UpdateObjectiveInput struct {
	ID   string `path:"id" doc:"Objective ID"`
	Body objectivePatchBody
}

type DeleteObjectiveOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

type HistoryOutput struct {
	Body []*okr.HistoryEntry
}

func RegisterObjectiveRoutes(api huma.API, svc ObjectiveService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-objective",
		Method:        http.MethodPost,
		Path:          "/okrs",
		Summary:       "Create an objective",
		Description:   "The caller's role decides which objective types may be created.",
		Tags:          []string{"Objectives"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateObjectiveInput) (*ObjectiveOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		in, err := toCreateInput(input)
		if err != nil {
			return nil, err
		}

		o, err := svc.Create(ctx, caller, in)
		if err != nil {
			return nil, toHTTPError("create-objective", "organization", err)
		}

		return &ObjectiveOutput{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-objectives",
		Method:      http.MethodGet,
		Path:        "/okrs",
		Summary:     "List objectives of one scope",
		Tags:        []string{"Objectives"},
	}, func(ctx context.Context, input *ListObjectivesInput) (*ListObjectivesOutput, error) {
		f, err := toFilter(input)
		if err != nil {
			return nil, err
		}

		objectives, err := svc.List(ctx, f)
		if err != nil {
			return nil, toHTTPError("list-objectives", "filter", err)
		}
		if objectives == nil {
			objectives = []*domain.Objective{}
		}

		return &ListObjectivesOutput{Body: objectives}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-objective",
		Method:      http.MethodGet,
		Path:        "/okrs/{id}",
		Summary:     "Get an objective with its relations resolved",
		Tags:        []string{"Objectives"},
	}, func(ctx context.Context, input *ObjectiveIDInput) (*GetObjectiveOutput, error) {
		id, err := parseID("objective id", input.ID)
		if err != nil {
			return nil, err
		}

		view, err := svc.Get(ctx, id)
		if err != nil {
			return nil, toHTTPError("get-objective", "objective", err)
		}

		return &GetObjectiveOutput{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-objective",
		Method:      http.MethodPut,
		Path:        "/okrs/{id}",
		Summary:     "Update an objective",
		Description: "Absent fields keep their stored value. keyResults, when present, replaces the " +
			"sequence and is matched against the stored one by position. Every changed field is " +
			"recorded in the objective's history.",
		Tags: []string{"Objectives"},
	}, func(ctx context.Context, input *UpdateObjectiveInput) (*ObjectiveOutput, error) {
		id, err := parseID("objective id", input.ID)
		if err != nil {
			return nil, err
		}

		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		patch, err := input.Body.toPatch()
		if err != nil {
			return nil, toHTTPError("update-objective", "objective", err)
		}

		o, err := svc.Update(ctx, id, caller, patch)
		if err != nil {
			return nil, toHTTPError("update-objective", "objective", err)
		}

		return &ObjectiveOutput{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-objective",
		Method:      http.MethodDelete,
		Path:        "/okrs/{id}",
		Summary:     "Delete an objective",
		Tags:        []string{"Objectives"},
	}, func(ctx context.Context, input *ObjectiveIDInput) (*DeleteObjectiveOutput, error) {
		id, err := parseID("objective id", input.ID)
		if err != nil {
			return nil, err
		}

		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.Delete(ctx, id, caller); err != nil {
			return nil, toHTTPError("delete-objective", "objective", err)
		}

		out := &DeleteObjectiveOutput{}
		out.Body.Message = "objective deleted"
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-objective-updates",
		Method:      http.MethodGet,
		Path:        "/okrs/{id}/updates",
		Summary:     "List the change history of an objective, newest first",
		Tags:        []string{"Objectives"},
	}, func(ctx context.Context, input *ObjectiveIDInput) (*HistoryOutput, error) {
		id, err := parseID("objective id", input.ID)
		if err != nil {
			return nil, err
		}

		entries, err := svc.History(ctx, id)
		if err != nil {
			return nil, toHTTPError("list-objective-updates", "objective", err)
		}
		if entries == nil {
			entries = []*okr.HistoryEntry{}
		}

		return &HistoryOutput{Body: entries}, nil
	})
}

func toCreateInput(input *CreateObjectiveInput) (okr.CreateInput, error) {
	b := input.Body
	in := okr.CreateInput{
		Title:         b.Title,
		Description:   b.Description,
		ObjectiveType: domain.Scope(b.ObjectiveType),
		Status:        domain.ObjectiveStatus(b.Status),
		Progress:      b.Progress,
		Tags:          b.Tags,
	}

	var err error
	if in.MemberID, err = parseOptionalID("memberId", b.MemberID); err != nil {
		return in, err
	}
	if in.TeamID, err = parseOptionalID("teamId", b.TeamID); err != nil {
		return in, err
	}
	if in.DepartmentID, err = parseOptionalID("departmentId", b.DepartmentID); err != nil {
		return in, err
	}
	if in.StartDate, err = parseDate("startDate", b.StartDate); err != nil {
		return in, err
	}
	if in.DueDate, err = parseDate("dueDate", b.DueDate); err != nil {
		return in, err
	}

	for _, kr := range b.KeyResults {
		in.KeyResults = append(in.KeyResults, okr.KeyResultPatch{
			Title:       okr.Some(kr.Title),
			Description: okr.Some(kr.Description),
			Target:      okr.Some(kr.Target),
			Current:     okr.Some(kr.Current),
			Unit:        okr.Some(kr.Unit),
			Progress:    okr.Some(kr.Progress),
		})
	}

	return in, nil
}

func toFilter(input *ListObjectivesInput) (domain.ObjectiveFilter, error) {
	f := domain.ObjectiveFilter{Scope: domain.Scope(input.Type)}

	if input.Status != "" {
		status := domain.ObjectiveStatus(input.Status)
		if !status.Valid() {
			return f, huma.Error400BadRequest("invalid status: " + input.Status)
		}
		f.Status = &status
	}

	var err error
	if f.OwnerID, err = parseOptionalID("ownerId", input.OwnerID); err != nil {
		return f, err
	}
	if f.MemberID, err = parseOptionalID("memberId", input.MemberID); err != nil {
		return f, err
	}
	if f.TeamID, err = parseOptionalID("teamId", input.TeamID); err != nil {
		return f, err
	}
	if f.DepartmentID, err = parseOptionalID("departmentId", input.DepartmentID); err != nil {
		return f, err
	}

	return f, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. "" is absent.
func parseDate(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := parseDateValue(raw)
	if err != nil {
		return nil, huma.Error400BadRequest(name + ": expected YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return &t, nil
}

func parseDateValue(raw string) (time.Time, error) {
	if t, err := time.Parse(okr.DateLayout, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
