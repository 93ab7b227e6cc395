package v1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
	"github.com/gosuda/okrs/internal/server/middleware"
)

type CreateTeamInput struct {
	Body struct {
		Name         string   `json:"name,omitempty" maxLength:"255" doc:"Team name (required)"`
		Description  string   `json:"description,omitempty"`
		DepartmentID string   `json:"departmentId,omitempty" doc:"Owning department (required)"`
		LeadID       string   `json:"leadId,omitempty" doc:"Team lead (required)"`
		MemberIDs    []string `json:"memberIds,omitempty"`
		Goals        []string `json:"goals,omitempty"`
		Status       string   `json:"status,omitempty" doc:"Active, Inactive or Planning; defaults to Active"`
	}
}

type TeamOutput struct {
	Body *domain.Team
}

type ListTeamsInput struct {
	DepartmentID string `query:"departmentId" doc:"Only teams of this department"`
}

type ListTeamsOutput struct {
	Body []*domain.Team
}

type TeamIDInput struct {
	ID string `path:"id" doc:"Team ID"`
}

// UpdateTeamInput changes only the fields present in the body. memberIds
// and goals replace the stored lists when given.
type UpdateTeamInput struct {
	ID   string `path:"id" doc:"Team ID"`
	Body struct {
		Name         *string  `json:"name,omitempty" maxLength:"255"`
		Description  *string  `json:"description,omitempty"`
		DepartmentID string   `json:"departmentId,omitempty"`
		LeadID       string   `json:"leadId,omitempty"`
		MemberIDs    []string `json:"memberIds,omitempty"`
		Goals        []string `json:"goals,omitempty"`
		Status       string   `json:"status,omitempty" doc:"Active, Inactive or Planning"`
	}
}

type DeleteTeamOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

func RegisterTeamRoutes(api huma.API, store DataStore, orgs okr.OrganizationResolver) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-team",
		Method:        http.MethodPost,
		Path:          "/teams",
		Summary:       "Create a team",
		Tags:          []string{"Teams"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{middleware.RequireRole(api, domain.RoleAdmin, domain.RoleDeptManager)},
	}, func(ctx context.Context, input *CreateTeamInput) (*TeamOutput, error) {
		b := input.Body
		if strings.TrimSpace(b.Name) == "" {
			return nil, huma.Error400BadRequest("name: is required")
		}
		if b.DepartmentID == "" {
			return nil, huma.Error400BadRequest("departmentId: is required")
		}
		if b.LeadID == "" {
			return nil, huma.Error400BadRequest("leadId: is required")
		}
		deptID, err := parseID("departmentId", b.DepartmentID)
		if err != nil {
			return nil, err
		}
		leadID, err := parseID("leadId", b.LeadID)
		if err != nil {
			return nil, err
		}

		members := make([]uuid.UUID, 0, len(b.MemberIDs))
		for _, raw := range b.MemberIDs {
			id, err := parseID("memberIds", raw)
			if err != nil {
				return nil, err
			}
			members = append(members, id)
		}

		status := domain.TeamActive
		if b.Status != "" {
			status = domain.TeamStatus(b.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("status: unknown team status " + b.Status)
			}
		}

		goals := b.Goals
		if goals == nil {
			goals = []string{}
		}

		org, err := orgs.Resolve(ctx)
		if err != nil {
			return nil, toHTTPError("create-team", "organisation", err)
		}

		now := time.Now().UTC()
		team := &domain.Team{
			ID:             uuid.New(),
			OrganizationID: org.ID,
			DepartmentID:   deptID,
			Name:           b.Name,
			Description:    b.Description,
			LeadID:         leadID,
			MemberIDs:      members,
			Goals:          goals,
			Status:         status,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := store.Teams().Create(ctx, team); err != nil {
			return nil, toHTTPError("create-team", "department", err)
		}

		return &TeamOutput{Body: team}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-teams",
		Method:      http.MethodGet,
		Path:        "/teams",
		Summary:     "List teams",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, input *ListTeamsInput) (*ListTeamsOutput, error) {
		deptID, err := parseOptionalID("departmentId", input.DepartmentID)
		if err != nil {
			return nil, err
		}

		teams, err := store.Teams().List(ctx, deptID)
		if err != nil {
			return nil, toHTTPError("list-teams", "team", err)
		}
		if teams == nil {
			teams = []*domain.Team{}
		}

		return &ListTeamsOutput{Body: teams}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-team",
		Method:      http.MethodGet,
		Path:        "/teams/{id}",
		Summary:     "Get a team",
		Tags:        []string{"Teams"},
	}, func(ctx context.Context, input *TeamIDInput) (*TeamOutput, error) {
		id, err := parseID("team id", input.ID)
		if err != nil {
			return nil, err
		}

		team, err := store.Teams().GetByID(ctx, id)
		if err != nil {
			return nil, toHTTPError("get-team", "team", err)
		}

		return &TeamOutput{Body: team}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-team",
		Method:      http.MethodPut,
		Path:        "/teams/{id}",
		Summary:     "Update a team",
		Tags:        []string{"Teams"},
		Middlewares: huma.Middlewares{middleware.RequireRole(api, domain.RoleAdmin, domain.RoleDeptManager)},
	}, func(ctx context.Context, input *UpdateTeamInput) (*TeamOutput, error) {
		id, err := parseID("team id", input.ID)
		if err != nil {
			return nil, err
		}

		team, err := store.Teams().GetByID(ctx, id)
		if err != nil {
			return nil, toHTTPError("update-team", "team", err)
		}
		if err := applyTeamUpdate(team, input); err != nil {
			return nil, err
		}
		team.UpdatedAt = time.Now().UTC()

		if err := store.Teams().Update(ctx, team); err != nil {
			resource := "team"
			if input.Body.DepartmentID != "" {
				resource = "team or department"
			}
			return nil, toHTTPError("update-team", resource, err)
		}

		return &TeamOutput{Body: team}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-team",
		Method:      http.MethodDelete,
		Path:        "/teams/{id}",
		Summary:     "Delete a team",
		Tags:        []string{"Teams"},
		Middlewares: huma.Middlewares{middleware.RequireRole(api, domain.RoleAdmin, domain.RoleDeptManager)},
	}, func(ctx context.Context, input *TeamIDInput) (*DeleteTeamOutput, error) {
		id, err := parseID("team id", input.ID)
		if err != nil {
			return nil, err
		}

		if err := store.Teams().Delete(ctx, id); err != nil {
			return nil, toHTTPError("delete-team", "team", err)
		}

		out := &DeleteTeamOutput{}
		out.Body.Message = "team deleted"
		return out, nil
	})
}

func applyTeamUpdate(team *domain.Team, input *UpdateTeamInput) error {
	b := input.Body
	if b.Name != nil {
		if strings.TrimSpace(*b.Name) == "" {
			return huma.Error400BadRequest("name: must not be blank")
		}
		team.Name = *b.Name
	}
	setIfPresent(&team.Description, b.Description)
	if b.DepartmentID != "" {
		deptID, err := parseID("departmentId", b.DepartmentID)
		if err != nil {
			return err
		}
		team.DepartmentID = deptID
	}
	if b.LeadID != "" {
		leadID, err := parseID("leadId", b.LeadID)
		if err != nil {
			return err
		}
		team.LeadID = leadID
	}
	if b.MemberIDs != nil {
		members := make([]uuid.UUID, 0, len(b.MemberIDs))
		for _, raw := range b.MemberIDs {
			memberID, err := parseID("memberIds", raw)
			if err != nil {
				return err
			}
			members = append(members, memberID)
		}
		team.MemberIDs = members
	}
	if b.Goals != nil {
		team.Goals = b.Goals
	}
	if b.Status != "" {
		status := domain.TeamStatus(b.Status)
		if !status.Valid() {
			return huma.Error400BadRequest("status: unknown team status " + b.Status)
		}
		team.Status = status
	}
	return nil
}
