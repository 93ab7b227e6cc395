package v1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
	"github.com/gosuda/okrs/internal/server/middleware"
)

type CreateDepartmentInput struct {
	Body struct {
		Name            string   `json:"name,omitempty" maxLength:"255" doc:"Department name (required)"`
		Description     string   `json:"description,omitempty"`
		HeadID          string   `json:"headId,omitempty" doc:"User heading the department (required)"`
		Budget          *float64 `json:"budget,omitempty"`
		Location        string   `json:"location,omitempty"`
		EstablishedDate string   `json:"establishedDate,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
		Mission         string   `json:"mission,omitempty"`
		Vision          string   `json:"vision,omitempty"`
		Status          string   `json:"status,omitempty" doc:"Active, Inactive, Planning or Restructuring; defaults to Active"`
	}
}

type DepartmentOutput struct {
	Body *domain.Department
}

type ListDepartmentsOutput struct {
	Body []*domain.Department
}

type DepartmentIDInput struct {
	ID string `path:"id" doc:"Department ID"`
}

// UpdateDepartmentInput changes only the fields present in the body. An
// empty establishedDate clears it.
type UpdateDepartmentInput struct {
	ID   string `path:"id" doc:"Department ID"`
	Body struct {
		Name            *string  `json:"name,omitempty" maxLength:"255"`
		Description     *string  `json:"description,omitempty"`
		HeadID          string   `json:"headId,omitempty"`
		Budget          *float64 `json:"budget,omitempty"`
		Location        *string  `json:"location,omitempty"`
		EstablishedDate *string  `json:"establishedDate,omitempty" doc:"YYYY-MM-DD, RFC 3339, or \"\" to clear"`
		Mission         *string  `json:"mission,omitempty"`
		Vision          *string  `json:"vision,omitempty"`
		Status          string   `json:"status,omitempty" doc:"Active, Inactive, Planning or Restructuring"`
	}
}

type DeleteDepartmentOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// DepartmentDetail is a department with its teams and department-level
// objectives.
type DepartmentDetail struct {
	domain.Department
	Teams []*domain.Team      `json:"teams"`
	OKRs  []*domain.Objective `json:"okrs"`
}

type DepartmentDetailOutput struct {
	Body *DepartmentDetail
}

// RegisterDepartmentRoutes mounts /departments. Creation is limited to
// admins and attaches the department to the resolved organization.
func RegisterDepartmentRoutes(api huma.API, store DataStore, orgs okr.OrganizationResolver, objectives ObjectiveService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-department",
		Method:        http.MethodPost,
		Path:          "/departments",
		Summary:       "Create a department",
		Tags:          []string{"Departments"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{middleware.RequireAdmin(api)},
	}, func(ctx context.Context, input *CreateDepartmentInput) (*DepartmentOutput, error) {
		b := input.Body
		if strings.TrimSpace(b.Name) == "" {
			return nil, huma.Error400BadRequest("name: is required")
		}
		if b.HeadID == "" {
			return nil, huma.Error400BadRequest("headId: is required")
		}
		headID, err := parseID("headId", b.HeadID)
		if err != nil {
			return nil, err
		}
		established, err := parseDate("establishedDate", b.EstablishedDate)
		if err != nil {
			return nil, err
		}

		status := domain.DepartmentActive
		if b.Status != "" {
			status = domain.DepartmentStatus(b.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("status: unknown department status " + b.Status)
			}
		}

		org, err := orgs.Resolve(ctx)
		if err != nil {
			return nil, toHTTPError("create-department", "organisation", err)
		}

		now := time.Now().UTC()
		d := &domain.Department{
			ID:              uuid.New(),
			OrganizationID:  org.ID,
			Name:            b.Name,
			Description:     b.Description,
			HeadID:          headID,
			Budget:          b.Budget,
			Location:        b.Location,
			EstablishedDate: established,
			Mission:         b.Mission,
			Vision:          b.Vision,
			Status:          status,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := store.Departments().Create(ctx, d); err != nil {
			return nil, toHTTPError("create-department", "department", err)
		}

		return &DepartmentOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-departments",
		Method:      http.MethodGet,
		Path:        "/departments",
		Summary:     "List departments",
		Tags:        []string{"Departments"},
	}, func(ctx context.Context, _ *struct{}) (*ListDepartmentsOutput, error) {
		depts, err := store.Departments().List(ctx)
		if err != nil {
			return nil, toHTTPError("list-departments", "department", err)
		}
		if depts == nil {
			depts = []*domain.Department{}
		}

		return &ListDepartmentsOutput{Body: depts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-department",
		Method:      http.MethodGet,
		Path:        "/departments/{id}",
		Summary:     "Get a department with its teams and objectives",
		Tags:        []string{"Departments"},
	}, func(ctx context.Context, input *DepartmentIDInput) (*DepartmentDetailOutput, error) {
		id, err := parseID("department id", input.ID)
		if err != nil {
			return nil, err
		}

		d, err := store.Departments().GetByID(ctx, id)
		if err != nil {
			return nil, toHTTPError("get-department", "department", err)
		}

		detail := &DepartmentDetail{Department: *d}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			teams, err := store.Teams().List(gctx, &id)
			detail.Teams = teams
			return err
		})
		g.Go(func() error {
			okrs, err := objectives.List(gctx, domain.ObjectiveFilter{Scope: domain.ScopeDepartment, DepartmentID: &id})
			detail.OKRs = okrs
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, toHTTPError("get-department", "department", err)
		}
		if detail.Teams == nil {
			detail.Teams = []*domain.Team{}
		}
		if detail.OKRs == nil {
			detail.OKRs = []*domain.Objective{}
		}

		return &DepartmentDetailOutput{Body: detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-department",
		Method:      http.MethodPut,
		Path:        "/departments/{id}",
		Summary:     "Update a department",
		Tags:        []string{"Departments"},
		Middlewares: huma.Middlewares{middleware.RequireAdmin(api)},
	}, func(ctx context.Context, input *UpdateDepartmentInput) (*DepartmentOutput, error) {
		id, err := parseID("department id", input.ID)
		if err != nil {
			return nil, err
		}

		d, err := store.Departments().GetByID(ctx, id)
		if err != nil {
			return nil, toHTTPError("update-department", "department", err)
		}
		if err := applyDepartmentUpdate(d, input); err != nil {
			return nil, err
		}
		d.UpdatedAt = time.Now().UTC()

		if err := store.Departments().Update(ctx, d); err != nil {
			return nil, toHTTPError("update-department", "department", err)
		}

		return &DepartmentOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-department",
		Method:      http.MethodDelete,
		Path:        "/departments/{id}",
		Summary:     "Delete a department and its teams",
		Tags:        []string{"Departments"},
		Middlewares: huma.Middlewares{middleware.RequireAdmin(api)},
	}, func(ctx context.Context, input *DepartmentIDInput) (*DeleteDepartmentOutput, error) {
		id, err := parseID("department id", input.ID)
		if err != nil {
			return nil, err
		}

		if err := store.Departments().Delete(ctx, id); err != nil {
			return nil, toHTTPError("delete-department", "department", err)
		}

		out := &DeleteDepartmentOutput{}
		out.Body.Message = "department deleted"
		return out, nil
	})
}

func applyDepartmentUpdate(d *domain.Department, input *UpdateDepartmentInput) error {
	b := input.Body
	if b.Name != nil {
		if strings.TrimSpace(*b.Name) == "" {
			return huma.Error400BadRequest("name: must not be blank")
		}
		d.Name = *b.Name
	}
	if b.HeadID != "" {
		headID, err := parseID("headId", b.HeadID)
		if err != nil {
			return err
		}
		d.HeadID = headID
	}
	if b.EstablishedDate != nil {
		established, err := parseDate("establishedDate", *b.EstablishedDate)
		if err != nil {
			return err
		}
		d.EstablishedDate = established
	}
	if b.Status != "" {
		status := domain.DepartmentStatus(b.Status)
		if !status.Valid() {
			return huma.Error400BadRequest("status: unknown department status " + b.Status)
		}
		d.Status = status
	}
	if b.Budget != nil {
		d.Budget = b.Budget
	}
	setIfPresent(&d.Description, b.Description)
	setIfPresent(&d.Location, b.Location)
	setIfPresent(&d.Mission, b.Mission)
	setIfPresent(&d.Vision, b.Vision)
	return nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
