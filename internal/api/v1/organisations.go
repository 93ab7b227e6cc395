package v1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/okrs/internal/domain"
)

type CreateOrganizationInput struct {
	Body struct {
		Name        string `json:"name,omitempty" maxLength:"255" doc:"Organization name (required)"`
		Description string `json:"description,omitempty"`
	}
}

type OrganizationOutput struct {
	Body *domain.Organization
}

type ListOrganizationsOutput struct {
	Body []*domain.Organization
}

// RegisterOrganizationRoutes mounts /organisations. The creator becomes the
// organization's first admin.
func RegisterOrganizationRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-organisation",
		Method:        http.MethodPost,
		Path:          "/organisations",
		Summary:       "Create an organisation",
		Tags:          []string{"Organisations"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateOrganizationInput) (*OrganizationOutput, error) {
		caller, err := callerID(ctx)
		if err != nil {
			return nil, err
		}

		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, huma.Error400BadRequest("name: is required")
		}

		if _, err := store.Users().GetByID(ctx, caller); err != nil {
			return nil, toHTTPError("create-organisation", "user", err)
		}

		now := time.Now().UTC()
		org := &domain.Organization{
			ID:          uuid.New(),
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Admins:      []uuid.UUID{caller},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Organizations().Create(ctx, org); err != nil {
			return nil, toHTTPError("create-organisation", "organisation", err)
		}

		return &OrganizationOutput{Body: org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-organisations",
		Method:      http.MethodGet,
		Path:        "/organisations",
		Summary:     "List organisations",
		Tags:        []string{"Organisations"},
	}, func(ctx context.Context, _ *struct{}) (*ListOrganizationsOutput, error) {
		orgs, err := store.Organizations().List(ctx)
		if err != nil {
			return nil, toHTTPError("list-organisations", "organisation", err)
		}
		if orgs == nil {
			orgs = []*domain.Organization{}
		}

		return &ListOrganizationsOutput{Body: orgs}, nil
	})
}
